// Package crypto exposes the primitives veilchat clients use.
//
// Contents
//
//   - RSA key pair generation for the local participant (GenerateKeyPair)
//   - PEM/PKIX encoding and parsing of published public keys (EncodePublicKey,
//     ParsePublicKey)
//   - RSA-OAEP (SHA-256) encryption to a recipient and decryption with the
//     local key (Encrypt, KeyPair.Decrypt)
//   - RSA PKCS#1 v1.5 SHA-256 signatures (KeyPair.Sign, Verify)
//   - Short public-key fingerprints for display and logging (Fingerprint)
//   - Best-effort memory wiping for plaintext buffers (Wipe)
//
// # Notes
//
// Ciphertexts travel as standard base64 and signatures as lower-case hex so
// both fit in plain string fields of the relay envelope. The private key never
// leaves the KeyPair value.
package crypto

package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"veilchat/internal/domain"
)

const (
	// DefaultKeyBits is the modulus size used when none is configured.
	DefaultKeyBits = 2048
	// MinKeyBits is the smallest modulus accepted for a local key pair.
	MinKeyBits = 2048
)

// KeyPair is the local participant's RSA key pair. It is generated once per
// process and never serialised.
type KeyPair struct {
	private *rsa.PrivateKey
	public  domain.PublicKey
}

// GenerateKeyPair returns a fresh RSA key pair with the given modulus size.
func GenerateKeyPair(bits int) (*KeyPair, error) {
	if bits < MinKeyBits {
		return nil, fmt.Errorf("rsa key size %d below minimum %d", bits, MinKeyBits)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, err
	}
	pub, err := EncodePublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &KeyPair{private: priv, public: pub}, nil
}

// Public returns the PEM encoded public half, suitable for registration.
func (k *KeyPair) Public() domain.PublicKey { return k.public }

// Fingerprint returns the fingerprint of the public half.
func (k *KeyPair) Fingerprint() domain.Fingerprint { return Fingerprint(k.public) }

// Decrypt opens a base64 RSA-OAEP ciphertext produced by Encrypt.
func (k *KeyPair) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := DecodeB64(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	pt, err := rsa.DecryptOAEP(sha256.New(), nil, k.private, raw, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}

// Sign returns the hex RSA PKCS#1 v1.5 signature over SHA-256(message).
func (k *KeyPair) Sign(message []byte) (string, error) {
	digest := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, k.private, stdcrypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return Hex(sig), nil
}

// Compile-time assertions that KeyPair serves both pipelines.
var (
	_ domain.Decrypter = (*KeyPair)(nil)
	_ domain.Signer    = (*KeyPair)(nil)
)

package interfaces

import domaintypes "veilchat/internal/domain/types"

// Decrypter opens ciphertext addressed to the local key pair.
type Decrypter interface {
	Decrypt(ciphertext string) ([]byte, error)
}

// Signer signs outgoing payloads with the local private key.
type Signer interface {
	Sign(message []byte) (string, error)
	// Public returns the key that verifies signatures made by Sign.
	Public() domaintypes.PublicKey
}

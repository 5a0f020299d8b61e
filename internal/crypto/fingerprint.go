package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"veilchat/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes the PEM bytes with BLAKE2b-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(pub domain.PublicKey) domain.Fingerprint {
	sum := blake2b.Sum256(pub)
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}

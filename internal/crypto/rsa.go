package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"veilchat/internal/domain"
)

const pemTypePublicKey = "PUBLIC KEY"

var (
	// ErrMessageTooLong is returned when a plaintext does not fit in one
	// OAEP block for the recipient's modulus.
	ErrMessageTooLong = errors.New("message too long to encrypt for recipient key")
	// ErrDecrypt hides the underlying OAEP failure reason.
	ErrDecrypt = errors.New("decryption failed")
	// ErrBadPublicKey is returned for keys that are not PEM PKIX RSA keys.
	ErrBadPublicKey = errors.New("invalid public key")
)

// EncodePublicKey encodes pub as a PEM PKIX block.
func EncodePublicKey(pub *rsa.PublicKey) (domain.PublicKey, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublicKey, Bytes: der}), nil
}

// ParsePublicKey decodes a PEM PKIX block, falling back to PKCS#1 for keys
// exported in that form.
func ParsePublicKey(key domain.PublicKey) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(key)
	if block == nil {
		return nil, fmt.Errorf("%w: bad PEM block", ErrBadPublicKey)
	}
	if ifc, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		pub, ok := ifc.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not RSA", ErrBadPublicKey, ifc)
		}
		return pub, nil
	}
	pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPublicKey, err)
	}
	return pub, nil
}

// Encrypt seals message to the holder of key and returns base64 ciphertext.
func Encrypt(key domain.PublicKey, message []byte) (string, error) {
	pub, err := ParsePublicKey(key)
	if err != nil {
		return "", err
	}
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, message, nil)
	if err != nil {
		if errors.Is(err, rsa.ErrMessageTooLong) {
			return "", ErrMessageTooLong
		}
		return "", err
	}
	return B64(ct), nil
}

// Verify reports whether sig is a valid hex signature over message by key.
// Malformed keys or signatures verify as false.
func Verify(key domain.PublicKey, message []byte, sig string) bool {
	pub, err := ParsePublicKey(key)
	if err != nil {
		return false
	}
	raw, err := DecodeHex(sig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(message)
	return rsa.VerifyPKCS1v15(pub, stdcrypto.SHA256, digest[:], raw) == nil
}

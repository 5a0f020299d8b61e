package crypto

import (
	"encoding/base64"
	"encoding/hex"
)

// B64 returns standard base64 encoding without newlines.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// DecodeB64 reverses B64.
func DecodeB64(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// Hex returns lower-case hex.
func Hex(b []byte) string { return hex.EncodeToString(b) }

// DecodeHex reverses Hex.
func DecodeHex(s string) ([]byte, error) { return hex.DecodeString(s) }

package crypto

import "runtime"

// Wipe zeroes b in place once a plaintext copy is no longer needed.
//
//go:noinline
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(&b)
}

package types

// PublicKey is a PEM-armoured PKIX public key as published on the relay.
type PublicKey []byte

// String returns the PEM text.
func (k PublicKey) String() string { return string(k) }

// Identity binds a username to its published public key.
type Identity struct {
	Username  Username  `json:"username"`
	PublicKey PublicKey `json:"public_key"`
}

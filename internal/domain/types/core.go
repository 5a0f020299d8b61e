package types

// Username is the name a participant registers or claims. It is opaque and
// not guaranteed to be unique across the relay.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Variant selects which pipeline a client session runs.
type Variant string

const (
	// VariantConfidentiality encrypts lines addressed to a private target.
	VariantConfidentiality Variant = "confidentiality"
	// VariantAuthenticity signs every line and verifies inbound signatures.
	VariantAuthenticity Variant = "authenticity"
)

// String returns the string form of the variant.
func (v Variant) String() string { return string(v) }

// Valid reports whether v names a known variant.
func (v Variant) Valid() bool {
	return v == VariantConfidentiality || v == VariantAuthenticity
}

package domain

import (
	interfaces "veilchat/internal/domain/interfaces"
	types "veilchat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username    = types.Username
	Fingerprint = types.Fingerprint
	Variant     = types.Variant
	PublicKey   = types.PublicKey
	Identity    = types.Identity
	Envelope    = types.Envelope
)

// Variants re-exported for callers that only import domain.
const (
	VariantConfidentiality = types.VariantConfidentiality
	VariantAuthenticity    = types.VariantAuthenticity
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyLookup = interfaces.KeyLookup
	Registry  = interfaces.Registry
	Decrypter = interfaces.Decrypter
	Signer    = interfaces.Signer
	Publisher = interfaces.Publisher
	Console   = interfaces.Console
)

package interfaces

import domaintypes "veilchat/internal/domain/types"

// KeyLookup resolves a username to its most recently registered public key.
type KeyLookup interface {
	Lookup(username domaintypes.Username) (domaintypes.PublicKey, bool)
}

// Registry is the local username to public key mapping.
type Registry interface {
	KeyLookup

	Register(username domaintypes.Username, key domaintypes.PublicKey)
	Seed(entries []domaintypes.Identity)
}

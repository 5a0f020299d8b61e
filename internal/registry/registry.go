package registry

import (
	"bytes"
	"slices"

	"veilchat/internal/domain"
)

// Registry maps usernames to their most recently registered public key.
type Registry struct {
	keys map[domain.Username]domain.PublicKey
}

// Ensure Registry satisfies the domain interface.
var _ domain.Registry = (*Registry)(nil)

// New returns an empty registry.
func New() *Registry {
	return &Registry{keys: make(map[domain.Username]domain.PublicKey)}
}

// Register inserts or overwrites the key for username.
func (r *Registry) Register(username domain.Username, key domain.PublicKey) {
	r.Put(username, key)
}

// Put is Register that also reports whether the stored key changed.
func (r *Registry) Put(username domain.Username, key domain.PublicKey) bool {
	prev, ok := r.keys[username]
	if ok && bytes.Equal(prev, key) {
		return false
	}
	r.keys[username] = bytes.Clone(key)
	return true
}

// Lookup returns the key registered for username.
func (r *Registry) Lookup(username domain.Username) (domain.PublicKey, bool) {
	k, ok := r.keys[username]
	return k, ok
}

// Seed applies entries in order, so a later duplicate wins.
func (r *Registry) Seed(entries []domain.Identity) {
	for _, e := range entries {
		r.Put(e.Username, e.PublicKey)
	}
}

// Len returns the number of distinct usernames known.
func (r *Registry) Len() int { return len(r.keys) }

// Usernames returns every known username in lexical order.
func (r *Registry) Usernames() []domain.Username {
	out := make([]domain.Username, 0, len(r.keys))
	for u := range r.keys {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

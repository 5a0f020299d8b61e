package app

import (
	"fmt"

	"veilchat/internal/config"
	"veilchat/internal/crypto"
	"veilchat/internal/domain"
	vlog "veilchat/internal/log"
	"veilchat/internal/registry"
)

// Wire bundles the dependencies a Client needs.
type Wire struct {
	Config   config.Client
	Variant  domain.Variant
	Log      *vlog.Backend
	Keys     *crypto.KeyPair
	Registry *registry.Registry
}

// NewWire constructs the dependency graph from cfg. It generates the key
// pair, which takes a noticeable moment for large moduli.
func NewWire(cfg *config.Config, backend *vlog.Backend) (*Wire, error) {
	keys, err := crypto.GenerateKeyPair(cfg.Client.KeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}
	backend.GetLogger("app").Debugf("generated %d-bit key %s", cfg.Client.KeyBits, keys.Fingerprint())

	return &Wire{
		Config:   cfg.Client,
		Variant:  cfg.ClientVariant(),
		Log:      backend,
		Keys:     keys,
		Registry: registry.New(),
	}, nil
}

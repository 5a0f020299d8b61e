// Package config provides the veilchat configuration.
//
// A Config is built in layers: built-in defaults, then an optional TOML file,
// then VEILCHAT_* environment variables (optionally seeded from a dotenv
// file), then command line flags. FixupAndValidate runs last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"veilchat/internal/crypto"
	"veilchat/internal/domain"
)

const (
	defaultRelayAddress    = "127.0.0.1:3000"
	defaultListenAddress   = "0.0.0.0:3000"
	defaultInstance        = "veilchat"
	defaultDiscoverTimeout = 5 * time.Second
	defaultDialTimeout     = 10 * time.Second
)

// Client configures the chat client.
type Client struct {
	// RelayAddress is the host:port of the relay. Ignored when Discover is
	// set and the address was not given explicitly.
	RelayAddress string `toml:"RelayAddress" env:"VEILCHAT_RELAY_ADDRESS" validate:"omitempty,hostname_port"`

	// Variant selects the confidentiality or authenticity pipeline.
	Variant string `toml:"Variant" env:"VEILCHAT_VARIANT" validate:"oneof=confidentiality authenticity"`

	// KeyBits is the RSA modulus size of the per-process key pair.
	KeyBits int `toml:"KeyBits" env:"VEILCHAT_KEY_BITS" validate:"gte=2048,lte=8192"`

	// Username, when set, is registered without prompting.
	Username string `toml:"Username" env:"VEILCHAT_USERNAME" validate:"omitempty,max=64"`

	// Discover finds the relay over mDNS instead of dialing RelayAddress.
	Discover bool `toml:"Discover" env:"VEILCHAT_DISCOVER"`

	// Instance restricts discovery to one advertised relay name.
	Instance string `toml:"Instance" env:"VEILCHAT_RELAY_INSTANCE"`

	DiscoverTimeout time.Duration `toml:"DiscoverTimeout" env:"VEILCHAT_DISCOVER_TIMEOUT" validate:"gt=0"`
	DialTimeout     time.Duration `toml:"DialTimeout" env:"VEILCHAT_DIAL_TIMEOUT" validate:"gt=0"`
}

// Relay configures the broadcast relay.
type Relay struct {
	// Address is the TCP listen address.
	Address string `toml:"Address" env:"VEILCHAT_LISTEN_ADDRESS" validate:"required,hostname_port"`

	// MetricsAddress, when set, serves Prometheus metrics over HTTP.
	MetricsAddress string `toml:"MetricsAddress" env:"VEILCHAT_METRICS_ADDRESS" validate:"omitempty,hostname_port"`

	// Advertise announces the relay over mDNS as Instance.
	Advertise bool   `toml:"Advertise" env:"VEILCHAT_ADVERTISE"`
	Instance  string `toml:"Instance" env:"VEILCHAT_INSTANCE" validate:"required_if=Advertise true"`
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool `toml:"Disable" env:"VEILCHAT_LOG_DISABLE"`

	// File specifies the log file, if omitted stderr will be used.
	File string `toml:"File" env:"VEILCHAT_LOG_FILE"`

	// Level specifies the log level. Empty selects the command's own
	// default.
	Level string `toml:"Level" env:"VEILCHAT_LOG_LEVEL" validate:"omitempty,oneof=ERROR WARNING NOTICE INFO DEBUG"`
}

// LevelOr returns the configured level, or def when none was set.
func (l Logging) LevelOr(def string) string {
	if l.Level == "" {
		return def
	}
	return l.Level
}

// Config is the top level configuration.
type Config struct {
	Client  Client  `toml:"Client"`
	Relay   Relay   `toml:"Relay"`
	Logging Logging `toml:"Logging"`
}

// Default returns a Config holding only built-in defaults.
func Default() *Config {
	return &Config{
		Client: Client{
			RelayAddress:    defaultRelayAddress,
			Variant:         domain.VariantConfidentiality.String(),
			KeyBits:         crypto.DefaultKeyBits,
			DiscoverTimeout: defaultDiscoverTimeout,
			DialTimeout:     defaultDialTimeout,
		},
		Relay: Relay{
			Address:  defaultListenAddress,
			Instance: defaultInstance,
		},
	}
}

// ClientVariant returns the configured variant as a domain value.
func (c *Config) ClientVariant() domain.Variant {
	return domain.Variant(c.Client.Variant)
}

// FixupAndValidate applies defaults to empty entries, normalises case and
// validates every section.
func (c *Config) FixupAndValidate() error {
	d := Default()
	if c.Client.Variant == "" {
		c.Client.Variant = d.Client.Variant
	}
	c.Client.Variant = strings.ToLower(c.Client.Variant)
	if c.Client.KeyBits == 0 {
		c.Client.KeyBits = d.Client.KeyBits
	}
	if c.Client.DiscoverTimeout == 0 {
		c.Client.DiscoverTimeout = d.Client.DiscoverTimeout
	}
	if c.Client.DialTimeout == 0 {
		c.Client.DialTimeout = d.Client.DialTimeout
	}
	if c.Relay.Address == "" {
		c.Relay.Address = d.Relay.Address
	}
	c.Logging.Level = strings.ToUpper(c.Logging.Level)

	return validationError(validator.New().Struct(c))
}

// validationError flattens validator errors into one readable error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s must satisfy %s", strings.TrimPrefix(fe.Namespace(), "Config."), fieldRule(fe)))
	}
	return fmt.Errorf("config: %s", strings.Join(parts, "; "))
}

func fieldRule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// ApplyEnv overrides fields from VEILCHAT_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := cleanenv.ReadEnv(c); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// LoadEnvFile exports the variables in a dotenv file into the process
// environment. Variables already set are left alone.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config. Sections and keys missing from b keep their defaults.
func Load(b []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown keys %v", undecoded)
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses, and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return Load(b)
}

package confidentiality

import (
	"errors"
	"fmt"

	"veilchat/internal/crypto"
	"veilchat/internal/domain"
)

// Unreadable replaces the text of a private line the local key cannot open.
const Unreadable = "Failed to decrypt message."

var (
	// ErrNoRecipientKey indicates the target has never registered a key.
	ErrNoRecipientKey = errors.New("no public key for recipient")
	// ErrBadRecipientKey indicates the target registered bytes that do not
	// parse as an RSA public key.
	ErrBadRecipientKey = errors.New("unusable public key for recipient")
	// ErrMessageTooLong indicates the line does not fit one OAEP block for the
	// target's key.
	ErrMessageTooLong = crypto.ErrMessageTooLong
)

// Disposition says how an inbound envelope should be rendered.
type Disposition int

const (
	// Plain is a public line shown as sent.
	Plain Disposition = iota
	// Decrypted is a private line for us that opened cleanly.
	Decrypted
	// Undecryptable is a private line for us that did not open.
	Undecryptable
	// Opaque is a private line for someone else, shown as ciphertext.
	Opaque
	// Suppressed is our own private line coming back from the relay.
	Suppressed
)

func (d Disposition) String() string {
	switch d {
	case Plain:
		return "plain"
	case Decrypted:
		return "decrypted"
	case Undecryptable:
		return "undecryptable"
	case Opaque:
		return "opaque"
	case Suppressed:
		return "suppressed"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// Inbound is an envelope after the pipeline has looked at it.
type Inbound struct {
	Sender      domain.Username
	Text        string
	Disposition Disposition
}

// Visible reports whether the line should reach the console at all.
func (in Inbound) Visible() bool { return in.Disposition != Suppressed }

// Service runs the confidentiality pipeline for one local participant.
type Service struct {
	keys domain.KeyLookup
	dec  domain.Decrypter
	self domain.Username
}

// New returns a Service that encrypts with keys from the registry and
// decrypts with dec on behalf of self.
func New(keys domain.KeyLookup, dec domain.Decrypter, self domain.Username) *Service {
	return &Service{keys: keys, dec: dec, self: self}
}

// Self returns the username the service opens messages for.
func (s *Service) Self() domain.Username { return s.self }

// Seal builds the outbound envelope for text. An empty target produces a
// public plaintext envelope. A target with no registered key is refused with
// ErrNoRecipientKey, and one whose key does not parse with ErrBadRecipientKey.
// Nothing is produced on refusal.
func (s *Service) Seal(text string, target domain.Username) (domain.Envelope, error) {
	if target == "" {
		return domain.Envelope{Sender: s.self, Payload: text}, nil
	}
	key, ok := s.keys.Lookup(target)
	if !ok {
		return domain.Envelope{}, fmt.Errorf("%w: %s", ErrNoRecipientKey, target)
	}

	pt := []byte(text)
	defer crypto.Wipe(pt)

	ct, err := crypto.Encrypt(key, pt)
	if errors.Is(err, crypto.ErrBadPublicKey) {
		return domain.Envelope{}, fmt.Errorf("%w: %s: %v", ErrBadRecipientKey, target, err)
	}
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("encrypt for %s: %w", target, err)
	}
	return domain.Envelope{Sender: s.self, Payload: ct, Recipient: target}, nil
}

// Open classifies env and, when it is addressed to us, decrypts it.
// Decryption failures never escape; they yield Unreadable.
func (s *Service) Open(env domain.Envelope) Inbound {
	in := Inbound{Sender: env.Sender, Text: env.Payload}
	switch {
	case !env.IsPrivate():
		in.Disposition = Plain
	case env.Sender == s.self:
		in.Disposition = Suppressed
		in.Text = ""
	case env.Recipient != s.self:
		in.Disposition = Opaque
	default:
		pt, err := s.dec.Decrypt(env.Payload)
		if err != nil {
			in.Disposition = Undecryptable
			in.Text = Unreadable
			return in
		}
		in.Disposition = Decrypted
		in.Text = string(pt)
		crypto.Wipe(pt)
	}
	return in
}

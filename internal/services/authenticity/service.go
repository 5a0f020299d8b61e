package authenticity

import (
	"fmt"

	"veilchat/internal/crypto"
	"veilchat/internal/domain"
)

// Verdict is the outcome of checking an inbound envelope.
type Verdict int

const (
	// Verified means the signature matches the claimed sender's key.
	Verified Verdict = iota
	// NoKey means the claimed sender has not registered a key.
	NoKey
	// Unsigned means the envelope carried no signature.
	Unsigned
	// Spoofed means the signature is malformed or made with another key.
	Spoofed
)

func (v Verdict) String() string {
	switch v {
	case Verified:
		return "verified"
	case NoKey:
		return "no-key"
	case Unsigned:
		return "unsigned"
	case Spoofed:
		return "spoofed"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Inbound is a checked envelope ready for display.
type Inbound struct {
	Sender  domain.Username
	Text    string
	Verdict Verdict
}

// Warning returns the line to show next to the message, or "" when the
// message verified.
func (in Inbound) Warning() string {
	switch in.Verdict {
	case NoKey:
		return fmt.Sprintf("No public key found for %s", in.Sender)
	case Unsigned:
		return fmt.Sprintf("%s sent a message without a signature", in.Sender)
	case Spoofed:
		return fmt.Sprintf("%s may be spoofed, signature does not match the registered key", in.Sender)
	default:
		return ""
	}
}

// Service runs the authenticity pipeline.
type Service struct {
	keys   domain.KeyLookup
	signer domain.Signer
}

// New returns a Service verifying against keys and signing with signer.
func New(keys domain.KeyLookup, signer domain.Signer) *Service {
	return &Service{keys: keys, signer: signer}
}

// Sign returns an envelope that claims to come from claimed and carries the
// local signature over text.
func (s *Service) Sign(claimed domain.Username, text string) (domain.Envelope, error) {
	sig, err := s.signer.Sign([]byte(text))
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("sign: %w", err)
	}
	return domain.Envelope{Sender: claimed, Payload: text, Signature: sig}, nil
}

// Own reports whether env is a line this client sent under the name it
// currently claims: the claim matches and the signature is ours.
func (s *Service) Own(claimed domain.Username, env domain.Envelope) bool {
	return env.Sender == claimed && env.IsSigned() &&
		crypto.Verify(s.signer.Public(), []byte(env.Payload), env.Signature)
}

// Verify checks env against the claimed sender's registered key.
func (s *Service) Verify(env domain.Envelope) Inbound {
	in := Inbound{Sender: env.Sender, Text: env.Payload}
	key, ok := s.keys.Lookup(env.Sender)
	switch {
	case !ok:
		in.Verdict = NoKey
	case !env.IsSigned():
		in.Verdict = Unsigned
	case !crypto.Verify(key, []byte(env.Payload), env.Signature):
		in.Verdict = Spoofed
	default:
		in.Verdict = Verified
	}
	return in
}

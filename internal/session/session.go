package session

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/op/go-logging.v1"

	"veilchat/internal/domain"
	"veilchat/internal/services/authenticity"
	"veilchat/internal/services/confidentiality"
)

// Session handles one client's traffic in steady state.
type Session interface {
	// HandleLine applies a typed line. A returned error wraps ErrPublish;
	// refusals and local failures are reported on the console instead.
	HandleLine(ctx context.Context, line string) error
	// HandleEnvelope renders an envelope received from the relay.
	HandleEnvelope(env domain.Envelope)
	// Variant reports which pipeline the session runs.
	Variant() domain.Variant
}

// ErrPublish marks a HandleLine failure caused by the relay connection.
var ErrPublish = errors.New("publish failed")

var (
	_ Session = (*ConfidentialSession)(nil)
	_ Session = (*AuthenticSession)(nil)
)

// ConfidentialSession runs the confidentiality variant.
type ConfidentialSession struct {
	svc  *confidentiality.Service
	pub  domain.Publisher
	out  domain.Console
	log  *logging.Logger
	mode ConfidentialMode
}

// NewConfidential returns a session in Public mode.
func NewConfidential(svc *confidentiality.Service, pub domain.Publisher, out domain.Console, log *logging.Logger) *ConfidentialSession {
	return &ConfidentialSession{svc: svc, pub: pub, out: out, log: log, mode: Public{}}
}

// Variant implements Session.
func (s *ConfidentialSession) Variant() domain.Variant { return domain.VariantConfidentiality }

// Mode returns the current mode.
func (s *ConfidentialSession) Mode() ConfidentialMode { return s.mode }

// HandleLine implements Session.
func (s *ConfidentialSession) HandleLine(ctx context.Context, line string) error {
	d := ParseDirective(domain.VariantConfidentiality, line)
	switch d.Kind {
	case Empty:
		return nil
	case EnterPrivate:
		s.mode = NextConfidential(s.mode, d)
		s.log.Debugf("mode: private to %s", d.Target)
		s.out.Notice("Now secretly chatting with %s", d.Target)
		return nil
	case ExitPrivate:
		prev := TargetOf(s.mode)
		s.mode = NextConfidential(s.mode, d)
		if prev == "" {
			s.out.Notice("You are not in a secret chat")
			return nil
		}
		s.log.Debug("mode: public")
		s.out.Notice("No more secretly chatting with %s", prev)
		return nil
	}

	target := TargetOf(s.mode)
	env, err := s.svc.Seal(d.Text, target)
	switch {
	case errors.Is(err, confidentiality.ErrNoRecipientKey):
		s.log.Noticef("send to %s refused: no key", target)
		s.out.Warn("Public key for %s not found.", target)
		return nil
	case errors.Is(err, confidentiality.ErrMessageTooLong):
		s.log.Noticef("send to %s refused: %d bytes is too long", target, len(d.Text))
		s.out.Warn("Message too long to encrypt for %s.", target)
		return nil
	case errors.Is(err, confidentiality.ErrBadRecipientKey):
		s.log.Noticef("send to %s refused: %v", target, err)
		s.out.Warn("Public key for %s is not a valid RSA key.", target)
		return nil
	case err != nil:
		s.log.Errorf("seal for %s: %v", target, err)
		s.out.Warn("Could not encrypt message for %s.", target)
		return nil
	}
	if err := s.pub.Publish(ctx, env); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

// HandleEnvelope implements Session.
func (s *ConfidentialSession) HandleEnvelope(env domain.Envelope) {
	in := s.svc.Open(env)
	s.log.Debugf("message from %s: %s", in.Sender, in.Disposition)
	switch in.Disposition {
	case confidentiality.Suppressed:
	case confidentiality.Undecryptable:
		s.out.Warn("%s: %s", in.Sender, in.Text)
	default:
		s.out.Chat(in.Sender, in.Text)
	}
}

// AuthenticSession runs the authenticity variant.
type AuthenticSession struct {
	svc        *authenticity.Service
	pub        domain.Publisher
	out        domain.Console
	log        *logging.Logger
	registered domain.Username
	mode       ClaimedIdentity
}

// NewAuthentic returns a session claiming the registered name.
func NewAuthentic(svc *authenticity.Service, registered domain.Username, pub domain.Publisher, out domain.Console, log *logging.Logger) *AuthenticSession {
	return &AuthenticSession{
		svc:        svc,
		pub:        pub,
		out:        out,
		log:        log,
		registered: registered,
		mode:       ClaimedIdentity{Name: registered},
	}
}

// Variant implements Session.
func (s *AuthenticSession) Variant() domain.Variant { return domain.VariantAuthenticity }

// Mode returns the current claimed identity.
func (s *AuthenticSession) Mode() ClaimedIdentity { return s.mode }

// HandleLine implements Session.
func (s *AuthenticSession) HandleLine(ctx context.Context, line string) error {
	d := ParseDirective(domain.VariantAuthenticity, line)
	switch d.Kind {
	case Empty:
		return nil
	case Impersonate:
		s.mode = NextClaimed(s.registered, s.mode, d)
		s.log.Debugf("claiming %s", s.mode.Name)
		s.out.Notice("Now impersonating as %s", s.mode.Name)
		return nil
	case ExitImpersonation:
		s.mode = NextClaimed(s.registered, s.mode, d)
		s.log.Debugf("claiming %s", s.mode.Name)
		s.out.Notice("Now you are %s", s.mode.Name)
		return nil
	}

	env, err := s.svc.Sign(s.mode.Name, d.Text)
	if err != nil {
		s.log.Errorf("sign as %s: %v", s.mode.Name, err)
		s.out.Warn("Could not sign message.")
		return nil
	}
	if err := s.pub.Publish(ctx, env); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

// HandleEnvelope implements Session. The client's own lines coming back
// from the relay are not shown again.
func (s *AuthenticSession) HandleEnvelope(env domain.Envelope) {
	if s.svc.Own(s.mode.Name, env) {
		return
	}
	in := s.svc.Verify(env)
	s.log.Debugf("message from %s: %s", in.Sender, in.Verdict)
	s.out.Chat(in.Sender, in.Text)
	if w := in.Warning(); w != "" {
		s.out.Warn("%s", w)
	}
}

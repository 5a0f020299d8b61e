package session_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/op/go-logging.v1"

	"veilchat/internal/crypto"
	"veilchat/internal/domain"
	vlog "veilchat/internal/log"
	"veilchat/internal/registry"
	"veilchat/internal/services/authenticity"
	"veilchat/internal/services/confidentiality"
	"veilchat/internal/session"
)

type recordingConsole struct {
	lines []string
}

func (c *recordingConsole) Chat(from domain.Username, text string) {
	c.lines = append(c.lines, fmt.Sprintf("%s: %s", from, text))
}

func (c *recordingConsole) Notice(format string, args ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func (c *recordingConsole) Warn(format string, args ...any) {
	c.lines = append(c.lines, "Warning: "+fmt.Sprintf(format, args...))
}

func (c *recordingConsole) warnings() int {
	n := 0
	for _, l := range c.lines {
		if strings.HasPrefix(l, "Warning: ") {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	sent []domain.Envelope
	err  error
}

func (p *recordingPublisher) Register(context.Context, domain.Identity) error { return p.err }

func (p *recordingPublisher) Publish(_ context.Context, env domain.Envelope) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, env)
	return nil
}

var (
	keysOnce sync.Once
	keys     [2]*crypto.KeyPair
	keysErr  error
)

func keyPairs(t *testing.T) (*crypto.KeyPair, *crypto.KeyPair) {
	t.Helper()
	keysOnce.Do(func() {
		for i := range keys {
			if keys[i], keysErr = crypto.GenerateKeyPair(crypto.DefaultKeyBits); keysErr != nil {
				return
			}
		}
	})
	require.NoError(t, keysErr)
	return keys[0], keys[1]
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	b, err := vlog.NewWriter(io.Discard, "DEBUG")
	require.NoError(t, err)
	return b.GetLogger("session_test")
}

func TestConfidentialSession_PrivateRoundTrip(t *testing.T) {
	a, b := keyPairs(t)
	reg := registry.New()
	reg.Register("alice", a.Public())
	reg.Register("bob", b.Public())

	pubA, outA := &recordingPublisher{}, &recordingConsole{}
	alice := session.NewConfidential(confidentiality.New(reg, a, "alice"), pubA, outA, testLogger(t))
	outB := &recordingConsole{}
	bob := session.NewConfidential(confidentiality.New(reg, b, "bob"), &recordingPublisher{}, outB, testLogger(t))

	ctx := context.Background()
	require.NoError(t, alice.HandleLine(ctx, "!secret bob"))
	require.Equal(t, session.PrivateTo{Target: "bob"}, alice.Mode())
	require.NoError(t, alice.HandleLine(ctx, "hello"))
	require.Len(t, pubA.sent, 1)

	env := pubA.sent[0]
	require.Equal(t, domain.Username("bob"), env.Recipient)

	alice.HandleEnvelope(env)
	bob.HandleEnvelope(env)

	require.Equal(t, []string{"Now secretly chatting with bob"}, outA.lines)
	require.Equal(t, []string{"alice: hello"}, outB.lines)

	require.NoError(t, alice.HandleLine(ctx, "!exit"))
	require.Equal(t, session.Public{}, alice.Mode())
	require.Equal(t, "No more secretly chatting with bob", outA.lines[len(outA.lines)-1])
}

func TestConfidentialSession_UnknownTargetNeverPublished(t *testing.T) {
	a, _ := keyPairs(t)
	reg := registry.New()
	reg.Register("alice", a.Public())

	pub, out := &recordingPublisher{}, &recordingConsole{}
	s := session.NewConfidential(confidentiality.New(reg, a, "alice"), pub, out, testLogger(t))

	ctx := context.Background()
	require.NoError(t, s.HandleLine(ctx, "!secret dave"))
	require.NoError(t, s.HandleLine(ctx, "are you there"))

	require.Empty(t, pub.sent)
	require.Equal(t, "Warning: Public key for dave not found.", out.lines[len(out.lines)-1])
}

func TestConfidentialSession_UnparsableKeyIsRefusedLocally(t *testing.T) {
	a, _ := keyPairs(t)
	reg := registry.New()
	reg.Register("alice", a.Public())
	reg.Register("mallory", domain.PublicKey("junk"))

	pub, out := &recordingPublisher{}, &recordingConsole{}
	s := session.NewConfidential(confidentiality.New(reg, a, "alice"), pub, out, testLogger(t))

	ctx := context.Background()
	require.NoError(t, s.HandleLine(ctx, "!secret mallory"))
	require.NoError(t, s.HandleLine(ctx, "hi"))

	require.Empty(t, pub.sent)
	require.Equal(t, []string{
		"Now secretly chatting with mallory",
		"Warning: Public key for mallory is not a valid RSA key.",
	}, out.lines)
	require.Equal(t, session.PrivateTo{Target: "mallory"}, s.Mode())
}

func TestConfidentialSession_ExitWhilePublic(t *testing.T) {
	a, _ := keyPairs(t)
	out := &recordingConsole{}
	s := session.NewConfidential(confidentiality.New(registry.New(), a, "alice"), &recordingPublisher{}, out, testLogger(t))

	require.NoError(t, s.HandleLine(context.Background(), "!exit"))
	require.Equal(t, []string{"You are not in a secret chat"}, out.lines)
}

func TestConfidentialSession_PublishErrorPropagates(t *testing.T) {
	a, _ := keyPairs(t)
	boom := errors.New("boom")
	s := session.NewConfidential(confidentiality.New(registry.New(), a, "alice"), &recordingPublisher{err: boom}, &recordingConsole{}, testLogger(t))

	err := s.HandleLine(context.Background(), "hi")
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, session.ErrPublish)
	require.NoError(t, s.HandleLine(context.Background(), "   "))
}

func TestConfidentialSession_UndecryptableWarns(t *testing.T) {
	_, b := keyPairs(t)
	out := &recordingConsole{}
	s := session.NewConfidential(confidentiality.New(registry.New(), b, "bob"), &recordingPublisher{}, out, testLogger(t))

	s.HandleEnvelope(domain.Envelope{Sender: "mallory", Payload: "garbage", Recipient: "bob"})
	require.Equal(t, []string{"Warning: mallory: Failed to decrypt message."}, out.lines)
}

func TestAuthenticSession_Impersonation(t *testing.T) {
	a, b := keyPairs(t)
	reg := registry.New()
	reg.Register("alice", a.Public())
	reg.Register("bob", b.Public())

	pubB, outB := &recordingPublisher{}, &recordingConsole{}
	bob := session.NewAuthentic(authenticity.New(reg, b), "bob", pubB, outB, testLogger(t))
	outA := &recordingConsole{}
	alice := session.NewAuthentic(authenticity.New(reg, a), "alice", &recordingPublisher{}, outA, testLogger(t))

	ctx := context.Background()
	require.NoError(t, bob.HandleLine(ctx, "!impersonate alice"))
	require.Equal(t, domain.Username("alice"), bob.Mode().Name)
	require.NoError(t, bob.HandleLine(ctx, "hi"))
	require.Len(t, pubB.sent, 1)

	spoof := pubB.sent[0]
	require.Equal(t, domain.Username("alice"), spoof.Sender)

	// bob's own line is not echoed back to him.
	bob.HandleEnvelope(spoof)
	require.Equal(t, []string{"Now impersonating as alice"}, outB.lines)

	// alice sees a line under her own name that she did not sign.
	alice.HandleEnvelope(spoof)
	require.Equal(t, []string{
		"alice: hi",
		"Warning: alice may be spoofed, signature does not match the registered key",
	}, outA.lines)

	// A third party sees the same line and exactly one warning.
	outC := &recordingConsole{}
	carol := session.NewAuthentic(authenticity.New(reg, a), "carol", &recordingPublisher{}, outC, testLogger(t))
	carol.HandleEnvelope(spoof)
	require.Equal(t, outA.lines, outC.lines)

	require.NoError(t, bob.HandleLine(ctx, "!exit"))
	require.Equal(t, "Now you are bob", outB.lines[len(outB.lines)-1])
	require.NoError(t, bob.HandleLine(ctx, "back"))
	carol.HandleEnvelope(pubB.sent[1])
	require.Equal(t, "bob: back", outC.lines[len(outC.lines)-1])
	require.Equal(t, 1, outC.warnings())
}

type brokenSigner struct{ *crypto.KeyPair }

func (brokenSigner) Sign([]byte) (string, error) { return "", errors.New("entropy exhausted") }

func TestAuthenticSession_SignFailureIsNotFatal(t *testing.T) {
	a, _ := keyPairs(t)
	signer := brokenSigner{KeyPair: a}
	pub, out := &recordingPublisher{}, &recordingConsole{}
	s := session.NewAuthentic(authenticity.New(registry.New(), signer), "alice", pub, out, testLogger(t))

	require.NoError(t, s.HandleLine(context.Background(), "hi"))
	require.Empty(t, pub.sent)
	require.Equal(t, []string{"Warning: Could not sign message."}, out.lines)
}

func TestAuthenticSession_UnregisteredSenderWarnsOnce(t *testing.T) {
	a, _ := keyPairs(t)
	out := &recordingConsole{}
	s := session.NewAuthentic(authenticity.New(registry.New(), a), "alice", &recordingPublisher{}, out, testLogger(t))

	s.HandleEnvelope(domain.Envelope{Sender: "ghost", Payload: "boo", Signature: "00"})
	require.Equal(t, []string{"ghost: boo", "Warning: No public key found for ghost"}, out.lines)
	require.Equal(t, 1, out.warnings())
}

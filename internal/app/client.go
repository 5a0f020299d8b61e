package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"gopkg.in/op/go-logging.v1"

	"veilchat/internal/crypto"
	"veilchat/internal/domain"
	"veilchat/internal/relay"
	"veilchat/internal/services/authenticity"
	"veilchat/internal/services/confidentiality"
	"veilchat/internal/session"
)

const usernamePrompt = "Enter your username: "

var (
	// ErrRelayDisconnected is returned by Run when the relay goes away.
	ErrRelayDisconnected = errors.New("relay disconnected")
	// ErrUnexpectedFrame is returned when the relay speaks out of turn.
	ErrUnexpectedFrame = errors.New("unexpected frame from relay")
)

// Terminal is the console a Client drives.
type Terminal interface {
	domain.Console

	// Prompt shows the input prompt.
	Prompt()
	// Ask shows a question whose answer is the next input line.
	Ask(question string)
	// Println prints a plain line.
	Println(s string)
	// Accepted notes that an input line was consumed.
	Accepted()
}

// Client is one chat participant.
type Client struct {
	w     *Wire
	term  Terminal
	lines <-chan string
	log   *logging.Logger

	phase atomic.Int32

	self    domain.Username
	session session.Session
}

// NewClient returns a client reading input from lines and rendering to term.
func NewClient(w *Wire, term Terminal, lines <-chan string) *Client {
	return &Client{
		w:     w,
		term:  term,
		lines: lines,
		log:   w.Log.GetLogger("client"),
	}
}

// Phase returns the current protocol phase. It is safe to call from any
// goroutine.
func (c *Client) Phase() Phase { return Phase(c.phase.Load()) }

func (c *Client) enter(p Phase) {
	prev := Phase(c.phase.Swap(int32(p)))
	c.log.Debugf("phase %s -> %s", prev, p)
}

// Run connects to the relay and runs the client until the input ends, ctx is
// cancelled, or the relay disconnects. The first two return nil; losing the
// relay returns ErrRelayDisconnected.
func (c *Client) Run(ctx context.Context) error {
	c.enter(Connecting)
	defer c.enter(Closed)

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	in := newInbox(conn)
	defer in.stop()

	c.enter(AwaitingSeed)
	seed, err := c.awaitSeed(ctx, in)
	if err != nil {
		return c.finish(err)
	}
	c.w.Registry.Seed(seed.Identities)
	c.log.Debugf("seeded %d users: %v", c.w.Registry.Len(), c.w.Registry.Usernames())
	c.term.Println(fmt.Sprintf("There are currently %d users in the chat", c.w.Registry.Len()))

	c.enter(PromptingIdentity)
	name, held, err := c.promptIdentity(ctx, in)
	if err != nil {
		return c.finish(err)
	}
	c.self = name
	c.session = c.newSession(conn)

	c.enter(Registering)
	if err := conn.Register(ctx, domain.Identity{Username: name, PublicKey: c.w.Keys.Public()}); err != nil {
		return c.finish(fmt.Errorf("%w: %v", ErrRelayDisconnected, err))
	}
	c.term.Notice("Welcome, %s to the chat", name)
	for _, env := range held {
		c.session.HandleEnvelope(env)
	}

	c.enter(Chatting)
	return c.finish(c.loop(ctx, in))
}

func (c *Client) connect(ctx context.Context) (*relay.Conn, error) {
	cfg := c.w.Config
	addr := cfg.RelayAddress
	if cfg.Discover {
		dctx, cancel := context.WithTimeout(ctx, cfg.DiscoverTimeout)
		found, err := relay.Discover(dctx, cfg.Instance)
		cancel()
		if err != nil {
			return nil, err
		}
		c.log.Noticef("discovered relay at %s", found)
		addr = found
	}

	dctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	return relay.Dial(dctx, addr, c.w.Log.GetLogger("relay"))
}

func (c *Client) awaitSeed(ctx context.Context, in *inbox) (*relay.Seed, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-in.errs:
		return nil, fmt.Errorf("%w: %v", ErrRelayDisconnected, err)
	case f := <-in.frames:
		if f.Seed == nil {
			return nil, fmt.Errorf("%w: %s before seed", ErrUnexpectedFrame, f.Kind())
		}
		return f.Seed, nil
	}
}

// promptIdentity asks for a username until a non-blank one is entered.
// Registrations arriving meanwhile are applied at once; messages are held
// until a session exists to render them.
func (c *Client) promptIdentity(ctx context.Context, in *inbox) (domain.Username, []domain.Envelope, error) {
	if preset := strings.TrimSpace(c.w.Config.Username); preset != "" {
		return domain.Username(preset), nil, nil
	}

	var held []domain.Envelope
	c.term.Ask(usernamePrompt)
	for {
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case err := <-in.errs:
			return "", nil, fmt.Errorf("%w: %v", ErrRelayDisconnected, err)
		case f := <-in.frames:
			switch {
			case f.Register != nil:
				c.applyRegistration(*f.Register)
			case f.Message != nil:
				held = append(held, *f.Message)
			}
		case line, ok := <-c.lines:
			if !ok {
				return "", nil, errInputClosed
			}
			c.term.Accepted()
			if name := strings.TrimSpace(line); name != "" {
				return domain.Username(name), held, nil
			}
			c.term.Ask(usernamePrompt)
		}
	}
}

func (c *Client) newSession(pub domain.Publisher) session.Session {
	log := c.w.Log.GetLogger("session")
	if c.w.Variant == domain.VariantAuthenticity {
		svc := authenticity.New(c.w.Registry, c.w.Keys)
		return session.NewAuthentic(svc, c.self, pub, c.term, log)
	}
	svc := confidentiality.New(c.w.Registry, c.w.Keys, c.self)
	return session.NewConfidential(svc, pub, c.term, log)
}

func (c *Client) loop(ctx context.Context, in *inbox) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-in.errs:
			return fmt.Errorf("%w: %v", ErrRelayDisconnected, err)
		case f := <-in.frames:
			c.handleFrame(f)
		case line, ok := <-c.lines:
			if !ok {
				return errInputClosed
			}
			c.term.Accepted()
			if err := c.session.HandleLine(ctx, line); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, session.ErrPublish) {
					return fmt.Errorf("%w: %v", ErrRelayDisconnected, err)
				}
				return err
			}
			c.term.Prompt()
		}
	}
}

func (c *Client) handleFrame(f *relay.Frame) {
	switch {
	case f.Register != nil:
		c.applyRegistration(*f.Register)
	case f.Message != nil:
		c.session.HandleEnvelope(*f.Message)
	default:
		c.log.Warningf("ignoring %s frame", f.Kind())
	}
}

func (c *Client) applyRegistration(id domain.Identity) {
	_, known := c.w.Registry.Lookup(id.Username)
	if !c.w.Registry.Put(id.Username, id.PublicKey) {
		c.log.Debugf("repeat registration for %s", id.Username)
		return
	}

	fp := crypto.Fingerprint(id.PublicKey)
	if known {
		c.term.Warn("%s registered a new public key (%s)", id.Username, fp)
		return
	}
	c.term.Notice("%s joined the chat (%s)", id.Username, fp)
}

var errInputClosed = errors.New("input closed")

// finish prints the closing line for err and maps the ways a session can end
// normally to nil.
func (c *Client) finish(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRelayDisconnected):
		c.log.Infof("%v", err)
		c.term.Println("Server disconnected, Exiting...")
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, errInputClosed):
		c.term.Println("Exiting...")
		return nil
	default:
		return err
	}
}

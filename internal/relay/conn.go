package relay

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"gopkg.in/op/go-logging.v1"

	"veilchat/internal/domain"
)

// Conn is a client connection to a relay.
type Conn struct {
	conn net.Conn
	log  *logging.Logger

	wmu sync.Mutex
}

var _ domain.Publisher = (*Conn)(nil)

// Dial connects to the relay at addr.
func Dial(ctx context.Context, addr string, log *logging.Logger) (*Conn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", addr, err)
	}
	log.Debugf("connected to relay %s", c.RemoteAddr())
	return NewConn(c, log), nil
}

// NewConn wraps an established stream.
func NewConn(c net.Conn, log *logging.Logger) *Conn {
	return &Conn{conn: c, log: log}
}

// Register announces identity to every relay peer.
func (c *Conn) Register(ctx context.Context, identity domain.Identity) error {
	return c.send(ctx, &Frame{Register: &identity})
}

// Publish sends env to every relay peer.
func (c *Conn) Publish(ctx context.Context, env domain.Envelope) error {
	return c.send(ctx, &Frame{Message: &env})
}

func (c *Conn) send(ctx context.Context, f *Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(dl)
		defer func() { _ = c.conn.SetWriteDeadline(time.Time{}) }()
	}
	if err := WriteFrame(c.conn, f); err != nil {
		return fmt.Errorf("send %s: %w", f.Kind(), err)
	}
	c.log.Debugf("sent %s frame", f.Kind())
	return nil
}

// Receive blocks for the next frame. It returns io.EOF when the relay closes
// the connection cleanly. Only one goroutine may call Receive.
func (c *Conn) Receive() (*Frame, error) {
	return ReadFrame(c.conn)
}

// Close closes the connection, unblocking Receive.
func (c *Conn) Close() error {
	return c.conn.Close()
}

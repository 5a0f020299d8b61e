package relay_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gopkg.in/op/go-logging.v1"

	"veilchat/internal/domain"
	vlog "veilchat/internal/log"
	"veilchat/internal/relay"
)

func testLogger(t *testing.T, module string) *logging.Logger {
	t.Helper()
	b, err := vlog.NewWriter(io.Discard, "DEBUG")
	require.NoError(t, err)
	return b.GetLogger(module)
}

// startRelay runs a relay on a loopback port for the duration of the test.
func startRelay(t *testing.T, m *relay.Metrics) (*relay.Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := relay.NewServer(testLogger(t, "relay"), m)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return srv, ln.Addr().String()
}

func dial(t *testing.T, addr string) *relay.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := relay.Dial(ctx, addr, testLogger(t, "conn"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func receive(t *testing.T, c *relay.Conn) *relay.Frame {
	t.Helper()
	type result struct {
		f   *relay.Frame
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := c.Receive()
		ch <- result{f, err}
	}()
	select {
	case r := <-ch:
		require.NoError(t, r.err)
		return r.f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestServer_BroadcastIncludesSender(t *testing.T) {
	_, addr := startRelay(t, nil)
	ctx := context.Background()

	alice := dial(t, addr)
	require.NotNil(t, receive(t, alice).Seed)
	bob := dial(t, addr)
	require.NotNil(t, receive(t, bob).Seed)

	id := domain.Identity{Username: "alice", PublicKey: domain.PublicKey("ka")}
	require.NoError(t, alice.Register(ctx, id))
	require.Equal(t, &id, receive(t, alice).Register)
	require.Equal(t, &id, receive(t, bob).Register)

	env := domain.Envelope{Sender: "alice", Payload: "hi"}
	require.NoError(t, alice.Publish(ctx, env))
	require.Equal(t, &env, receive(t, alice).Message)
	require.Equal(t, &env, receive(t, bob).Message)
}

func TestServer_SeedOrderAndLastWriteWins(t *testing.T) {
	srv, addr := startRelay(t, nil)
	ctx := context.Background()

	c := dial(t, addr)
	receive(t, c)
	for _, id := range []domain.Identity{
		{Username: "bob", PublicKey: domain.PublicKey("b1")},
		{Username: "alice", PublicKey: domain.PublicKey("a1")},
		{Username: "bob", PublicKey: domain.PublicKey("b2")},
	} {
		require.NoError(t, c.Register(ctx, id))
		receive(t, c)
	}

	want := []domain.Identity{
		{Username: "bob", PublicKey: domain.PublicKey("b2")},
		{Username: "alice", PublicKey: domain.PublicKey("a1")},
	}
	require.Equal(t, want, srv.Registrations())

	late := dial(t, addr)
	seed := receive(t, late).Seed
	require.NotNil(t, seed)
	require.Equal(t, want, seed.Identities)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := relay.NewMetrics(reg)
	require.NoError(t, err)

	srv, addr := startRelay(t, m)
	ctx := context.Background()

	c := dial(t, addr)
	receive(t, c)
	require.NoError(t, c.Register(ctx, domain.Identity{Username: "alice", PublicKey: domain.PublicKey("k")}))
	receive(t, c)
	require.NoError(t, c.Publish(ctx, domain.Envelope{Sender: "alice", Payload: "x"}))
	receive(t, c)

	require.Equal(t, 1, srv.Peers())
	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[mf.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[mf.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	require.Equal(t, map[string]float64{
		"veilchat_relay_connected_clients":   1,
		"veilchat_relay_registrations_total": 1,
		"veilchat_relay_messages_total":      1,
		"veilchat_relay_dropped_peers_total": 0,
	}, values)

	_, err = relay.NewMetrics(reg)
	require.Error(t, err, "registering twice must fail")
}

func TestConn_PublishHonoursCancelledContext(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	c := relay.NewConn(a, testLogger(t, "conn"))
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Publish(ctx, domain.Envelope{Sender: "a", Payload: "x"}), context.Canceled)
}

func TestConn_ReceiveEOFOnClose(t *testing.T) {
	a, b := net.Pipe()
	c := relay.NewConn(a, testLogger(t, "conn"))
	defer c.Close()

	require.NoError(t, b.Close())
	_, err := c.Receive()
	require.ErrorIs(t, err, io.EOF)
}

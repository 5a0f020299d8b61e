package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceName is the mDNS service type relays advertise.
	ServiceName = "_veilchat._tcp"
	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."
)

// ErrNoRelayFound is returned when discovery times out without an answer.
var ErrNoRelayFound = errors.New("no relay found on the local network")

// Advertisement is a running mDNS announcement.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise announces a relay listening on port under the given instance
// name. Call Shutdown on the result to withdraw it.
func Advertise(instance string, port int) (*Advertisement, error) {
	srv, err := zeroconf.Register(instance, ServiceName, ServiceDomain, port, []string{"proto=cbor", "v=1"}, nil)
	if err != nil {
		return nil, fmt.Errorf("could not register mDNS service: %w", err)
	}
	return &Advertisement{server: srv}, nil
}

// Shutdown withdraws the announcement.
func (a *Advertisement) Shutdown() {
	a.server.Shutdown()
}

// Discover browses for relays until ctx is done and returns the address of
// the first one found. A non-empty instance restricts the search to that name.
func Discover(ctx context.Context, instance string) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("failed to initialize mDNS resolver: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, ServiceName, ServiceDomain, entries); err != nil {
		return "", fmt.Errorf("failed to browse for relays: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ErrNoRelayFound
		case entry, ok := <-entries:
			if !ok {
				return "", ErrNoRelayFound
			}
			if instance != "" && entry.Instance != instance {
				continue
			}
			if addr := entryAddr(entry); addr != "" {
				return addr, nil
			}
		}
	}
}

// entryAddr picks a dialable address, preferring global IPv4.
func entryAddr(e *zeroconf.ServiceEntry) string {
	port := strconv.Itoa(e.Port)
	var fallback net.IP
	for _, ip := range e.AddrIPv4 {
		if ip.IsGlobalUnicast() && !ip.IsLoopback() {
			return net.JoinHostPort(ip.String(), port)
		}
		if fallback == nil {
			fallback = ip
		}
	}
	if fallback == nil && len(e.AddrIPv6) > 0 {
		fallback = e.AddrIPv6[0]
	}
	if fallback == nil {
		return ""
	}
	return net.JoinHostPort(fallback.String(), port)
}

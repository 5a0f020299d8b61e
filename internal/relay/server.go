package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"gopkg.in/op/go-logging.v1"

	"veilchat/internal/domain"
)

const (
	// peerQueueLen is how many frames may wait for a slow peer before it is
	// dropped.
	peerQueueLen = 256
	writeTimeout = 10 * time.Second
)

// Server is an in-memory broadcast relay.
type Server struct {
	log     *logging.Logger
	metrics *Metrics

	mu    sync.Mutex
	order []domain.Username
	keys  map[domain.Username]domain.PublicKey
	peers map[*peer]struct{}
	done  bool

	wg sync.WaitGroup
}

// NewServer returns a relay with no registrations. metrics may be nil.
func NewServer(log *logging.Logger, metrics *Metrics) *Server {
	return &Server{
		log:     log,
		metrics: metrics,
		keys:    make(map[domain.Username]domain.PublicKey),
		peers:   make(map[*peer]struct{}),
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then disconnects
// every peer and returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Noticef("relay listening on %s", ln.Addr())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			s.closeAll()
			s.wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go s.handle(c)
	}
}

// Registrations returns the current registrations in first-seen order.
func (s *Server) Registrations() []domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Peers returns the number of connected peers.
func (s *Server) Peers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

func (s *Server) snapshotLocked() []domain.Identity {
	out := make([]domain.Identity, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, domain.Identity{Username: u, PublicKey: s.keys[u]})
	}
	return out
}

func (s *Server) handle(c net.Conn) {
	defer s.wg.Done()
	p := newPeer(c)

	// The seed is queued under the lock so that no registration broadcast
	// can slip in ahead of it.
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		_ = c.Close()
		return
	}
	seed, err := encodeFrame(&Frame{Seed: &Seed{Identities: s.snapshotLocked()}})
	if err != nil {
		s.mu.Unlock()
		s.log.Errorf("encode seed: %v", err)
		_ = c.Close()
		return
	}
	p.out <- seed
	s.peers[p] = struct{}{}
	s.metrics.peerUp()
	s.mu.Unlock()

	s.log.Infof("client %s connected", c.RemoteAddr())

	go p.writeLoop(s.log)
	defer s.remove(p)

	for {
		f, err := ReadFrame(c)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Infof("client %s: %v", c.RemoteAddr(), err)
			}
			return
		}
		switch {
		case f.Register != nil:
			s.register(*f.Register)
		case f.Message != nil:
			s.metrics.relayed()
			s.broadcast(f)
		default:
			s.log.Warningf("client %s sent a %s frame, ignoring", c.RemoteAddr(), f.Kind())
		}
	}
}

// register stores id and rebroadcasts it under one lock, so every peer sees
// registrations in the order the relay applied them.
func (s *Server) register(id domain.Identity) {
	b, err := encodeFrame(&Frame{Register: &id})
	if err != nil {
		s.log.Errorf("encode register: %v", err)
		return
	}

	s.metrics.registered()
	s.mu.Lock()
	if _, ok := s.keys[id.Username]; !ok {
		s.order = append(s.order, id.Username)
	}
	s.keys[id.Username] = id.PublicKey
	s.broadcastLocked(b)
	s.mu.Unlock()

	s.log.Noticef("%s registered with public key", id.Username)
}

func (s *Server) broadcast(f *Frame) {
	b, err := encodeFrame(f)
	if err != nil {
		s.log.Errorf("encode %s: %v", f.Kind(), err)
		return
	}
	s.mu.Lock()
	s.broadcastLocked(b)
	s.mu.Unlock()
}

func (s *Server) broadcastLocked(b []byte) {
	for p := range s.peers {
		select {
		case p.out <- b:
		default:
			s.log.Warningf("client %s is too slow, dropping", p.conn.RemoteAddr())
			delete(s.peers, p)
			p.close()
			s.metrics.droppedPeer()
			s.metrics.peerDown()
		}
	}
}

func (s *Server) remove(p *peer) {
	s.mu.Lock()
	_, ok := s.peers[p]
	delete(s.peers, p)
	s.mu.Unlock()

	p.close()
	if ok {
		s.metrics.peerDown()
		s.log.Infof("client %s disconnected", p.conn.RemoteAddr())
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	for p := range s.peers {
		p.close()
	}
}

type peer struct {
	conn net.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newPeer(c net.Conn) *peer {
	return &peer{
		conn: c,
		out:  make(chan []byte, peerQueueLen),
		done: make(chan struct{}),
	}
}

func (p *peer) writeLoop(log *logging.Logger) {
	for {
		select {
		case <-p.done:
			return
		case b := <-p.out:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := p.conn.Write(b); err != nil {
				log.Debugf("write to %s: %v", p.conn.RemoteAddr(), err)
				p.close()
				return
			}
		}
	}
}

func (p *peer) close() {
	p.once.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}

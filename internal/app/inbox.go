package app

import "veilchat/internal/relay"

// inbox pumps frames off a relay connection so the client loop can select
// on them alongside typed input.
type inbox struct {
	frames chan *relay.Frame
	errs   chan error
	done   chan struct{}
}

func newInbox(conn *relay.Conn) *inbox {
	in := &inbox{
		frames: make(chan *relay.Frame),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go in.pump(conn)
	return in
}

func (in *inbox) pump(conn *relay.Conn) {
	for {
		f, err := conn.Receive()
		if err != nil {
			in.errs <- err
			return
		}
		select {
		case in.frames <- f:
		case <-in.done:
			return
		}
	}
}

// stop releases the pump. The connection must be closed as well to unblock
// a pending Receive.
func (in *inbox) stop() {
	close(in.done)
}

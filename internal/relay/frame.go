package relay

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"veilchat/internal/domain"
)

const (
	// MaxFrameSize bounds the CBOR body of a single frame.
	MaxFrameSize = 1 << 20

	framePrefixLen = 4
)

var (
	// ErrFrameTooLarge is returned for frames whose declared length exceeds
	// MaxFrameSize.
	ErrFrameTooLarge = errors.New("relay: frame too large")
	// ErrBadFrame is returned for frames that do not carry exactly one event.
	ErrBadFrame = errors.New("relay: frame must carry exactly one event")
)

// Seed is the registration snapshot sent to a newly connected client.
type Seed struct {
	Identities []domain.Identity `cbor:"identities"`
}

// Frame is one relay event. Exactly one field is set.
type Frame struct {
	Seed     *Seed            `cbor:"seed,omitempty"`
	Register *domain.Identity `cbor:"register,omitempty"`
	Message  *domain.Envelope `cbor:"message,omitempty"`
}

// Kind names the event carried by f, for logging.
func (f *Frame) Kind() string {
	switch {
	case f.Seed != nil:
		return "seed"
	case f.Register != nil:
		return "register"
	case f.Message != nil:
		return "message"
	default:
		return "empty"
	}
}

// Validate checks that f carries exactly one event.
func (f *Frame) Validate() error {
	n := 0
	if f.Seed != nil {
		n++
	}
	if f.Register != nil {
		n++
	}
	if f.Message != nil {
		n++
	}
	if n != 1 {
		return ErrBadFrame
	}
	return nil
}

// encodeFrame returns the length-prefixed wire form of f.
func encodeFrame(f *Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	blob, err := cbor.Marshal(f)
	if err != nil {
		return nil, err
	}
	if len(blob) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(blob))
	}
	out := make([]byte, framePrefixLen, framePrefixLen+len(blob))
	binary.BigEndian.PutUint32(out, uint32(len(blob)))
	return append(out, blob...), nil
}

// WriteFrame writes f to w in a single Write call.
func WriteFrame(w io.Writer, f *Frame) error {
	b, err := encodeFrame(f)
	if err != nil {
		return err
	}
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("relay: short write: %d != %d", n, len(b))
	}
	return nil
}

// ReadFrame reads one frame from r. A clean end of stream before the prefix
// is returned as io.EOF.
func ReadFrame(r io.Reader) (*Frame, error) {
	var prefix [framePrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	blob := make([]byte, size)
	if _, err := io.ReadFull(r, blob); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	f := new(Frame)
	if err := cbor.Unmarshal(blob, f); err != nil {
		return nil, fmt.Errorf("relay: decode frame: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

package console

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
)

// LineReader turns an input stream into a channel of lines.
type LineReader struct {
	lines chan string
	done  chan struct{}
	once  sync.Once

	mu  sync.Mutex
	err error
}

// NewLineReader starts reading r in a background goroutine. The channel
// returned by Lines closes on EOF, on a read error, or after Stop.
func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{
		lines: make(chan string),
		done:  make(chan struct{}),
	}
	go lr.run(r)
	return lr
}

// run delivers lines of any length.
func (lr *LineReader) run(r io.Reader) {
	defer close(lr.lines)
	br := bufio.NewReader(r)
	for {
		s, err := br.ReadString('\n')
		if s != "" && !lr.send(strings.TrimRight(s, "\r\n")) {
			return
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				lr.mu.Lock()
				lr.err = err
				lr.mu.Unlock()
			}
			return
		}
	}
}

func (lr *LineReader) send(line string) bool {
	select {
	case <-lr.done:
		return false
	default:
	}
	select {
	case lr.lines <- line:
		return true
	case <-lr.done:
		return false
	}
}

// Lines returns the line channel.
func (lr *LineReader) Lines() <-chan string { return lr.lines }

// Err returns the read error that closed Lines, or nil on EOF.
func (lr *LineReader) Err() error {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.err
}

// Stop makes the reader goroutine exit at its next line. A read blocked in
// the underlying stream is not interrupted.
func (lr *LineReader) Stop() {
	lr.once.Do(func() { close(lr.done) })
}

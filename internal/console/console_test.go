package console_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"veilchat/internal/console"
)

// plain drops the cursor control written before each redraw. On a non-TTY
// writer the escape sequence is already stripped and only the CR remains.
func plain(s string) string {
	return strings.NewReplacer("\x1b[2K", "", "\r", "").Replace(s)
}

func TestTerminal_LinesRedrawPrompt(t *testing.T) {
	var buf bytes.Buffer
	term := console.New(&buf)

	term.Chat("alice", "hello")
	term.Notice("%s joined the chat", "bob")
	term.Warn("No public key found for %s", "eve")

	require.Equal(t,
		"alice: hello\n> bob joined the chat\n> Warning: No public key found for eve\n> ",
		plain(buf.String()))
}

func TestTerminal_PromptOnce(t *testing.T) {
	var buf bytes.Buffer
	term := console.New(&buf)

	term.Prompt()
	term.Prompt()
	require.Equal(t, "> ", buf.String())

	term.Accepted()
	term.Prompt()
	require.Equal(t, "> > ", buf.String())
}

func TestTerminal_Ask(t *testing.T) {
	var buf bytes.Buffer
	term := console.New(&buf)

	term.Println("There are currently 0 users in the chat")
	term.Ask("Enter your username: ")
	require.Equal(t, "There are currently 0 users in the chat\nEnter your username: ", plain(buf.String()))
}

func TestTerminal_NoticeKeepsOpenQuestion(t *testing.T) {
	var buf bytes.Buffer
	term := console.New(&buf)

	term.Ask("Enter your username: ")
	term.Notice("%s joined the chat", "bob")
	require.Equal(t, "Enter your username: bob joined the chat\nEnter your username: ", plain(buf.String()))

	term.Accepted()
	buf.Reset()
	term.Notice("Welcome, %s to the chat", "alice")
	require.Equal(t, "Welcome, alice to the chat\n> ", plain(buf.String()))
}

func TestLineReader(t *testing.T) {
	lr := console.NewLineReader(strings.NewReader("one\r\ntwo\n\nthree"))

	var got []string
	for l := range lr.Lines() {
		got = append(got, l)
	}
	require.Equal(t, []string{"one", "two", "", "three"}, got)
	require.NoError(t, lr.Err())
}

func TestLineReader_LongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	lr := console.NewLineReader(strings.NewReader(long + "\nnext\n"))

	var got []string
	for l := range lr.Lines() {
		got = append(got, l)
	}
	require.Equal(t, []string{long, "next"}, got)
	require.NoError(t, lr.Err())
}

func TestLineReader_Stop(t *testing.T) {
	pr, pw := io.Pipe()
	lr := console.NewLineReader(pr)

	go func() {
		_, _ = io.WriteString(pw, "a\nb\nc\n")
		_ = pw.Close()
	}()
	require.Equal(t, "a", <-lr.Lines())

	lr.Stop()
	n := 0
	for range lr.Lines() {
		n++
	}
	require.LessOrEqual(t, n, 1, "at most the line already in flight is delivered after Stop")
}

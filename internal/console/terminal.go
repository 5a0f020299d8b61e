package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"

	"veilchat/internal/domain"
)

// PromptText is printed whenever the client is ready for the next line.
const PromptText = "> "

// clearLine returns the cursor to column zero and erases a pending prompt.
const clearLine = "\r\x1b[2K"

var (
	senderStyle = lipgloss.NewStyle().Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// Terminal writes chat output for one local user.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	pending bool
	// prompt is redrawn after every line: PromptText, or the open question.
	prompt  string
}

var _ domain.Console = (*Terminal)(nil)

// New returns a Terminal writing to w. Colour is downsampled to what the
// environment supports, and stripped entirely when w is not a TTY.
func New(w io.Writer) *Terminal {
	return &Terminal{out: colorprofile.NewWriter(w, os.Environ()), prompt: PromptText}
}

// Chat prints "from: text".
func (t *Terminal) Chat(from domain.Username, text string) {
	t.line(senderStyle.Render(from.String()+":") + " " + text)
}

// Notice prints an informational line.
func (t *Terminal) Notice(format string, args ...any) {
	t.line(noticeStyle.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a line prefixed with "Warning: ".
func (t *Terminal) Warn(format string, args ...any) {
	t.line(warnStyle.Render("Warning:") + " " + fmt.Sprintf(format, args...))
}

// Prompt shows the input prompt if it is not already showing.
func (t *Terminal) Prompt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending {
		return
	}
	t.prompt = PromptText
	_, _ = io.WriteString(t.out, t.prompt)
	t.pending = true
}

// Ask prints question without a trailing newline. The answer arrives as the
// next input line.
func (t *Terminal) Ask(question string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clear()
	t.prompt = question
	_, _ = io.WriteString(t.out, question)
	t.pending = true
}

// Println prints an unstyled line and does not redraw the prompt.
func (t *Terminal) Println(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clear()
	_, _ = io.WriteString(t.out, s+"\n")
}

// Accepted records that the user submitted a line, which consumed the prompt.
func (t *Terminal) Accepted() {
	t.mu.Lock()
	t.pending = false
	t.prompt = PromptText
	t.mu.Unlock()
}

// line writes s on its own line and redraws the current prompt after it.
func (t *Terminal) line(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clear()
	_, _ = io.WriteString(t.out, s+"\n"+t.prompt)
	t.pending = true
}

func (t *Terminal) clear() {
	if t.pending {
		_, _ = io.WriteString(t.out, clearLine)
		t.pending = false
	}
}

// Package console is the chat client's terminal: it renders chat lines,
// notices and warnings to an output stream and feeds typed lines back to the
// client as a channel.
//
// Output is passed through a colorprofile writer, so styling degrades to
// plain text when stdout is not a terminal.
package console

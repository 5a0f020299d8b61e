package interfaces

import domaintypes "veilchat/internal/domain/types"

// Console renders chat output for the local user.
type Console interface {
	// Chat prints a line attributed to from.
	Chat(from domaintypes.Username, text string)
	// Notice prints an informational line.
	Notice(format string, args ...any)
	// Warn prints a warning line.
	Warn(format string, args ...any)
}

package session

import (
	"fmt"
	"regexp"
	"strings"

	"veilchat/internal/domain"
)

// Kind classifies an input line.
type Kind int

const (
	// Empty is a blank or whitespace-only line. It is ignored.
	Empty Kind = iota
	// Say is an ordinary chat line.
	Say
	// EnterPrivate is "!secret <name>".
	EnterPrivate
	// ExitPrivate is "!exit" in the confidentiality variant.
	ExitPrivate
	// Impersonate is "!impersonate <name>".
	Impersonate
	// ExitImpersonation is "!exit" in the authenticity variant.
	ExitImpersonation
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Say:
		return "say"
	case EnterPrivate:
		return "enter-private"
	case ExitPrivate:
		return "exit-private"
	case Impersonate:
		return "impersonate"
	case ExitImpersonation:
		return "exit-impersonation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Directive is a parsed input line.
type Directive struct {
	Kind Kind
	// Target is the name given to !secret or !impersonate.
	Target domain.Username
	// Text is the line to send for Say.
	Text string
}

var (
	secretRe      = regexp.MustCompile(`^!secret (\w+)$`)
	impersonateRe = regexp.MustCompile(`^!impersonate (\w+)$`)
	exitRe        = regexp.MustCompile(`^!exit$`)
)

// ParseDirective classifies line for the given variant. Only the variant's
// own commands are recognised; the other variant's commands are chat text.
func ParseDirective(v domain.Variant, line string) Directive {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Directive{Kind: Empty}
	}

	switch v {
	case domain.VariantConfidentiality:
		if m := secretRe.FindStringSubmatch(line); m != nil {
			return Directive{Kind: EnterPrivate, Target: domain.Username(m[1])}
		}
		if exitRe.MatchString(line) {
			return Directive{Kind: ExitPrivate}
		}
	case domain.VariantAuthenticity:
		if m := impersonateRe.FindStringSubmatch(line); m != nil {
			return Directive{Kind: Impersonate, Target: domain.Username(m[1])}
		}
		if exitRe.MatchString(line) {
			return Directive{Kind: ExitImpersonation}
		}
	}
	return Directive{Kind: Say, Text: line}
}

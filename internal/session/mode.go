package session

import "veilchat/internal/domain"

// ConfidentialMode is the confidentiality session state: Public or
// PrivateTo.
type ConfidentialMode interface {
	confidentialMode()
}

// Public sends lines in the clear to everyone.
type Public struct{}

// PrivateTo encrypts every line to Target.
type PrivateTo struct {
	Target domain.Username
}

func (Public) confidentialMode()    {}
func (PrivateTo) confidentialMode() {}

// TargetOf returns the private target of m, or "" when m is Public.
func TargetOf(m ConfidentialMode) domain.Username {
	if p, ok := m.(PrivateTo); ok {
		return p.Target
	}
	return ""
}

// NextConfidential applies d to cur. Entering a private target does not
// check whether the target has a key; that is decided per send.
func NextConfidential(cur ConfidentialMode, d Directive) ConfidentialMode {
	switch d.Kind {
	case EnterPrivate:
		return PrivateTo{Target: d.Target}
	case ExitPrivate:
		return Public{}
	default:
		return cur
	}
}

// ClaimedIdentity is the authenticity session state: the name outgoing lines
// claim to come from.
type ClaimedIdentity struct {
	Name domain.Username
}

// NextClaimed applies d to cur. Exiting returns to the registered name.
func NextClaimed(registered domain.Username, cur ClaimedIdentity, d Directive) ClaimedIdentity {
	switch d.Kind {
	case Impersonate:
		return ClaimedIdentity{Name: d.Target}
	case ExitImpersonation:
		return ClaimedIdentity{Name: registered}
	default:
		return cur
	}
}

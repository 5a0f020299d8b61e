package app

import "fmt"

// Phase is a step of the client protocol. Phases only move forward.
type Phase int32

const (
	Connecting Phase = iota
	AwaitingSeed
	PromptingIdentity
	Registering
	Chatting
	Closed
)

func (p Phase) String() string {
	switch p {
	case Connecting:
		return "connecting"
	case AwaitingSeed:
		return "awaiting-seed"
	case PromptingIdentity:
		return "prompting-identity"
	case Registering:
		return "registering"
	case Chatting:
		return "chatting"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

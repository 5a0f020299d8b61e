package interfaces

import (
	"context"

	domaintypes "veilchat/internal/domain/types"
)

// Publisher is the outbound half of the relay connection.
type Publisher interface {
	Register(ctx context.Context, identity domaintypes.Identity) error
	Publish(ctx context.Context, envelope domaintypes.Envelope) error
}

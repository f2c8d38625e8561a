package storage

import (
	"context"
	"errors"

	"github.com/jwebster45206/npc-responder/pkg/dialogue"
)

// ErrResponderNotFound is returned when no definition exists for an ID.
var ErrResponderNotFound = errors.New("responder not found")

// Storage loads and stores responder definitions.
// Bundled definitions live on the filesystem; authored overrides live in Redis
// and take precedence.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Responder definitions
	ListResponders(ctx context.Context) ([]string, error)
	GetResponder(ctx context.Context, id string) (*dialogue.Definition, error)
	SaveResponder(ctx context.Context, def *dialogue.Definition) error
	DeleteResponder(ctx context.Context, id string) error
}

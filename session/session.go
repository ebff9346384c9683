package session

import (
	"context"
	"errors"

	"github.com/sohanAi024/News-Multi-Agent/models"
)

// ErrLockTimeout is returned when a session lock cannot be acquired before ctx ends.
var ErrLockTimeout = errors.New("session lock timeout")

// State is everything the assistant remembers about one session.
type State struct {
	Messages     []models.Message `json:"messages"`
	DocumentPath string           `json:"document_path,omitempty"` // last exported document, empty when none
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{DocumentPath: s.DocumentPath}
	if s.Messages != nil {
		out.Messages = append([]models.Message(nil), s.Messages...)
	}
	return out
}

// Patch is a shallow merge; nil fields are left untouched.
type Patch struct {
	Messages     *[]models.Message
	DocumentPath *string
}

// Apply merges p into s.
func (p Patch) Apply(s State) State {
	if p.Messages != nil {
		s.Messages = append([]models.Message(nil), (*p.Messages)...)
	}
	if p.DocumentPath != nil {
		s.DocumentPath = *p.DocumentPath
	}
	return s
}

// Store persists session state keyed by an opaque session key.
type Store interface {
	// Get returns the state for key, or an empty state when absent.
	Get(ctx context.Context, key string) (State, error)
	// Update merges patch into the stored state, creating it when absent.
	Update(ctx context.Context, key string, patch Patch) error
	Clear(ctx context.Context, key string) error
	ClearAll(ctx context.Context) error
	// Lock serializes read-modify-write cycles on key. The returned func releases it.
	Lock(ctx context.Context, key string) (func(), error)
}

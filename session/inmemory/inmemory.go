package inmemory

import (
	"context"
	"sync"

	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/sohanAi024/News-Multi-Agent/session"
)

// Store keeps sessions for the lifetime of the process.
type Store struct {
	sessions map[string]session.State
	locks    map[string]chan struct{}
	mu       sync.RWMutex
	lockMu   sync.Mutex
}

var _ session.Store = (*Store)(nil)

func NewInMemorySessionStore() *Store {
	return &Store{
		sessions: make(map[string]session.State),
		locks:    make(map[string]chan struct{}),
	}
}

func (store *Store) Get(_ context.Context, key string) (session.State, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	st, ok := store.sessions[key]
	if !ok {
		return session.State{Messages: []models.Message{}}, nil
	}
	return st.Clone(), nil
}

func (store *Store) Update(_ context.Context, key string, patch session.Patch) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.sessions[key] = patch.Apply(store.sessions[key])
	return nil
}

func (store *Store) Clear(_ context.Context, key string) error {
	store.mu.Lock()
	delete(store.sessions, key)
	store.mu.Unlock()

	store.lockMu.Lock()
	defer store.lockMu.Unlock()
	if ch, ok := store.locks[key]; ok && len(ch) == 0 {
		delete(store.locks, key)
	}
	return nil
}

func (store *Store) ClearAll(_ context.Context) error {
	store.mu.Lock()
	store.sessions = make(map[string]session.State)
	store.mu.Unlock()

	store.lockMu.Lock()
	defer store.lockMu.Unlock()
	for key, ch := range store.locks {
		if len(ch) == 0 {
			delete(store.locks, key)
		}
	}
	return nil
}

// Lock uses a one-slot channel per key so waiting can be abandoned when ctx ends.
// A ctx that is already done never acquires, even when the key is free.
func (store *Store) Lock(ctx context.Context, key string) (func(), error) {
	if ctx.Err() != nil {
		return nil, session.ErrLockTimeout
	}
	for {
		store.lockMu.Lock()
		ch, ok := store.locks[key]
		if !ok {
			ch = make(chan struct{}, 1)
			store.locks[key] = ch
		}
		store.lockMu.Unlock()

		select {
		case ch <- struct{}{}:
		case <-ctx.Done():
			return nil, session.ErrLockTimeout
		}
		// Clear may have dropped ch while it was free; retry on the live one.
		store.lockMu.Lock()
		live := store.locks[key] == ch
		store.lockMu.Unlock()
		if !live {
			<-ch
			continue
		}
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	}
}

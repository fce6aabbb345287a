package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/storage"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/store"
)

// openTimeout bounds restoring a cart from durable storage. Opening is shared
// by every caller waiting on the same key, so it does not follow the
// cancellation of any single request.
const openTimeout = 5 * time.Second

// UserKey returns the session key of an authenticated user.
func UserKey(userID string) string {
	return "user:" + userID
}

// GuestKey returns the session key of an anonymous visitor.
func GuestKey(sessionID string) string {
	return "guest:" + sessionID
}

type entry struct {
	store *store.Store
	// refs counts callers that have not released the store yet.
	refs int
	// cached is true while the entry sits in the idle cache.
	cached bool
}

// Manager owns one cart store per session. Idle stores are dropped from
// memory and reopened from durable storage on the next access. A store that
// is still held by a caller stays live when it leaves the idle cache, so a key
// never has two stores at once.
type Manager struct {
	backend storage.Backend
	logger  *slog.Logger

	// mu guards live. It is never held while calling into stores.
	mu    sync.Mutex
	live  map[string]*entry
	group singleflight.Group

	stores *expirable.LRU[string, *entry]
}

// NewManager creates a session manager keeping at most size idle stores in
// memory, each for at most idle since its last access.
func NewManager(backend storage.Backend, size int, idle time.Duration, logger *slog.Logger) *Manager {
	m := &Manager{
		backend: backend,
		logger:  logger,
		live:    make(map[string]*entry),
	}
	m.stores = expirable.NewLRU[string, *entry](size, m.evicted, idle)
	return m
}

// evicted runs with the cache lock held and must not call back into stores.
func (m *Manager) evicted(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.cached = false
	if e.refs == 0 && m.live[key] == e {
		delete(m.live, key)
	}
}

// Acquire returns the cart store for key, opening it on first use. The
// caller must call release once done with the store. A saved cart that cannot
// be read yields an error wrapping store.ErrUnavailable and nothing is cached.
func (m *Manager) Acquire(ctx context.Context, key string) (_ *store.Store, release func(), _ error) {
	for {
		if e := m.pin(key); e != nil {
			// Re-adding refreshes the idle deadline.
			m.stores.Add(key, e)
			return e.store, m.releaser(key, e), nil
		}

		_, err, _ := m.group.Do(key, func() (any, error) {
			return nil, m.open(ctx, key)
		})
		if err != nil {
			return nil, nil, err
		}
	}
}

func (m *Manager) pin(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live[key]
	if !ok {
		return nil
	}
	e.refs++
	e.cached = true
	return e
}

func (m *Manager) releaser(key string, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()

			e.refs--
			if e.refs == 0 && !e.cached && m.live[key] == e {
				delete(m.live, key)
			}
		})
	}
}

func (m *Manager) open(ctx context.Context, key string) error {
	m.mu.Lock()
	_, ok := m.live[key]
	m.mu.Unlock()
	if ok {
		return nil
	}

	openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), openTimeout)
	defer cancel()

	logger := m.logger.With(slog.String("session", key))
	s, err := store.Open(openCtx, storage.Namespace(m.backend, key), logger)
	if err != nil {
		logger.WarnContext(ctx, "failed to open cart session", slog.String("error", err.Error()))
		return err
	}

	e := &entry{store: s, cached: true}
	m.mu.Lock()
	m.live[key] = e
	m.mu.Unlock()
	m.stores.Add(key, e)

	logger.DebugContext(ctx, "cart session opened")
	return nil
}

// Forget drops the idle store for key. The durable copy is kept and a store
// still held by a caller stays live until released.
func (m *Manager) Forget(key string) {
	m.stores.Remove(key)
}

// Len returns the number of stores held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/domain"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/storage/memory"
	"github.com/RoBiul-Hasan-Jisan/hudai/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// gatedBackend counts reads and can fail them or hold them until released.
// Reads honour context cancellation.
type gatedBackend struct {
	*memory.Storage
	reads   atomic.Int32
	failing atomic.Bool
	gates   map[string]chan struct{}
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{Storage: memory.New(), gates: make(map[string]chan struct{})}
}

func (b *gatedBackend) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	b.reads.Add(1)
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if gate, ok := b.gates[namespace]; ok {
		<-gate
	}
	if b.failing.Load() {
		return "", false, errors.New("connection reset")
	}
	return b.Storage.Get(ctx, namespace, key)
}

func lamp() domain.Product {
	return domain.Product{ID: "A", Name: "Lamp", Price: decimal.NewFromInt(3), Stock: 4}
}

func acquire(t *testing.T, m *Manager, key string) (*store.Store, func()) {
	t.Helper()
	s, release, err := m.Acquire(context.Background(), key)
	require.NoError(t, err)
	return s, release
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "user:42", UserKey("42"))
	assert.Equal(t, "guest:abc", GuestKey("abc"))
}

func TestManager_ReturnsSameStoreForKey(t *testing.T) {
	m := NewManager(memory.New(), 10, time.Hour, testLogger())

	a, releaseA := acquire(t, m, "guest:1")
	b, releaseB := acquire(t, m, "guest:1")
	c, releaseC := acquire(t, m, "guest:2")
	releaseA()
	releaseB()
	releaseC()

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, m.Len())
}

func TestManager_ForgetReopensFromStorage(t *testing.T) {
	m := NewManager(memory.New(), 10, time.Hour, testLogger())
	ctx := context.Background()

	s, release := acquire(t, m, "user:7")
	_, err := s.AddItem(ctx, lamp(), 2)
	require.NoError(t, err)
	release()

	m.Forget("user:7")
	assert.Equal(t, 0, m.Len())

	reopened, release := acquire(t, m, "user:7")
	defer release()
	assert.NotSame(t, s, reopened)
	require.Len(t, reopened.Lines(), 1)
	assert.Equal(t, 2, reopened.Lines()[0].Quantity)
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	m := NewManager(memory.New(), 2, time.Hour, testLogger())

	for _, key := range []string{"guest:1", "guest:2", "guest:3"} {
		_, release := acquire(t, m, key)
		release()
	}

	assert.Equal(t, 2, m.Len())
}

func TestManager_HeldStoreSurvivesEviction(t *testing.T) {
	m := NewManager(memory.New(), 1, time.Hour, testLogger())
	ctx := context.Background()

	held, releaseHeld := acquire(t, m, "guest:1")
	_, releaseOther := acquire(t, m, "guest:2")
	releaseOther()

	again, releaseAgain := acquire(t, m, "guest:1")
	assert.Same(t, held, again, "a held store is never opened twice")

	_, err := held.AddItem(ctx, lamp(), 1)
	require.NoError(t, err)
	_, err = again.AddItem(ctx, lamp(), 1)
	require.NoError(t, err)
	releaseAgain()
	releaseHeld()

	m.Forget("guest:1")
	reopened, release := acquire(t, m, "guest:1")
	defer release()
	assert.NotSame(t, held, reopened)
	assert.Equal(t, 2, reopened.TotalItemCount())
}

func TestManager_ReleaseIsIdempotent(t *testing.T) {
	m := NewManager(memory.New(), 10, time.Hour, testLogger())

	held, release := acquire(t, m, "guest:1")
	_, releaseSecond := acquire(t, m, "guest:1")
	defer releaseSecond()

	release()
	release()
	m.Forget("guest:1")

	again, releaseAgain := acquire(t, m, "guest:1")
	defer releaseAgain()
	assert.Same(t, held, again, "second holder still pins the store")
}

func TestManager_ReadFailureIsNotCached(t *testing.T) {
	backend := newGatedBackend()
	m := NewManager(backend, 10, time.Hour, testLogger())
	ctx := context.Background()

	s, release := acquire(t, m, "user:7")
	_, err := s.AddItem(ctx, lamp(), 2)
	require.NoError(t, err)
	release()
	m.Forget("user:7")

	backend.failing.Store(true)
	_, _, err = m.Acquire(ctx, "user:7")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Equal(t, 0, m.Len())

	raw, found, err := backend.Storage.Get(ctx, "user:7", store.StorageKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEqual(t, "[]", raw, "saved cart is not overwritten")

	backend.failing.Store(false)
	reopened, release := acquire(t, m, "user:7")
	defer release()
	assert.Equal(t, 2, reopened.TotalItemCount())
}

func TestManager_SlowOpenDoesNotBlockOtherKeys(t *testing.T) {
	backend := newGatedBackend()
	gate := make(chan struct{})
	backend.gates["guest:slow"] = gate
	var closeGate sync.Once
	t.Cleanup(func() { closeGate.Do(func() { close(gate) }) })
	m := NewManager(backend, 10, time.Hour, testLogger())

	const waiters = 5
	opened := make([]*store.Store, waiters)
	var wg sync.WaitGroup
	for i := range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, release, err := m.Acquire(context.Background(), "guest:slow")
			if err == nil {
				opened[i] = s
				release()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		_, release, err := m.Acquire(context.Background(), "guest:fast")
		if err == nil {
			release()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("opening another session waited on a slow read")
	}

	closeGate.Do(func() { close(gate) })
	wg.Wait()

	require.NotNil(t, opened[0])
	for _, s := range opened[1:] {
		assert.Same(t, opened[0], s)
	}
	assert.Equal(t, int32(2), backend.reads.Load(), "slow session is read once")
}

func TestManager_OpenOutlivesCanceledCaller(t *testing.T) {
	m := NewManager(newGatedBackend(), 10, time.Hour, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, release, err := m.Acquire(ctx, "guest:1")

	require.NoError(t, err)
	defer release()
	assert.NotNil(t, s)
}

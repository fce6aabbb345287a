package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/storage"
)

func TestStorage_SetGetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "guest:1", "cart")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "guest:1", "cart", "[]"))
	v, found, err := s.Get(ctx, "guest:1", "cart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", v)

	require.NoError(t, s.Delete(ctx, "guest:1", "cart"))
	_, found, _ = s.Get(ctx, "guest:1", "cart")
	assert.False(t, found)
	assert.NoError(t, s.Ping(ctx))
}

func TestStorage_NamespacesAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := storage.Namespace(s, "guest:a")
	b := storage.Namespace(s, "guest:b")

	require.NoError(t, a.Set(ctx, "cart", "A"))
	require.NoError(t, b.Set(ctx, "cart", "B"))

	va, _, _ := a.Get(ctx, "cart")
	vb, _, _ := b.Get(ctx, "cart")
	assert.Equal(t, "A", va)
	assert.Equal(t, "B", vb)
}

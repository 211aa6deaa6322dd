package store

import (
	"testing"
	"time"

	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attempt struct {
	Failures int       `json:"failures"`
	LastAt   time.Time `json:"last_at"`
}

func TestStoreRoundTrip(t *testing.T) {
	backend := memory.New()
	defer backend.Close()
	s := New[attempt](backend, "la:")

	_, err := s.Get("emp-1")
	require.ErrorIs(t, err, ErrNotFound)

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Set("emp-1", attempt{Failures: 2, LastAt: now}, time.Minute))

	got, err := s.Get("emp-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Failures)
	assert.True(t, now.Equal(got.LastAt))

	raw, err := backend.Get("la:emp-1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestPrefixesAreIsolated(t *testing.T) {
	backend := memory.New()
	defer backend.Close()
	a := New[string](backend, "a:")
	b := New[string](backend, "b:")

	require.NoError(t, a.Set("k", "from-a", 0))
	_, err := b.Get("k")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Delete("k"))
	got, err := a.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "from-a", got)
}

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := OpenFile(path)
	require.NoError(t, err)

	_, ok := s.Get("missing")
	assert.False(t, ok)

	require.NoError(t, s.Set("drafts", `[{"title":"a"}]`))
	v, ok := s.Get("drafts")
	assert.True(t, ok)
	assert.Equal(t, `[{"title":"a"}]`, v)

	require.NoError(t, s.Remove("drafts"))
	_, ok = s.Get("drafts")
	assert.False(t, ok)
}

func TestFileStorage_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("key", "value"))

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	v, ok := reopened.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestFileStorage_TwoHandlesShareTheFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	a, err := OpenFile(path)
	require.NoError(t, err)
	b, err := OpenFile(path)
	require.NoError(t, err)

	require.NoError(t, a.Set("drafts", `[{"title":"from a"}]`))

	v, ok := b.Get("drafts")
	assert.True(t, ok, "second handle must see the first handle's write")
	assert.Equal(t, `[{"title":"from a"}]`, v)

	// A write through the second handle must not wipe the first's keys.
	require.NoError(t, b.Set("theme", "dark"))

	v, ok = a.Get("drafts")
	assert.True(t, ok)
	assert.Equal(t, `[{"title":"from a"}]`, v)
	v, ok = a.Get("theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestFileStorage_CorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := OpenFile(path)
	require.NoError(t, err)
	_, ok := s.Get("anything")
	assert.False(t, ok)
}

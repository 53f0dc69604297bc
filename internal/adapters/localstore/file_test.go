package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store", "local.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok := s.Get("visitor")
	assert.False(t, ok)

	require.NoError(t, s.Set("visitor", "app-1756600000000-abcdefghijklm"))
	require.NoError(t, s.Set("shippingInfo", `{"fullName":"Ahmed"}`))

	// A fresh store over the same path sees the persisted values.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok := reopened.Get("visitor")
	require.True(t, ok)
	assert.Equal(t, "app-1756600000000-abcdefghijklm", v)
	v, ok = reopened.Get("shippingInfo")
	require.True(t, ok)
	assert.Equal(t, `{"fullName":"Ahmed"}`, v)
}

func TestFileStore_OverwriteKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("b", "2"))
	require.NoError(t, s.Set("a", "updated"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, _ := reopened.Get("a")
	assert.Equal(t, "updated", v)
	v, _ = reopened.Get("b")
	assert.Equal(t, "2", v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

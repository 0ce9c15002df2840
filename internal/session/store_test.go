package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, field string) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "crm", "session.json"), field)
}

func TestLoadWithoutSession(t *testing.T) {
	store := newStore(t, "")

	token, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestSaveLoadClear(t *testing.T) {
	store := newStore(t, "")

	require.NoError(t, store.Save("header.payload.signature"))
	token, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "header.payload.signature", token)

	require.NoError(t, store.Clear())
	_, ok, err = store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Clear(), "clearing twice is a no-op")
}

func TestSaveOverwrites(t *testing.T) {
	store := newStore(t, "")

	require.NoError(t, store.Save("first"))
	require.NoError(t, store.Save("second"))

	token, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", token)
}

func TestSaveWritesConfiguredField(t *testing.T) {
	store := newStore(t, "jwt")
	require.NoError(t, store.Save("abc"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"jwt":"abc"}`, string(data))
}

func TestSaveRestrictsPermissions(t *testing.T) {
	store := newStore(t, "")
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{}`), 0o644))

	require.NoError(t, store.Save("abc"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ok      bool
		wantErr bool
	}{
		{name: "empty token", content: `{"token":""}`},
		{name: "missing field", content: `{"other":"abc"}`},
		{name: "null token", content: `{"token":null}`},
		{name: "corrupt json", content: `{"token":`, wantErr: true},
		{name: "non-string token", content: `{"token":42}`, wantErr: true},
		{name: "valid", content: `{"token":"abc"}`, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, "")
			require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.content), 0o600))

			_, ok, err := store.Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

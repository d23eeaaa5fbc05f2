package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dipbot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	for _, name := range []string{"trading_state.json", "trading_state.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			store, err := NewFileStore(path)
			require.NoError(t, err)
			ctx := context.Background()

			st, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, st.Len(), "missing file loads empty")

			require.NoError(t, store.Save(ctx, sampleState()))
			loaded, err := store.Load(ctx)
			require.NoError(t, err)
			assert.True(t, loaded.Equal(sampleState()))

			matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp-*"))
			require.NoError(t, err)
			assert.Empty(t, matches)
		})
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trading_state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"holdings": {"BTC": 1}}`), 0o644))
	store, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := Open(config.StateConfig{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "db", "state.db")})
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Len())

	require.NoError(t, store.Save(ctx, sampleState()))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(sampleState()))

	next := sampleState()
	next.Set("BTC", next.Get("BTC").WithReference(d("120")))
	btc := next.Get("BTC")
	btc.Position = nil
	next.Set("BTC", btc)
	require.NoError(t, store.Save(ctx, next))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(next))
	assert.Empty(t, loaded.Holdings())
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(config.StateConfig{Backend: "redis", Path: "x"})
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "state.backend", cfgErr.Key)
}

package localstore

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	ctx := context.Background()

	fs, err := Open(ctx, BackendFile, t.TempDir(), nil)
	require.NoError(t, err)
	db, err := Open(ctx, BackendSQLite, filepath.Join(t.TempDir(), "boards.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Storage{"file": fs, "sqlite": db}
}

func TestStorageRoundTrip(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := st.Get(ctx, "board")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.Put(ctx, "board", []byte(`{"elements":[]}`)))
			require.NoError(t, st.Put(ctx, "board", []byte(`{"elements":[1]}`)))
			require.NoError(t, st.Put(ctx, "other", []byte(`x`)))

			got, err := st.Get(ctx, "board")
			require.NoError(t, err)
			assert.Equal(t, `{"elements":[1]}`, string(got))
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Backend("redis"), t.TempDir(), nil)
	assert.Error(t, err)
}

func TestFileStorageSanitizesSlot(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a_b_c.json"), fs.Path("a/b c"))
	require.NoError(t, fs.Put(context.Background(), "../escape", []byte("x")))
	_, err = os.Stat(filepath.Join(dir, ".._escape.json"))
	assert.NoError(t, err)
}

func TestFileStorageLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir, nil)
	require.NoError(t, err)
	require.NoError(t, fs.Put(context.Background(), "board", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "board.json", entries[0].Name())
}

func TestWatchReportsPut(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var hits atomic.Int32
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, fs.Path("board"), nil, func() { hits.Add(1) }) }()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, fs.Put(ctx, "other", []byte("ignored")))
	require.NoError(t, fs.Put(ctx, "board", []byte("{}")))

	assert.Eventually(t, func() bool { return hits.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

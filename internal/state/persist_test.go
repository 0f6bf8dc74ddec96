package state

import (
	"context"
	"testing"

	"localboard/internal/localstore"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T) (*Store, *localstore.FileStorage) {
	t.Helper()
	fs, err := localstore.NewFileStorage(t.TempDir(), nil)
	require.NoError(t, err)
	return NewStore(WithStorage(fs, "board")), fs
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, fs := newFileStore(t)
	for _, e := range sampleBoard().Elements {
		s.AddElement(e)
	}
	s.Pan(5, 6)
	s.ZoomIn()
	want := s.Snapshot()
	require.NoError(t, s.SaveToLocal(ctx))

	fresh := NewStore(WithStorage(fs, "board"))
	ok, err := fresh.LoadFromLocal(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(want, fresh.Snapshot()))
}

func TestLoadFromEmptySlotIsNoop(t *testing.T) {
	s, _ := newFileStore(t)
	s.AddElement(rect("a", 0, 0))

	ok, err := s.LoadFromLocal(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestLoadCorruptDataLeavesBoard(t *testing.T) {
	ctx := context.Background()
	s, fs := newFileStore(t)
	s.AddElement(rect("a", 0, 0))
	require.NoError(t, fs.Put(ctx, "board", []byte(`{"elements":[{"id":"x",`)))

	ok, err := s.LoadFromLocal(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCorruptBoard)
	assert.Equal(t, []string{"a"}, ids(s.Elements()))
}

func TestLoadKeepsHistory(t *testing.T) {
	ctx := context.Background()
	s, _ := newFileStore(t)
	s.AddElement(rect("a", 0, 0))
	require.NoError(t, s.SaveToLocal(ctx))

	s.PushHistory()
	s.AddElement(rect("b", 0, 0))
	_, err := s.LoadFromLocal(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(s.Elements()))
	assert.True(t, s.CanUndo())
}

func TestPersistenceWithoutStorage(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.SaveToLocal(context.Background()), ErrNoStorage)
	_, err := s.LoadFromLocal(context.Background())
	assert.ErrorIs(t, err, ErrNoStorage)
}

func TestSaveRefusesBoardLoadWouldReject(t *testing.T) {
	cases := map[string][]Element{
		"duplicate id": {rect("a", 0, 0), rect("a", 10, 10)},
		"shape without form": {
			&Shape{Base: Base{ID: "x"}, Width: 5, Height: 5},
		},
	}
	for name, elements := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s, fs := newFileStore(t)
			for _, e := range elements {
				s.AddElement(e)
			}

			err := s.SaveToLocal(ctx)
			require.ErrorIs(t, err, ErrCorruptBoard)
			_, err = fs.Get(ctx, "board")
			assert.ErrorIs(t, err, localstore.ErrNotFound, "slot must not be written")
		})
	}
}

func TestSaveKeepsPreviousDataOnRefusal(t *testing.T) {
	ctx := context.Background()
	s, _ := newFileStore(t)
	s.AddElement(rect("a", 0, 0))
	require.NoError(t, s.SaveToLocal(ctx))

	s.AddElement(rect("a", 5, 5))
	require.Error(t, s.SaveToLocal(ctx))

	fresh := NewStore(WithStorage(s.storage, "board"))
	ok, err := fresh.LoadFromLocal(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, ids(fresh.Elements()))
}

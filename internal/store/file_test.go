package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	ctx := context.Background()

	_, err := s.Load(ctx, "buoy_left", annotation.KindBox)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "buoy_left", annotation.KindBox, []byte(`{"boxes":{}}`)))
	require.NoError(t, s.Save(ctx, "buoy_left", annotation.KindPolygon, []byte(`{"polygons":{}}`)))
	require.NoError(t, s.Save(ctx, "buoy_left", annotation.KindBox, []byte(`{"boxes":{"0":[]}}`)))

	data, err := s.Load(ctx, "buoy_left", annotation.KindBox)
	require.NoError(t, err)
	assert.JSONEq(t, `{"boxes":{"0":[]}}`, string(data))

	raw, err := os.ReadFile(filepath.Join(dir, "buoy_left", "polygons.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"polygons":{}}`, string(raw))

	entries, err := os.ReadDir(filepath.Join(dir, "buoy_left"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		err := s.Save(ctx, id, annotation.KindBox, []byte(`{}`))
		assert.ErrorIs(t, err, ErrBadVideoID, "id %q", id)
	}
	_, err := s.Load(ctx, "video", "circle")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

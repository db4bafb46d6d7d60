package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeuMarco/program/internal/infra/archive"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	assert.Equal(t, archive.DriverMemory, s.Driver())

	info, err := s.Put(ctx, "snap/a.json", strings.NewReader(`{"a":1}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.Size)
	assert.Len(t, info.ETag, 64)

	_, err = s.Put(ctx, "snap/a.json", strings.NewReader("again"), "")
	assert.ErrorIs(t, err, archive.ErrExists)

	_, err = s.Put(ctx, "other/b.json", strings.NewReader("{}"), "")
	require.NoError(t, err)

	got, rc, err := s.Get(ctx, "snap/a.json")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, `{"a":1}`, string(body))
	assert.Equal(t, "application/json", got.ContentType)

	list, err := s.List(ctx, "snap/")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "snap/a.json", list[0].Key)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"other/b.json", "snap/a.json"}, []string{all[0].Key, all[1].Key})

	existed, err := s.Delete(ctx, "snap/a.json")
	require.NoError(t, err)
	assert.True(t, existed)
	existed, err = s.Delete(ctx, "snap/a.json")
	require.NoError(t, err)
	assert.False(t, existed)

	_, _, err = s.Get(ctx, "snap/a.json")
	assert.ErrorIs(t, err, archive.ErrNotFound)
	_, _, err = s.Get(ctx, "../x")
	assert.Error(t, err)
}

package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalStorage_PutGet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	info, err := s.Put(ctx, NamespaceUploads, Object{
		Name:        "../statement.pdf",
		ContentType: "application/pdf",
		Labels:      map[string]string{"source": "upload"},
	}, strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, info.ID)
	assert.Equal(t, int64(8), info.Size)
	assert.NotContains(t, info.Path, "..")

	rc, got, err := s.Get(ctx, NamespaceUploads, info.ID)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
	assert.Equal(t, "upload", got.Labels["source"])
	assert.Equal(t, "application/pdf", got.ContentType)
}

func TestLocalStorage_FixedID(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	id := uuid.New()

	info, err := s.Put(ctx, NamespaceRecords, Object{ID: id, Name: "record.json"}, bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	assert.Equal(t, id, info.ID)

	_, err = s.GetInfo(ctx, NamespaceUploads, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_DeleteAndList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	files, err := s.List(ctx, NamespaceRecords)
	require.NoError(t, err)
	assert.Empty(t, files)

	a, err := s.Put(ctx, NamespaceRecords, Object{Name: "a.json"}, strings.NewReader("a"))
	require.NoError(t, err)
	_, err = s.Put(ctx, NamespaceRecords, Object{Name: "b.json"}, strings.NewReader("b"))
	require.NoError(t, err)

	files, err = s.List(ctx, NamespaceRecords)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	require.NoError(t, s.Delete(ctx, NamespaceRecords, a.ID))
	_, _, err = s.Get(ctx, NamespaceRecords, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	files, err = s.List(ctx, NamespaceRecords)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestLocalStorage_Purge(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base.Add(-48 * time.Hour) }
	old, err := s.Put(ctx, NamespaceUploads, Object{Name: "old.txt"}, strings.NewReader("old"))
	require.NoError(t, err)

	s.now = func() time.Time { return base }
	fresh, err := s.Put(ctx, NamespaceUploads, Object{Name: "fresh.txt"}, strings.NewReader("fresh"))
	require.NoError(t, err)

	removed, err := s.Purge(ctx, NamespaceUploads, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.GetInfo(ctx, NamespaceUploads, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetInfo(ctx, NamespaceUploads, fresh.ID)
	assert.NoError(t, err)
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, NamespaceUploads, Object{Name: "x"}, strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files/",
	}, logger)
	require.NoError(t, err)
	return s
}

func TestLocalPutGet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.Put(ctx, "resumes/u1/resume.pdf", strings.NewReader("resume bytes"), PutOptions{})
	require.NoError(t, err)

	reader, info, err := s.Get(ctx, "resumes/u1/resume.pdf")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "resume bytes", string(data))
	assert.Equal(t, int64(len("resume bytes")), info.Size)
}

func TestLocalPutRejectsOversized(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.Put(ctx, "big.bin", strings.NewReader("0123456789"), PutOptions{MaxSize: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))

	// The partial file is not left behind.
	_, _, err = s.Get(ctx, "big.bin")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalPutNoOverwrite(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a.txt", strings.NewReader("one"), PutOptions{}))

	err := s.Put(ctx, "a.txt", strings.NewReader("two"), PutOptions{})
	assert.True(t, errors.Is(err, ErrKeyExists))

	require.NoError(t, s.Put(ctx, "a.txt", strings.NewReader("two"), PutOptions{Overwrite: true}))

	reader, _, err := s.Get(ctx, "a.txt")
	require.NoError(t, err)
	defer reader.Close()
	data, _ := io.ReadAll(reader)
	assert.Equal(t, "two", string(data))
}

func TestLocalDeleteIdempotent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a.txt", strings.NewReader("x"), PutOptions{}))
	require.NoError(t, s.Delete(ctx, "a.txt"))
	require.NoError(t, s.Delete(ctx, "a.txt"))

	_, _, err := s.Get(ctx, "a.txt")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalRejectsPathTraversal(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.Put(ctx, "../escape.txt", strings.NewReader("x"), PutOptions{})
	require.Error(t, err)

	_, err = s.URL(ctx, "../../etc/passwd", time.Minute)
	require.Error(t, err)
}

func TestLocalURL(t *testing.T) {
	s := newTestStorage(t)

	url, err := s.URL(context.Background(), "resumes/u1/resume.pdf", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/resumes/u1/resume.pdf", url)
}

package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockArchive is a mock implementation of the Archive interface for testing.
type mockArchive struct {
	putFunc func(ctx context.Context, key string, data []byte) error
	getFunc func(ctx context.Context, key string) ([]byte, error)
}

func (m *mockArchive) Put(ctx context.Context, key string, data []byte) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, key, data)
	}
	return errors.New("not implemented")
}

func (m *mockArchive) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	return nil, errors.New("not implemented")
}

func TestFileArchive_PutGet(t *testing.T) {
	dir := t.TempDir()
	a := NewFileArchive(dir, zerolog.Nop())
	ctx := context.Background()

	key := QRKey("5b0e8a52-7f0c-4d36-a1b2-6c7d8e9f0a1b")
	require.NoError(t, a.Put(ctx, key, []byte("png-bytes")))

	data, err := a.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	_, err = os.Stat(filepath.Join(dir, "qr", "5b0e8a52-7f0c-4d36-a1b2-6c7d8e9f0a1b.png"))
	assert.NoError(t, err)
}

func TestFileArchive_Missing(t *testing.T) {
	a := NewFileArchive(t.TempDir(), zerolog.Nop())

	_, err := a.Get(context.Background(), QRKey("missing"))

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileArchive_RejectsTraversal(t *testing.T) {
	a := NewFileArchive(t.TempDir(), zerolog.Nop())

	err := a.Put(context.Background(), "../escape.png", []byte("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid archive key")
}

func TestFallbackArchive_S3First(t *testing.T) {
	ctx := context.Background()
	s3 := &mockArchive{
		putFunc: func(ctx context.Context, key string, data []byte) error {
			assert.Equal(t, "veriscan/qr/a.png", key, "S3 key should have prefix")
			return nil
		},
		getFunc: func(ctx context.Context, key string) ([]byte, error) {
			return []byte("from-s3"), nil
		},
	}
	local := &mockArchive{
		putFunc: func(ctx context.Context, key string, data []byte) error {
			t.Error("local archive should not be used when S3 succeeds")
			return nil
		},
		getFunc: func(ctx context.Context, key string) ([]byte, error) {
			t.Error("local archive should not be used when S3 succeeds")
			return nil, nil
		},
	}

	a := NewFallbackArchive(s3, local, "veriscan/", true, zerolog.Nop())

	require.NoError(t, a.Put(ctx, "qr/a.png", []byte("x")))
	data, err := a.Get(ctx, "qr/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("from-s3"), data)
}

func TestFallbackArchive_S3FailsFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	s3 := &mockArchive{
		putFunc: func(ctx context.Context, key string, data []byte) error { return errors.New("S3 connection failed") },
		getFunc: func(ctx context.Context, key string) ([]byte, error) { return nil, ErrNotFound },
	}
	local := NewFileArchive(t.TempDir(), zerolog.Nop())

	a := NewFallbackArchive(s3, local, "veriscan/", true, zerolog.Nop())

	require.NoError(t, a.Put(ctx, "qr/b.png", []byte("local")))
	data, err := a.Get(ctx, "qr/b.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), data)
}

func TestFallbackArchive_S3Disabled(t *testing.T) {
	ctx := context.Background()
	s3 := &mockArchive{
		putFunc: func(ctx context.Context, key string, data []byte) error {
			t.Error("S3 should not be used when disabled")
			return nil
		},
	}
	local := NewFileArchive(t.TempDir(), zerolog.Nop())

	a := NewFallbackArchive(s3, local, "", false, zerolog.Nop())
	require.NoError(t, a.Put(ctx, "qr/c.png", []byte("c")))

	nilS3 := NewFallbackArchive(nil, local, "", true, zerolog.Nop())
	data, err := nilS3.Get(ctx, "qr/c.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), data)
}

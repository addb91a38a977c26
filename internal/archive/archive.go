// Package archive stores rendered QR images.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get when no object exists for the key.
var ErrNotFound = errors.New("archive: object not found")

// Archive stores and retrieves opaque objects by key.
type Archive interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// QRKey returns the archive key of a product's QR image.
func QRKey(productID string) string {
	return "qr/" + productID + ".png"
}

// fileArchive implements Archive on the local file system.
type fileArchive struct {
	dir    string
	logger zerolog.Logger
}

// NewFileArchive creates an archive rooted at dir.
func NewFileArchive(dir string, logger zerolog.Logger) Archive {
	return &fileArchive{
		dir:    dir,
		logger: logger.With().Str("component", "file-archive").Logger(),
	}
}

func (a *fileArchive) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if strings.Contains(key, "..") || clean == "/" {
		return "", fmt.Errorf("invalid archive key %q", key)
	}
	return filepath.Join(a.dir, clean), nil
}

func (a *fileArchive) Put(ctx context.Context, key string, data []byte) error {
	path, err := a.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write archive object %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to store archive object %s: %w", key, err)
	}

	a.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("object archived")
	return nil
}

func (a *fileArchive) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := a.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read archive object %s: %w", key, err)
	}
	return data, nil
}

// fallbackArchive tries S3 first, then the local file system.
type fallbackArchive struct {
	s3        Archive
	local     Archive
	s3Prefix  string
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackArchive creates an archive that prefers S3 and falls back to local.
// If s3 is nil, only the local archive is used.
func NewFallbackArchive(s3, local Archive, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Archive {
	return &fallbackArchive{
		s3:        s3,
		local:     local,
		s3Prefix:  s3Prefix,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "fallback-archive").Logger(),
	}
}

func (a *fallbackArchive) useS3() bool {
	return a.s3Enabled && a.s3 != nil
}

func (a *fallbackArchive) Put(ctx context.Context, key string, data []byte) error {
	if a.useS3() {
		s3Key := a.s3Prefix + key
		err := a.s3.Put(ctx, s3Key, data)
		if err == nil {
			return nil
		}
		a.logger.Warn().
			Err(err).
			Str("s3_key", s3Key).
			Msg("failed to store in S3, falling back to local file system")
	}
	return a.local.Put(ctx, key, data)
}

func (a *fallbackArchive) Get(ctx context.Context, key string) ([]byte, error) {
	if a.useS3() {
		s3Key := a.s3Prefix + key
		data, err := a.s3.Get(ctx, s3Key)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			a.logger.Warn().
				Err(err).
				Str("s3_key", s3Key).
				Msg("failed to load from S3, falling back to local file system")
		}
	}
	return a.local.Get(ctx, key)
}

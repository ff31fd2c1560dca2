// Package storage holds the backends downloaded media can be written
// to. Which one is used is decided by the storage.type config value.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Backend stores downloaded media files. Locators returned by Save are
// what gets persisted on the media record and passed back to Open and
// Remove.
type Backend interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (locator string, err error)
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
	Remove(ctx context.Context, locator string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// UniqueName resolves filename collisions by appending an incrementing
// numeric suffix before the extension until the candidate is unused.
func UniqueName(ctx context.Context, b Backend, name string) (string, error) {
	taken, err := b.Exists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to check for name collisions, %w", err)
	}

	if !taken {
		return name, nil
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", base, i, ext)

		taken, err := b.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check for name collisions, %w", err)
		}

		if !taken {
			return candidate, nil
		}
	}
}

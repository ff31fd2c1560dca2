package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local keeps media files in a flat directory on disk
type Local struct {
	Dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory, %w", err)
	}

	return &Local{Dir: dir}, nil
}

func (l *Local) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	p := filepath.Join(l.Dir, name)

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file, %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(p)
		return "", fmt.Errorf("failed to write file, %w", err)
	}

	return p, nil
}

func (l *Local) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	return os.Open(locator)
}

func (l *Local) Remove(_ context.Context, locator string) error {
	return os.Remove(locator)
}

func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

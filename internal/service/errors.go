// Package service implements the gallery core: ingestion, tagging,
// stats aggregation, ranking and the stats backfill migration.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicate means an identical Tenor share was already archived.
	// Only the Tenor class forbids filename duplicates, downloaded
	// files get renamed instead
	ErrDuplicate = errors.New("a record with this filename already exists")

	ErrNotFound = errors.New("record not found")

	// ErrNotTagged and ErrNoProvenance are the untag preconditions
	ErrNotTagged    = errors.New("tag is not present on this post")
	ErrNoProvenance = errors.New("message was not posted by a tracked command")
)

// DownloadError is returned when a download fails for good, either
// because retries ran out or because of a non-retryable HTTP status.
type DownloadError struct {
	URL      string
	Status   int
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download of %s failed after %d attempts, %v", e.URL, e.Attempts, e.Err)
	}

	return fmt.Sprintf("download of %s failed with status %d after %d attempts", e.URL, e.Status, e.Attempts)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

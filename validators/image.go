// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrNoFilename          = errors.New("no filename provided")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
)

const maxFileNameSize = 250

// AttachmentValidator checks whether an incoming attachment looks like
// something the gallery should archive. Checks are extension based since
// the gateway only forwards metadata, the bytes arrive later during
// ingestion where the real content type gets detected.
func AttachmentValidator(filename, contentType string) error {
	if filename == "" {
		return ErrNoFilename
	}

	if len(filename) > maxFileNameSize {
		return ErrFileNameTooLong
	}

	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return ErrFileTypeUnsupported
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return ErrFileTypeUnsupported
	}

	for _, allowed := range viper.GetStringSlice("gallery.extensions") {
		if ext == allowed {
			return nil
		}
	}

	return ErrFileTypeUnsupported
}

// Package media stores uploaded images under names that never reveal the
// uploader. Filenames are random UUIDs with the original extension; only a
// small extension whitelist is accepted.
package media

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxUploadBytes is the upload size cap applied when the caller
// does not supply one.
const DefaultMaxUploadBytes = 4 << 20

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
}

// Store persists uploaded files. Implementations keep files flat under a
// single namespace; the generated name is the only key.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// Extension returns the lowercase extension of name without the dot, or an
// empty string when there is none.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// ValidUpload checks the extension whitelist and the size cap. A limit of
// zero or less falls back to DefaultMaxUploadBytes.
func ValidUpload(name string, size, limit int64) error {
	if _, ok := allowedExtensions[Extension(name)]; !ok {
		return ErrUnsupportedType
	}
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	if size > limit {
		return ErrTooLarge
	}
	return nil
}

// NewFilename generates a random name keeping the upload's extension,
// re-rolling on the off chance the name is already taken.
func NewFilename(ctx context.Context, s Store, original string) (string, error) {
	ext := Extension(original)
	for {
		name := uuid.NewString() + "." + ext
		taken, err := s.Exists(ctx, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
	}
}

// Package upload reads bounded upload bodies and provides scoped temporary
// files for collaborators that need a path on disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultMaxBytes is the upload limit used when none is configured (5 MB).
const DefaultMaxBytes int64 = 5 * 1024 * 1024

var (
	// ErrEmpty is returned for a zero-length upload.
	ErrEmpty = errors.New("upload is empty")
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("upload exceeds size limit")
)

// ReadLimited reads all of r, failing with ErrTooLarge as soon as more than
// max bytes arrive. A non-positive max uses DefaultMaxBytes.
func ReadLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// WithTempFile writes data to a uniquely named file in dir (os.TempDir when
// empty), calls fn with its path and removes the file before returning,
// whatever fn returns.
func WithTempFile(dir string, data []byte, ext string, fn func(path string) error) (err error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, "upload-"+uuid.NewString()+ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = fmt.Errorf("remove upload file: %w", rmErr)
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close upload file: %w", err)
	}
	return fn(path)
}

// Package storage keeps ticket attachments as objects on local disk and
// hands out public URLs for them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PublicPrefix is the URL path attachments are served under
const PublicPrefix = "/attachments"

// maxNameAttempts bounds the retries when two uploads land on the same millisecond
const maxNameAttempts = 100

// ObjectStore saves attachment objects and resolves their public URLs
type ObjectStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	URL(name string) string
}

// LocalStore is an ObjectStore over a directory
type LocalStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

// NewLocalStore creates dir if needed and returns a store whose URLs are
// rooted at baseURL
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}, nil
}

// Dir returns the directory objects are written to
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes r under a name derived from the upload time in milliseconds
// and the original file extension, and returns that name
func (s *LocalStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	stamp := s.now().UnixMilli()

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := fmt.Sprintf("%d%s", stamp+int64(attempt), ext)
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create object: %w", err)
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("write object: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close object: %w", err)
		}
		return name, nil
	}
	return "", fmt.Errorf("no free object name after %d attempts", maxNameAttempts)
}

// URL returns the public URL of the named object
func (s *LocalStore) URL(name string) string {
	return s.baseURL + PublicPrefix + "/" + name
}

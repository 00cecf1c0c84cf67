// Package avatar stores uploaded profile images on disk and generates
// default avatars for accounts without one
package avatar

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gamehub/internal/config"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Store writes avatars under a single directory, one file per account,
// keyed by the stable user code
type Store struct {
	dir       string
	publicURL string
	maxBytes  int64
}

// NewStore creates the storage directory if needed
func NewStore(cfg config.AvatarConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatar dir: %w", err)
	}
	return &Store{
		dir:       cfg.Dir,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		maxBytes:  cfg.MaxBytes,
	}, nil
}

// Save writes an uploaded avatar and returns its public URL. A new
// upload replaces any previous file for the account.
func (s *Store) Save(userCode, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	if err := s.Remove(userCode); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, userCode+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write avatar: %w", err)
	}
	if n > s.maxBytes {
		os.Remove(path)
		return "", fmt.Errorf("avatar exceeds %d bytes", s.maxBytes)
	}

	return fmt.Sprintf("%s/%s%s", s.publicURL, userCode, ext), nil
}

// Remove deletes any stored avatar for the account
func (s *Store) Remove(userCode string) error {
	for ext := range allowedExtensions {
		path := filepath.Join(s.dir, userCode+ext)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove avatar: %w", err)
		}
	}
	return nil
}

// Dir returns the storage directory, for static file serving
func (s *Store) Dir() string {
	return s.dir
}

// DefaultURL returns a generated avatar for accounts without an upload
func DefaultURL(username string) string {
	return fmt.Sprintf(
		"https://ui-avatars.com/api/?name=%s&size=200&background=random&color=fff&bold=true",
		url.QueryEscape(username),
	)
}

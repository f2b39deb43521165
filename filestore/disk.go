package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	authgate "github.com/MrEthical07/authgate"
)

// DiskStore writes avatars under a local directory and serves them from a
// URL base mapped to that directory.
type DiskStore struct {
	dir     string
	urlBase string
}

// NewDiskStore describes the newdiskstore operation and its observable behavior.
//
// NewDiskStore may return an error when input validation, dependency calls, or security checks fail.
// NewDiskStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewDiskStore(dir, urlBase string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("disk store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar directory: %w", err)
	}
	return &DiskStore{dir: dir, urlBase: strings.TrimRight(urlBase, "/")}, nil
}

// Upload describes the upload operation and its observable behavior.
//
// Upload may return an error when input validation, dependency calls, or security checks fail.
// Upload does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *DiskStore) Upload(ctx context.Context, filename, _ string, content io.Reader) (authgate.Avatar, error) {
	if content == nil {
		return authgate.Avatar{}, errors.New("upload content is nil")
	}
	if err := ctx.Err(); err != nil {
		return authgate.Avatar{}, err
	}

	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	target := filepath.Join(s.dir, name)

	f, err := os.Create(target)
	if err != nil {
		return authgate.Avatar{}, fmt.Errorf("create avatar file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(target)
		return authgate.Avatar{}, fmt.Errorf("write avatar file: %w", err)
	}

	return authgate.Avatar{
		URL:       s.urlBase + "/" + name,
		StorageID: name,
	}, nil
}

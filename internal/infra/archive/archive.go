// Package archive defines the blob store that holds exported state snapshots.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Driver identifies a concrete archive backend.
type Driver string

const (
	// DriverFilesystem stores snapshots under a local directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 stores snapshots in an S3 or MinIO bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps snapshots in process memory.
	DriverMemory Driver = "memory"
)

// Info describes a stored snapshot object.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is a create-only key/value blob store.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

var (
	// ErrNotFound is returned when a key holds no object.
	ErrNotFound = errors.New("archive: object not found")
	// ErrExists is returned by Put when the key is already taken.
	ErrExists = errors.New("archive: object already exists")
)

// CleanKey normalises key and rejects empty, absolute or escaping keys.
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q contains '..'", key)
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean == "." || strings.HasSuffix(clean, ".meta") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return clean, nil
}

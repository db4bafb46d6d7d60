// Package memory implements an in-process archive store.
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SeuMarco/program/internal/infra/archive"
)

type entry struct {
	info archive.Info
	data []byte
}

// Store implements archive.Store backed by a map.
type Store struct {
	mu   sync.RWMutex
	objs map[string]entry
}

// New returns an empty store.
func New() *Store { return &Store{objs: make(map[string]entry)} }

// Driver returns archive.DriverMemory.
func (s *Store) Driver() archive.Driver { return archive.DriverMemory }

// Put stores r under key, failing with archive.ErrExists when taken.
func (s *Store) Put(_ context.Context, key string, r io.Reader, contentType string) (archive.Info, error) {
	k, err := archive.CleanKey(key)
	if err != nil {
		return archive.Info{}, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return archive.Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objs[k]; exists {
		return archive.Info{}, archive.ErrExists
	}
	sum := sha256.Sum256(b)
	info := archive.Info{Key: k, Size: int64(len(b)), ContentType: contentType, ETag: hex.EncodeToString(sum[:]), LastModified: time.Now().UTC()}
	s.objs[k] = entry{info: info, data: b}
	return info, nil
}

// Get returns a copy of the object stored under key.
func (s *Store) Get(_ context.Context, key string) (archive.Info, io.ReadCloser, error) {
	k, err := archive.CleanKey(key)
	if err != nil {
		return archive.Info{}, nil, err
	}
	s.mu.RLock()
	obj, ok := s.objs[k]
	s.mu.RUnlock()
	if !ok {
		return archive.Info{}, nil, archive.ErrNotFound
	}
	return obj.info, io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// Delete removes key, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	k, err := archive.CleanKey(key)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objs[k]
	delete(s.objs, k)
	return ok, nil
}

// List returns the objects whose key starts with prefix, sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]archive.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]archive.Info, 0, len(s.objs))
	for k, v := range s.objs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, v.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

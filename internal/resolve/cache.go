package resolve

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultCachePath is where FileStore keeps the cache when no path is given.
const DefaultCachePath = "address.json"

// Cache is the persisted result of a scan.
type Cache struct {
	// Singleton is the module-relative offset of the global holding the
	// singleton pointer.
	Singleton uint64 `json:"singleton"`
	// Fingerprint identifies the module build the offset was taken from.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// CacheStore persists a Cache between runs.
type CacheStore interface {
	// Load returns ok=false when nothing has been stored.
	Load() (c Cache, ok bool, err error)
	Save(c Cache) error
}

// FileStore keeps the cache as a JSON document on disk.
type FileStore struct {
	Path string
}

func (s FileStore) path() string {
	if s.Path == "" {
		return DefaultCachePath
	}
	return s.Path
}

// Load implements CacheStore.
func (s FileStore) Load() (Cache, bool, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return Cache{}, false, nil
	}
	if err != nil {
		return Cache{}, false, err
	}
	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return Cache{}, false, fmt.Errorf("cache %s: %w", s.path(), err)
	}
	return c, true, nil
}

// Save implements CacheStore. The file is replaced whole.
func (s FileStore) Save(c Cache) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	path := s.path()
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// MemoryStore keeps the cache in memory.
type MemoryStore struct {
	Cache  Cache
	Stored bool
	Saves  int
}

// Load implements CacheStore.
func (s *MemoryStore) Load() (Cache, bool, error) { return s.Cache, s.Stored, nil }

// Save implements CacheStore.
func (s *MemoryStore) Save(c Cache) error {
	s.Cache, s.Stored = c, true
	s.Saves++
	return nil
}

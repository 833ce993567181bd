package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileStore implements a file-based store for CLI usage.
// Each key is stored as a JSON file holding the value and its expiry.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// DefaultDir returns the cache directory using the XDG standard
// (~/.cache/atalogics/).
func DefaultDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "atalogics"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "atalogics"), nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// fileEntry wraps a stored value with its key and expiry.
type fileEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get retrieves a value from the store.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok, err := s.read(s.path(key))
	if err != nil || !ok {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set stores a value without expiry.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(fileEntry{Key: key, Value: value})
}

// Expire sets the expiry of an existing key. Missing keys are ignored.
func (s *FileStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok, err := s.read(s.path(key))
	if err != nil || !ok {
		return err
	}
	entry.ExpiresAt = time.Now().Add(ttl)
	return s.write(entry)
}

// Keys lists live keys matching pattern, sorted.
func (s *FileStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	re := globRegexp(pattern)
	var keys []string
	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil // Skip errors, continue walking
		}
		entry, ok, _ := s.read(path)
		if ok && re.MatchString(entry.Key) {
			keys = append(keys, entry.Key)
		}
		return nil
	})
	sort.Strings(keys)
	return keys, err
}

// Close does nothing for the file store.
func (s *FileStore) Close() error {
	return nil
}

// read loads the entry at path. Unreadable or expired entries are removed
// and reported as a miss.
func (s *FileStore) read(path string) (fileEntry, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fileEntry{}, false, nil
	}
	if err != nil {
		return fileEntry{}, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return fileEntry{}, false, nil
	}
	if entry.expired(time.Now()) {
		_ = os.Remove(path)
		return fileEntry{}, false, nil
	}
	return entry, true, nil
}

func (s *FileStore) write(entry fileEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	path := s.path(entry.Key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// path converts a key to a file path.
// Uses a hash-based directory structure to avoid too many files in one dir.
func (s *FileStore) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json")
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)

package store

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// PebbleStore keeps client state in a PebbleDB directory, for long-lived
// installs where conversation history outgrows a single JSON file.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebbleStore opens (or creates) the database directory.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

var _ Store = (*PebbleStore)(nil)

func (s *PebbleStore) Get(key string) (string, error) {
	v, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	out := string(v)
	_ = closer.Close()
	return out, nil
}

func (s *PebbleStore) Set(key, value string) error {
	return s.db.Set([]byte(key), []byte(value), pebble.Sync)
}

func (s *PebbleStore) Del(key string) error {
	return s.db.Delete([]byte(key), pebble.Sync)
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

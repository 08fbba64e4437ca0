package store

import "sync"

// MemoryStore is an in-memory Store with an optional byte budget. A zero
// MaxBytes means unlimited. The budget makes quota-driven compaction
// reproducible in tests.
type MemoryStore struct {
	MaxBytes int

	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MaxBytes > 0 {
		usage := 0
		for k, v := range s.data {
			if k == key {
				continue
			}
			usage += len(k) + len(v)
		}
		if usage+len(key)+len(value) > s.MaxBytes {
			return ErrQuotaExceeded
		}
	}
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Del(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

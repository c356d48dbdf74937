package flowstate

import "sync"

// Storage is the short-lived key-value store the machine mirrors into.
// In a browser embedding this maps onto session storage: it survives a
// reload but not a new session.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemoryStorage is a Storage over a plain map. The zero value is not
// usable; call NewMemoryStorage.
type MemoryStorage struct {
	mu sync.Mutex
	kv map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{kv: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	return v, ok
}

func (s *MemoryStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
}

func (s *MemoryStorage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
}

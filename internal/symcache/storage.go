package symcache

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrTxnTooBig is returned by Storage.Update when a batch exceeds what the
// store accepts in one transaction. Callers retry with smaller batches.
var ErrTxnTooBig = errors.New("symcache: transaction too big")

// Storage is the flat key-value store behind a Cache.
type Storage interface {
	Get(key string) ([]byte, bool, error)
	// Keys lists the keys starting with prefix, sorted.
	Keys(prefix string) ([]string, error)
	// Update applies fn atomically: either every write lands or none does.
	// It wraps ErrTxnTooBig when the batch is too large for one transaction.
	Update(fn func(tx Tx) error) error
	Close() error
}

// Tx is a write batch. Reads see the batch's own writes.
type Tx interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// MemoryStorage keeps everything in a map. Safe for concurrent use.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStorage) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *MemoryStorage) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memoryTx{base: s.data, writes: make(map[string][]byte), deletes: make(map[string]struct{})}
	if err := fn(tx); err != nil {
		return err
	}
	for k := range tx.deletes {
		delete(s.data, k)
	}
	maps.Copy(s.data, tx.writes)
	return nil
}

func (s *MemoryStorage) Close() error { return nil }

// memoryTx buffers writes until Update commits them.
type memoryTx struct {
	base    map[string][]byte
	writes  map[string][]byte
	deletes map[string]struct{}
}

func (tx *memoryTx) Get(key string) ([]byte, bool, error) {
	if v, ok := tx.writes[key]; ok {
		return v, true, nil
	}
	if _, gone := tx.deletes[key]; gone {
		return nil, false, nil
	}
	v, ok := tx.base[key]
	return v, ok, nil
}

func (tx *memoryTx) Set(key string, value []byte) error {
	delete(tx.deletes, key)
	tx.writes[key] = slices.Clone(value)
	return nil
}

func (tx *memoryTx) Delete(key string) error {
	delete(tx.writes, key)
	tx.deletes[key] = struct{}{}
	return nil
}

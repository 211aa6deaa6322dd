package store

import (
	"encoding/json"
	"fmt"
	"time"
)

type store[T any] struct {
	storage Storage
}

func (s *store[T]) Get(key string) (T, error) {
	var obj T
	data, err := s.storage.Get(key)
	if err != nil {
		return obj, err
	}
	if len(data) == 0 {
		return obj, ErrNotFound
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return obj, fmt.Errorf("decode %q: %w", key, err)
	}
	return obj, nil
}

// Set stores val under key. A zero expiresIn keeps the entry until deleted.
func (s *store[T]) Set(key string, val T, expiresIn time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.storage.Set(key, data, expiresIn)
}

func (s *store[T]) Delete(key string) error {
	return s.storage.Delete(key)
}

func New[T any](storage Storage, keyPrefix string) Store[T] {
	return &store[T]{
		storage: StorageWithPrefix(storage, keyPrefix),
	}
}

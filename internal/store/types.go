package store

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNotFound = errors.New("not found")
)

// Storage is the byte-level key-value backend shared with fiber middlewares.
type Storage = fiber.Storage

type Store[T any] interface {
	Get(key string) (T, error)
	Set(key string, val T, expiresIn time.Duration) error
	Delete(key string) error
}

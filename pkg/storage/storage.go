package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage provides an abstraction over key-value style document storage.
//
// CompareAndSwap replaces the object at path with next only if its current
// content equals prev. A nil prev means the object must not exist yet. It
// reports false without error when the precondition does not hold.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
	CompareAndSwap(ctx context.Context, path string, prev, next []byte) (bool, error)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrConflict is returned by Update when every attempt lost a race with a
// concurrent writer.
var ErrConflict = errors.New("concurrent modification")

// Update applies fn to the current content of path and stores the result with
// CompareAndSwap, retrying up to attempts times when another writer got in
// between. fn receives fresh content on every attempt and may be called more
// than once; an error from fn aborts the update unchanged.
func Update(ctx context.Context, s Storage, path string, attempts int, fn func(current []byte) ([]byte, error)) error {
	for range attempts {
		if err := ctx.Err(); err != nil {
			return err
		}
		current, err := s.Read(ctx, path)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		swapped, err := s.CompareAndSwap(ctx, path, current, next)
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", path, ErrConflict)
}

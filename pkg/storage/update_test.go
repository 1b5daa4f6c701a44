package storage

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Write(ctx, "counters/c", []byte("0")))

			const workers = 8
			var wg sync.WaitGroup
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := Update(ctx, s, "counters/c", 1000, func(current []byte) ([]byte, error) {
						n, err := strconv.Atoi(string(current))
						if err != nil {
							return nil, err
						}
						return []byte(strconv.Itoa(n + 1)), nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			data, err := s.Read(ctx, "counters/c")
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(workers), string(data))
		})
	}
}

type losingStorage struct {
	*MemoryStorage
}

func (losingStorage) CompareAndSwap(context.Context, string, []byte, []byte) (bool, error) {
	return false, nil
}

func TestUpdate_Errors(t *testing.T) {
	ctx := context.Background()
	s := losingStorage{MemoryStorage: NewMemoryStorage()}
	require.NoError(t, s.Write(ctx, "a", []byte("x")))

	calls := 0
	err := Update(ctx, s, "a", 3, func(current []byte) ([]byte, error) {
		calls++
		return current, nil
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 3, calls)

	err = Update(ctx, s, "missing", 3, func(current []byte) ([]byte, error) { return current, nil })
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("boom")
	err = Update(ctx, s, "a", 3, func([]byte) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

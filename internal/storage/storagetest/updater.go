// Package storagetest holds contract tests shared by the storage backends.
package storagetest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahdeg/alt-commmerce/internal/storage"
)

// Backend is a storage that supports atomic updates.
type Backend interface {
	storage.Storage
	storage.Updater
}

// RunUpdater checks the Updater contract on key, which must not exist yet.
func RunUpdater(t *testing.T, b Backend, key string) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key arrives as nil", func(t *testing.T) {
		var seen []byte
		called := false
		require.NoError(t, b.Update(ctx, key, func(current []byte) ([]byte, error) {
			called, seen = true, current
			return []byte("0"), nil
		}))
		assert.True(t, called)
		assert.Nil(t, seen)
		got, err := b.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "0", string(got))
	})

	t.Run("unchanged skips the write", func(t *testing.T) {
		require.NoError(t, b.Update(ctx, key, func([]byte) ([]byte, error) {
			return []byte("ignored"), storage.ErrUnchanged
		}))
		got, err := b.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "0", string(got))
	})

	t.Run("callback error aborts", func(t *testing.T) {
		boom := errors.New("boom")
		err := b.Update(ctx, key, func([]byte) ([]byte, error) { return []byte("x"), boom })
		require.ErrorIs(t, err, boom)
		got, err := b.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "0", string(got))
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		const writers, rounds = 4, 5
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < rounds; j++ {
					assert.NoError(t, b.Update(ctx, key, increment))
				}
			}()
		}
		wg.Wait()
		got, err := b.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(writers*rounds), string(got))
	})

	t.Run("empty key", func(t *testing.T) {
		err := b.Update(ctx, " ", increment)
		assert.ErrorIs(t, err, storage.ErrInvalidKey)
	})
}

func increment(current []byte) ([]byte, error) {
	n, err := strconv.Atoi(string(current))
	if err != nil {
		return nil, err
	}
	return []byte(strconv.Itoa(n + 1)), nil
}

package blobstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottledStorePassThrough(t *testing.T) {
	ctx := context.Background()
	s := NewThrottledStore(NewMemoryStore(), Limits{})

	require.NoError(t, s.Put(ctx, "a", []byte("hello")))
	data, err := ReadAll(ctx, s, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	err = s.PutIfAbsent(ctx, "a", []byte("other"))
	assert.ErrorIs(t, err, ErrExists)

	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Open(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestThrottledStoreChunksLargeWrites(t *testing.T) {
	ctx := context.Background()
	// The burst equals one second of budget; the write above it waits for
	// the second chunk.
	s := NewThrottledStore(NewMemoryStore(), Limits{BytesPerSecond: 1 << 20})
	payload := make([]byte, 3<<19)
	require.NoError(t, s.Put(ctx, "big", payload))

	b, err := s.Open(ctx, "big")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, int64(len(payload)), b.Size())
}

func TestThrottledStoreCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewThrottledStore(NewMemoryStore(), Limits{BytesPerSecond: 1})
	err := s.Put(ctx, "a", []byte("0123456789"))
	assert.ErrorIs(t, err, context.Canceled)

	s = NewThrottledStore(NewMemoryStore(), Limits{MaxInFlight: 1})
	_, err = s.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThrottledStoreMaxInFlight(t *testing.T) {
	ctx := context.Background()
	s := NewThrottledStore(NewMemoryStore(), Limits{MaxInFlight: 2, RequestsPerSecond: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, string(rune('a'+i)), []byte{byte(i)}))
		}(i)
	}
	wg.Wait()

	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, names, 8)
}

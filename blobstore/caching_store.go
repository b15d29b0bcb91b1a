package blobstore

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachingStore wraps a BlobStore and caches whole blobs after the first read.
//
// Records are immutable once written, so a cached copy stays valid until the
// blob is replaced or deleted through this store. Concurrent first reads of the
// same blob are collapsed into one backend request.
type CachingStore struct {
	inner BlobStore

	mu    sync.RWMutex
	blobs map[string][]byte
	group singleflight.Group
}

// NewCachingStore creates a new CachingStore in front of inner.
func NewCachingStore(inner BlobStore) *CachingStore {
	return &CachingStore{
		inner: inner,
		blobs: make(map[string][]byte),
	}
}

// Open returns a cached blob, loading it from the inner store on a miss.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	s.mu.RLock()
	data, ok := s.blobs[name]
	s.mu.RUnlock()
	if ok {
		return &memoryBlob{data: data}, nil
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		data, err := ReadAll(ctx, s.inner, name)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.blobs[name] = data
		s.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return &memoryBlob{data: v.([]byte)}, nil
}

// Put writes through to the inner store and drops the cached copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// PutIfAbsent writes through to the inner store with write-once semantics.
func (s *CachingStore) PutIfAbsent(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return PutIfAbsent(ctx, s.inner, name, data)
}

// Delete removes the blob from the inner store and the cache.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List delegates to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Len returns the number of cached blobs.
func (s *CachingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	delete(s.blobs, name)
	s.mu.Unlock()
}

package blobstore

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limits bounds the load a ThrottledStore puts on its inner store.
// Zero fields are unlimited.
type Limits struct {
	// RequestsPerSecond limits Open, Put, PutIfAbsent, Delete and List calls.
	RequestsPerSecond float64
	// BytesPerSecond limits bytes written by Put and read through blobs.
	BytesPerSecond int64
	// MaxInFlight limits concurrent requests.
	MaxInFlight int64
}

// ThrottledStore wraps a BlobStore with request and byte rate limits.
type ThrottledStore struct {
	inner    BlobStore
	requests *rate.Limiter       // nil if unlimited
	bytes    *rate.Limiter       // nil if unlimited
	inFlight *semaphore.Weighted // nil if unlimited
}

// NewThrottledStore creates a ThrottledStore.
func NewThrottledStore(inner BlobStore, l Limits) *ThrottledStore {
	s := &ThrottledStore{inner: inner}
	if l.RequestsPerSecond > 0 {
		burst := int(l.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		s.requests = rate.NewLimiter(rate.Limit(l.RequestsPerSecond), burst)
	}
	if l.BytesPerSecond > 0 {
		s.bytes = rate.NewLimiter(rate.Limit(l.BytesPerSecond), int(l.BytesPerSecond))
	}
	if l.MaxInFlight > 0 {
		s.inFlight = semaphore.NewWeighted(l.MaxInFlight)
	}
	return s
}

func (s *ThrottledStore) acquire(ctx context.Context) (func(), error) {
	if s.inFlight != nil {
		if err := s.inFlight.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	release := func() {
		if s.inFlight != nil {
			s.inFlight.Release(1)
		}
	}
	if s.requests != nil {
		if err := s.requests.Wait(ctx); err != nil {
			release()
			return nil, err
		}
	}
	return release, nil
}

// waitBytes blocks until n bytes may pass. Requests larger than the burst
// are admitted in burst-sized chunks.
func (s *ThrottledStore) waitBytes(ctx context.Context, n int) error {
	if s.bytes == nil {
		return nil
	}
	burst := s.bytes.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := s.bytes.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// Open opens a blob whose reads are byte limited.
func (s *ThrottledStore) Open(ctx context.Context, name string) (Blob, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &throttledBlob{Blob: b, s: s}, nil
}

// Put writes a blob.
func (s *ThrottledStore) Put(ctx context.Context, name string, data []byte) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	if err := s.waitBytes(ctx, len(data)); err != nil {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

// PutIfAbsent writes a blob unless it exists, using the inner store's
// conditional write when it has one.
func (s *ThrottledStore) PutIfAbsent(ctx context.Context, name string, data []byte) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	if err := s.waitBytes(ctx, len(data)); err != nil {
		return err
	}
	return PutIfAbsent(ctx, s.inner, name, data)
}

// Delete removes a blob.
func (s *ThrottledStore) Delete(ctx context.Context, name string) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return s.inner.Delete(ctx, name)
}

// List lists blobs with the given prefix.
func (s *ThrottledStore) List(ctx context.Context, prefix string) ([]string, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.inner.List(ctx, prefix)
}

type throttledBlob struct {
	Blob
	s *ThrottledStore
}

func (b *throttledBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := b.s.waitBytes(ctx, len(p)); err != nil {
		return 0, err
	}
	return b.Blob.ReadAt(ctx, p, off)
}

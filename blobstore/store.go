package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrExists is returned by PutIfAbsent when the blob already exists.
var ErrExists = os.ErrExist

// BlobStore is an abstraction for reading and writing small immutable blobs
// (split and name records).
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ConditionalPutter is an optional interface for stores that can write a blob
// only if it does not exist yet.
type ConditionalPutter interface {
	// PutIfAbsent writes the blob or returns an error satisfying
	// errors.Is(err, ErrExists) when a blob with this name is already present.
	PutIfAbsent(ctx context.Context, name string, data []byte) error
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes starting at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// ReadAll opens name and returns its full content. The blob is closed on
// every return path.
func ReadAll(ctx context.Context, s BlobStore, name string) (data []byte, err error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close blob %s: %w", name, cerr)
		}
	}()

	size := b.Size()
	data = make([]byte, size)
	if size == 0 {
		return data, nil
	}
	n, err := b.ReadAt(ctx, data, 0)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == size) {
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	if int64(n) != size {
		return nil, fmt.Errorf("read blob %s: short read %d of %d bytes", name, n, size)
	}
	return data, nil
}

// Exists reports whether a blob with the given name is present.
func Exists(ctx context.Context, s BlobStore, name string) (bool, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, b.Close()
}

// PutIfAbsent writes data under name unless a blob already exists there.
//
// Stores implementing ConditionalPutter get an atomic check. Other stores fall
// back to check-then-put, which is only safe with a single writer per name.
func PutIfAbsent(ctx context.Context, s BlobStore, name string, data []byte) error {
	if cp, ok := s.(ConditionalPutter); ok {
		return cp.PutIfAbsent(ctx, name, data)
	}
	ok, err := Exists(ctx, s, name)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("blob %s: %w", name, ErrExists)
	}
	return s.Put(ctx, name, data)
}

package record

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/protsplit/blobstore"
	"github.com/hupe1980/protsplit/codec"
)

// Store reads and writes records through a blob store.
type Store struct {
	blobs blobstore.BlobStore
	codec codec.Codec
	mu    sync.Mutex
}

// NewStore creates a record store. Records are written with c; reads detect
// the codec from the stored bytes. A nil c means codec.Default.
func NewStore(blobs blobstore.BlobStore, c codec.Codec) *Store {
	if c == nil {
		c = codec.Default
	}
	return &Store{
		blobs: blobs,
		codec: c,
	}
}

// LoadSplit loads the split record at path. ok is false when none exists.
func (s *Store) LoadSplit(ctx context.Context, path string) (rec *SplitRecord, ok bool, err error) {
	rec = new(SplitRecord)
	ok, err = s.load(ctx, path, rec)
	if !ok {
		return nil, ok, err
	}
	return rec, true, nil
}

// SaveSplit writes rec at path. An existing record is never replaced; the
// error then satisfies errors.Is(err, blobstore.ErrExists).
func (s *Store) SaveSplit(ctx context.Context, path string, rec *SplitRecord) error {
	return s.save(ctx, path, rec)
}

// LoadNames loads the name record belonging to splitPath.
func (s *Store) LoadNames(ctx context.Context, splitPath string) (rec *NameRecord, ok bool, err error) {
	rec = new(NameRecord)
	ok, err = s.load(ctx, NamePath(splitPath), rec)
	if !ok {
		return nil, ok, err
	}
	return rec, true, nil
}

// SaveNames writes the name record belonging to splitPath unless one exists.
// It reports whether the record was written. The four sets must be pairwise
// disjoint.
func (s *Store) SaveNames(ctx context.Context, splitPath string, rec *NameRecord) (bool, error) {
	if err := rec.CheckDisjoint(); err != nil {
		return false, err
	}
	err := s.save(ctx, NamePath(splitPath), rec)
	if errors.Is(err, blobstore.ErrExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) load(ctx context.Context, path string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := blobstore.ReadAll(ctx, s.blobs, path)
	if errors.Is(err, blobstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read record %s: %w", path, err)
	}
	if err := codec.Sniff(data).Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, path, err)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, path string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", path, err)
	}
	if err := blobstore.PutIfAbsent(ctx, s.blobs, path, data); err != nil {
		return fmt.Errorf("write record %s: %w", path, err)
	}
	return nil
}

package record

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/protsplit/blobstore"
	"github.com/hupe1980/protsplit/codec"
	"github.com/hupe1980/protsplit/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *SplitRecord {
	return &SplitRecord{
		PosTrain: []int{0, 1, 3},
		PosTest:  []int{2},
		NegTrain: []int{1},
		NegTest:  []int{0},
	}
}

func TestStoreSplitRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}, codec.Zstd{}, codec.LZ4{}} {
		t.Run(c.Name(), func(t *testing.T) {
			s := NewStore(blobstore.NewMemoryStore(), c)

			_, ok, err := s.LoadSplit(ctx, "d.json")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.SaveSplit(ctx, "d.json", sample()))
			got, ok, err := s.LoadSplit(ctx, "d.json")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, sample(), got)
		})
	}
}

func TestStoreSplitWriteOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore(blobstore.NewLocalStore(t.TempDir()), nil)

	require.NoError(t, s.SaveSplit(ctx, "splits/d.json", sample()))

	other := &SplitRecord{PosTrain: []int{9}}
	err := s.SaveSplit(ctx, "splits/d.json", other)
	assert.ErrorIs(t, err, blobstore.ErrExists)

	got, ok, err := s.LoadSplit(ctx, "splits/d.json")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample(), got)
}

func TestStoreSplitWireFormat(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	s := NewStore(mem, codec.JSON{})
	require.NoError(t, s.SaveSplit(ctx, "d.json", sample()))

	data, err := blobstore.ReadAll(ctx, mem, "d.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pos_train_indices":[0,1,3],"pos_test_indices":[2],"neg_train_indices":[1],"neg_test_indices":[0]}`, string(data))
}

func TestStoreCorruptRecord(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	require.NoError(t, mem.Put(ctx, "d.json", []byte("{not json")))

	_, ok, err := NewStore(mem, nil).LoadSplit(ctx, "d.json")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestStoreNamesOnce(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	s := NewStore(mem, nil)

	first := NewNameRecord([]string{"a"}, []string{"b"}, []string{"n1"}, []string{"n2"})
	written, err := s.SaveNames(ctx, "d.json", first)
	require.NoError(t, err)
	assert.True(t, written)

	ok, err := blobstore.Exists(ctx, mem, "d_name.json")
	require.NoError(t, err)
	assert.True(t, ok)

	second := NewNameRecord([]string{"x"}, []string{"y"}, nil, nil)
	written, err = s.SaveNames(ctx, "d.json", second)
	require.NoError(t, err)
	assert.False(t, written)

	got, ok, err := s.LoadNames(ctx, "d.json")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, got)
}

func TestStoreNamesRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	s := NewStore(mem, nil)

	rec := NewNameRecord([]string{"a"}, []string{"a"}, nil, nil)
	written, err := s.SaveNames(ctx, "d.json", rec)
	assert.ErrorIs(t, err, ErrNotDisjoint)
	assert.False(t, written)

	ok, err := blobstore.Exists(ctx, mem, "d_name.json")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreSaveFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("d.json", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	s := NewStore(blobstore.NewLocalStore(dir, blobstore.WithFileSystem(faulty)), nil)

	err := s.SaveSplit(ctx, "d.json", sample())
	assert.ErrorIs(t, err, fs.ErrInjected)

	faulty.ClearRules()
	_, ok, err := s.LoadSplit(ctx, "d.json")
	require.NoError(t, err)
	assert.False(t, ok)

	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

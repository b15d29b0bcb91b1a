package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/protsplit/internal/groupset"
	"github.com/hupe1980/protsplit/split"
)

var (
	// ErrCorruptRecord is returned when a stored record cannot be decoded or
	// does not fit the pools it is applied to.
	ErrCorruptRecord = errors.New("corrupt record")
	// ErrNotDisjoint is returned when two name sets share a group.
	ErrNotDisjoint = errors.New("name sets are not disjoint")
)

// NameSuffix is appended to the base name of a split path to derive the name
// record path.
const NameSuffix = "_name"

// SplitRecord is the persisted form of a split.Partition.
type SplitRecord struct {
	PosTrain []int `json:"pos_train_indices"`
	PosTest  []int `json:"pos_test_indices"`
	NegTrain []int `json:"neg_train_indices"`
	NegTest  []int `json:"neg_test_indices"`
}

// FromPartition converts p into a record.
func FromPartition(p *split.Partition) *SplitRecord {
	return &SplitRecord{
		PosTrain: orEmpty(p.PosTrain),
		PosTest:  orEmpty(p.PosTest),
		NegTrain: orEmpty(p.NegTrain),
		NegTest:  orEmpty(p.NegTest),
	}
}

// Partition converts the record back into a partition.
func (r *SplitRecord) Partition() *split.Partition {
	return &split.Partition{
		PosTrain: r.PosTrain,
		PosTest:  r.PosTest,
		NegTrain: r.NegTrain,
		NegTest:  r.NegTest,
	}
}

// Validate checks the record against pools of nPos positive and nNeg negative
// rows: every index is in range and no row is on both sides.
func (r *SplitRecord) Validate(nPos, nNeg int) error {
	if err := validatePool("positive", r.PosTrain, r.PosTest, nPos); err != nil {
		return err
	}
	return validatePool("negative", r.NegTrain, r.NegTest, nNeg)
}

func validatePool(pool string, train, test []int, n int) error {
	seen := roaring.New()
	for _, part := range [][]int{train, test} {
		for _, i := range part {
			if i < 0 || i >= n {
				return fmt.Errorf("%w: %s index %d out of range [0, %d)", ErrCorruptRecord, pool, i, n)
			}
			if !seen.CheckedAdd(uint32(i)) {
				return fmt.Errorf("%w: %s index %d listed twice", ErrCorruptRecord, pool, i)
			}
		}
	}
	return nil
}

// NameRecord lists the unique group identifiers of each partition.
type NameRecord struct {
	PosTrain []string `json:"pos_train_names"`
	PosTest  []string `json:"pos_test_names"`
	NegTrain []string `json:"neg_train_names"`
	NegTest  []string `json:"neg_test_names"`
}

// NewNameRecord builds a record from per-row group lists, keeping the first
// occurrence of each group.
func NewNameRecord(posTrain, posTest, negTrain, negTest []string) *NameRecord {
	return &NameRecord{
		PosTrain: groupset.Unique(posTrain),
		PosTest:  groupset.Unique(posTest),
		NegTrain: groupset.Unique(negTrain),
		NegTest:  groupset.Unique(negTest),
	}
}

// CheckDisjoint verifies that no group is listed in two of the four sets.
func (r *NameRecord) CheckDisjoint() error {
	in := groupset.New()
	sets := []struct {
		key string
		set *roaring.Bitmap
	}{
		{"pos_train_names", in.Set(r.PosTrain...)},
		{"pos_test_names", in.Set(r.PosTest...)},
		{"neg_train_names", in.Set(r.NegTrain...)},
		{"neg_test_names", in.Set(r.NegTest...)},
	}
	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			if overlap := in.Overlap(sets[i].set, sets[j].set); len(overlap) > 0 {
				return fmt.Errorf("%w: %s and %s share %v", ErrNotDisjoint, sets[i].key, sets[j].key, overlap)
			}
		}
	}
	return nil
}

// NamePath derives the name record path from a split path:
// "splits/d.json" becomes "splits/d_name.json". Paths without a ".json"
// suffix get NameSuffix appended.
func NamePath(splitPath string) string {
	if base, ok := strings.CutSuffix(splitPath, ".json"); ok {
		return base + NameSuffix + ".json"
	}
	return splitPath + NameSuffix
}

func orEmpty(xs []int) []int {
	if xs == nil {
		return []int{}
	}
	return xs
}

package fold

import (
	"fmt"
	"testing"

	"github.com/hupe1980/protsplit/internal/randstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture returns rows where protein P<i> appears in stratum A and, for every
// third protein, also in stratum B.
func fixture(nGroups int) (groups, y []string) {
	for i := 0; i < nGroups; i++ {
		g := fmt.Sprintf("P%03d", i)
		groups = append(groups, g)
		y = append(y, "A")
		if i%3 == 0 {
			groups = append(groups, g)
			y = append(y, "B")
		}
	}
	return groups, y
}

func TestSplit_PartitionsRowsByGroup(t *testing.T) {
	groups, y := fixture(40)
	folds, err := StratifiedGroupKFold{NSplits: 5, Shuffle: true}.Split(groups, y, randstate.New(7))
	require.NoError(t, err)
	require.Len(t, folds, 5)

	seen := make(map[int]int)
	groupFold := make(map[string]int)
	for f, fold := range folds {
		assert.Equal(t, len(y), len(fold.Train)+len(fold.Test))
		assert.IsIncreasing(t, fold.Test)
		assert.IsIncreasing(t, fold.Train)
		for _, i := range fold.Test {
			seen[i]++
			if prev, ok := groupFold[groups[i]]; ok {
				assert.Equal(t, prev, f, "group %s split across folds", groups[i])
			}
			groupFold[groups[i]] = f
		}
		test := make(map[string]bool)
		for _, i := range fold.Test {
			test[groups[i]] = true
		}
		for _, i := range fold.Train {
			assert.False(t, test[groups[i]], "group %s on both sides", groups[i])
		}
	}
	// Every row is in exactly one test fold.
	assert.Len(t, seen, len(y))
	for _, c := range seen {
		assert.Equal(t, 1, c)
	}
}

func TestSplit_Stratifies(t *testing.T) {
	groups, y := fixture(60)
	folds, err := StratifiedGroupKFold{NSplits: 5, Shuffle: true}.Split(groups, y, randstate.New(1))
	require.NoError(t, err)

	for _, fold := range folds {
		counts := map[string]int{}
		for _, i := range fold.Test {
			counts[y[i]]++
		}
		// 60 A rows and 20 B rows over 5 folds.
		assert.InDelta(t, 12, counts["A"], 2)
		assert.InDelta(t, 4, counts["B"], 2)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	groups, y := fixture(30)
	k := StratifiedGroupKFold{NSplits: 3, Shuffle: true}

	a, err := k.Split(groups, y, randstate.New(99))
	require.NoError(t, err)
	b, err := k.Split(groups, y, randstate.New(99))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := StratifiedGroupKFold{NSplits: 3}.Split(groups, y, nil)
	require.NoError(t, err)
	d, err := StratifiedGroupKFold{NSplits: 3}.Split(groups, y, nil)
	require.NoError(t, err)
	assert.Equal(t, c, d)
}

func TestSplit_Invalid(t *testing.T) {
	groups, y := fixture(10)

	tests := []struct {
		name   string
		k      StratifiedGroupKFold
		groups []string
		y      []string
		rs     *randstate.State
	}{
		{"one split", StratifiedGroupKFold{NSplits: 1}, groups, y, nil},
		{"length mismatch", StratifiedGroupKFold{NSplits: 2}, groups[:3], y, nil},
		{"more splits than rows", StratifiedGroupKFold{NSplits: 5}, []string{"a", "b"}, []string{"A", "A"}, nil},
		{"more splits than groups", StratifiedGroupKFold{NSplits: 3}, []string{"a", "a", "b", "b"}, []string{"A", "B", "A", "B"}, nil},
		{"every class too small", StratifiedGroupKFold{NSplits: 3}, []string{"a", "b", "c", "d"}, []string{"A", "A", "B", "B"}, nil},
		{"shuffle without state", StratifiedGroupKFold{NSplits: 2, Shuffle: true}, groups, y, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.k.Split(tt.groups, tt.y, tt.rs)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestStd(t *testing.T) {
	assert.InDelta(t, 0.0, std([]float64{3, 3, 3}), 1e-12)
	assert.InDelta(t, 2.0, std([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Equal(t, 0.0, std(nil))
}

package fold

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/protsplit/internal/randstate"
)

// ErrInvalid is wrapped by every error describing inputs the fold procedure
// cannot partition. Such errors do not depend on the random state.
var ErrInvalid = errors.New("invalid stratification")

// Fold is one train/test assignment of row indices. Both slices are ascending.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedGroupKFold partitions rows into NSplits folds.
type StratifiedGroupKFold struct {
	NSplits int
	Shuffle bool
}

// Split returns NSplits folds over len(y) rows. groups[i] and y[i] are the
// group and class of row i. rs is only consulted when Shuffle is set.
func (k StratifiedGroupKFold) Split(groups, y []string, rs *randstate.State) ([]Fold, error) {
	n := len(y)
	switch {
	case k.NSplits < 2:
		return nil, fmt.Errorf("%w: n_splits=%d, need at least 2", ErrInvalid, k.NSplits)
	case len(groups) != n:
		return nil, fmt.Errorf("%w: %d groups for %d rows", ErrInvalid, len(groups), n)
	case n < k.NSplits:
		return nil, fmt.Errorf("%w: cannot have n_splits=%d greater than the number of rows %d", ErrInvalid, k.NSplits, n)
	}
	if k.Shuffle && rs == nil {
		return nil, fmt.Errorf("%w: shuffle requires a random state", ErrInvalid)
	}

	classInv, classCnt := inverse(y)
	groupInv, groupCnt := inverse(groups)
	nClasses := len(classCnt)
	nGroups := len(groupCnt)

	if nGroups < k.NSplits {
		return nil, fmt.Errorf("%w: cannot have n_splits=%d greater than the number of groups %d", ErrInvalid, k.NSplits, nGroups)
	}
	allSmall := true
	for _, c := range classCnt {
		if c >= k.NSplits {
			allSmall = false
			break
		}
	}
	if allSmall {
		return nil, fmt.Errorf("%w: n_splits=%d cannot be greater than the number of members in each class", ErrInvalid, k.NSplits)
	}

	countsPerGroup := make([][]float64, nGroups)
	for g := range countsPerGroup {
		countsPerGroup[g] = make([]float64, nClasses)
	}
	for i := 0; i < n; i++ {
		countsPerGroup[groupInv[i]][classInv[i]]++
	}

	order := make([]int, nGroups)
	for i := range order {
		order[i] = i
	}
	if k.Shuffle {
		rs.Shuffle(nGroups, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	spread := make([]float64, nGroups)
	for g := range spread {
		spread[g] = std(countsPerGroup[g])
	}
	sort.SliceStable(order, func(a, b int) bool {
		return spread[order[a]] > spread[order[b]]
	})

	totals := make([]float64, nClasses)
	for c, cnt := range classCnt {
		totals[c] = float64(cnt)
	}
	countsPerFold := make([][]float64, k.NSplits)
	for f := range countsPerFold {
		countsPerFold[f] = make([]float64, nClasses)
	}
	foldOf := make([]int, nGroups)
	for _, g := range order {
		best := bestFold(countsPerFold, totals, countsPerGroup[g])
		for c, v := range countsPerGroup[g] {
			countsPerFold[best][c] += v
		}
		foldOf[g] = best
	}

	folds := make([]Fold, k.NSplits)
	for f := range folds {
		test := roaring.New()
		for i := 0; i < n; i++ {
			if foldOf[groupInv[i]] == f {
				test.Add(uint32(i))
			}
		}
		train := roaring.Flip(test, 0, uint64(n))
		folds[f] = Fold{Train: toInts(train), Test: toInts(test)}
	}
	return folds, nil
}

func bestFold(countsPerFold [][]float64, totals, groupCounts []float64) int {
	best := -1
	minEval := math.Inf(1)
	minSamples := math.Inf(1)
	nClasses := len(totals)
	normalized := make([]float64, len(countsPerFold))

	for i := range countsPerFold {
		for c, v := range groupCounts {
			countsPerFold[i][c] += v
		}
		eval := 0.0
		for c := 0; c < nClasses; c++ {
			for f := range countsPerFold {
				normalized[f] = countsPerFold[f][c] / totals[c]
			}
			eval += std(normalized)
		}
		eval /= float64(nClasses)
		for c, v := range groupCounts {
			countsPerFold[i][c] -= v
		}

		samples := 0.0
		for _, v := range countsPerFold[i] {
			samples += v
		}
		if eval < minEval || (isClose(eval, minEval) && samples < minSamples) {
			minEval = eval
			minSamples = samples
			best = i
		}
	}
	return best
}

// inverse maps each value to the index of its rank among the sorted distinct
// values and returns the count per distinct value.
func inverse(xs []string) ([]int, []int) {
	distinct := make([]string, 0)
	seen := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		if _, ok := seen[x]; !ok {
			seen[x] = struct{}{}
			distinct = append(distinct, x)
		}
	}
	sort.Strings(distinct)
	rank := make(map[string]int, len(distinct))
	for i, x := range distinct {
		rank[x] = i
	}
	inv := make([]int, len(xs))
	cnt := make([]int, len(distinct))
	for i, x := range xs {
		r := rank[x]
		inv[i] = r
		cnt[r]++
	}
	return inv, cnt
}

// std is the population standard deviation.
func std(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	v := 0.0
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return math.Sqrt(v / float64(len(xs)))
}

func isClose(a, b float64) bool {
	if math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}

func toInts(b *roaring.Bitmap) []int {
	out := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

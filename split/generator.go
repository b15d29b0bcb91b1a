package split

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/protsplit/dataset"
	"github.com/hupe1980/protsplit/internal/fold"
	"github.com/hupe1980/protsplit/internal/groupset"
	"github.com/hupe1980/protsplit/internal/randstate"
)

// Defaults for the split constraints.
const (
	DefaultTestSize         = 0.2
	DefaultMinTestPositives = 5
	DefaultMaxAttempts      = 10
)

// Reason classifies the outcome of a single generation attempt.
type Reason uint8

const (
	// ReasonNone marks a successful attempt.
	ReasonNone Reason = iota
	// ReasonInsufficientPositives: no positive fold met the per-stratum minimum.
	ReasonInsufficientPositives
	// ReasonInvalidStratification: the fold procedure rejected the pools.
	ReasonInvalidStratification
	// ReasonGroupLeak: a fold placed one group on both sides.
	ReasonGroupLeak
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonInsufficientPositives:
		return "insufficient-positives"
	case ReasonInvalidStratification:
		return "invalid-stratification"
	case ReasonGroupLeak:
		return "group-leak"
	default:
		return "unknown"
	}
}

// Retryable reports whether a fresh seed can change the outcome.
func (r Reason) Retryable() bool {
	return r == ReasonInsufficientPositives
}

// Outcome is the result of one Generate call.
type Outcome struct {
	// Partition is set when Reason is ReasonNone.
	Partition *Partition
	Reason    Reason
	// PosFold is the accepted positive fold, or the best one on failure.
	PosFold int
	// NegFold is the chosen negative fold; -1 when none was chosen.
	NegFold int
	// Counts holds the test positives per stratum of PosFold.
	Counts map[string]int
	// Short lists the strata of PosFold at or below the minimum.
	Short []string
	// Err describes the failure; nil on success.
	Err error
}

// OK reports whether the attempt produced a partition.
func (o Outcome) OK() bool {
	return o.Reason == ReasonNone
}

// NSplits returns the number of folds for a test fraction: round(1/testSize).
// At least two folds are required.
func NSplits(testSize float64) (int, error) {
	if !(testSize > 0 && testSize <= 1) {
		return 0, fmt.Errorf("test size %v outside (0, 1)", testSize)
	}
	n := int(math.Round(1 / testSize))
	if n < 2 {
		return 0, fmt.Errorf("test size %v gives %d fold, want at least 2", testSize, n)
	}
	return n, nil
}

// Generator produces one candidate partition per call.
type Generator struct {
	NSplits          int
	MinTestPositives int
}

// NewGenerator returns a Generator for the given test fraction.
func NewGenerator(testSize float64, minTestPositives int) (*Generator, error) {
	n, err := NSplits(testSize)
	if err != nil {
		return nil, err
	}
	return &Generator{NSplits: n, MinTestPositives: minTestPositives}, nil
}

// Generate tries to build a partition from seed. The positive and negative
// fold enumerations are each shuffled by a fresh state seeded with seed; the
// negative fold is drawn from rs.
func (g *Generator) Generate(ex *dataset.Examples, seed int64, rs *randstate.State) Outcome {
	k := fold.StratifiedGroupKFold{NSplits: g.NSplits, Shuffle: true}

	posFolds, err := k.Split(ex.Positive.Groups, ex.Positive.Strata, randstate.New(seed))
	if err != nil {
		return invalid("positive", err)
	}

	strata := ex.PositiveStrata()
	chosen := -1
	best, bestShort := -1, []string(nil)
	var bestCounts map[string]int
	for i, f := range posFolds {
		counts := countByStratum(ex.Positive.Strata, f.Test)
		var short []string
		for _, s := range strata {
			if counts[s] <= g.MinTestPositives {
				short = append(short, s)
			}
		}
		if best < 0 || len(short) < len(bestShort) {
			best, bestShort, bestCounts = i, short, counts
		}
		if len(short) == 0 {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		return Outcome{
			Reason:  ReasonInsufficientPositives,
			PosFold: best,
			NegFold: -1,
			Counts:  bestCounts,
			Short:   bestShort,
			Err: fmt.Errorf("%w: no fold of %d keeps more than %d test positives in %v",
				ErrInsufficientPositives, g.NSplits, g.MinTestPositives, bestShort),
		}
	}

	negFolds, err := k.Split(ex.Negative.Groups, ex.Negative.Strata, randstate.New(seed))
	if err != nil {
		return invalid("negative", err)
	}
	negChosen := rs.Intn(len(negFolds))

	pos, neg := posFolds[chosen], negFolds[negChosen]
	if err := checkExclusive("positive", ex.Positive.Groups, pos); err != nil {
		return Outcome{Reason: ReasonGroupLeak, PosFold: chosen, NegFold: negChosen, Err: err}
	}
	if err := checkExclusive("negative", ex.Negative.Groups, neg); err != nil {
		return Outcome{Reason: ReasonGroupLeak, PosFold: chosen, NegFold: negChosen, Err: err}
	}

	return Outcome{
		Partition: &Partition{
			PosTrain: pos.Train,
			PosTest:  pos.Test,
			NegTrain: neg.Train,
			NegTest:  neg.Test,
		},
		Reason:  ReasonNone,
		PosFold: chosen,
		NegFold: negChosen,
		Counts:  bestCounts,
	}
}

func invalid(pool string, err error) Outcome {
	if !errors.Is(err, fold.ErrInvalid) {
		err = fmt.Errorf("%w: %w", fold.ErrInvalid, err)
	}
	return Outcome{
		Reason:  ReasonInvalidStratification,
		PosFold: -1,
		NegFold: -1,
		Err:     fmt.Errorf("%w: %s pool: %w", ErrInvalidStratification, pool, err),
	}
}

// checkExclusive verifies that no group has rows on both sides of f.
func checkExclusive(pool string, groups []string, f fold.Fold) error {
	in := groupset.New()
	train := in.Set(pick(groups, f.Train)...)
	test := in.Set(pick(groups, f.Test)...)
	if overlap := in.Overlap(train, test); len(overlap) > 0 {
		return fmt.Errorf("%w: %s pool: %v", ErrGroupLeak, pool, overlap)
	}
	return nil
}

func pick(xs []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

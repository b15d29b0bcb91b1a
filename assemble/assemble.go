package assemble

import (
	"fmt"

	"github.com/hupe1980/protsplit/dataset"
	"github.com/hupe1980/protsplit/internal/groupset"
	"github.com/hupe1980/protsplit/record"
	"github.com/hupe1980/protsplit/split"
)

// ErrGroupLeak is returned when a test group also appears in training.
var ErrGroupLeak = split.ErrGroupLeak

// Action says what happened to a stratum's test rows.
type Action uint8

const (
	// TwoClass strata keep a block with positives first, then negatives.
	TwoClass Action = iota
	// PositiveOnly strata keep a block of positives.
	PositiveOnly
	// NegativeOnly strata are left out of the test mapping.
	NegativeOnly
	// Empty strata have no test rows.
	Empty
)

func (a Action) String() string {
	switch a {
	case TwoClass:
		return "two-class"
	case PositiveOnly:
		return "positive-only"
	case NegativeOnly:
		return "negative-only"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Block is a labeled set of rows.
type Block struct {
	Embeddings *dataset.Matrix
	// Labels are 1 for positives and 0 for negatives.
	Labels []int
	Groups []string
}

// Len returns the number of rows.
func (b *Block) Len() int {
	return len(b.Labels)
}

// TrainBlock is the training block with the stratum of each row.
type TrainBlock struct {
	Block
	Strata []string
}

// StratumTest summarizes the test rows of one stratum.
type StratumTest struct {
	Name      string
	Action    Action
	Positives int
	Negatives int
}

// Result is the assembled split.
type Result struct {
	Train TrainBlock
	// Test holds a block per stratum with positive test rows.
	Test map[string]*Block
	// TestLabels holds the test labels of every primary stratum, including
	// strata left out of Test.
	TestLabels map[string][]int
	// Strata describes every primary stratum in order.
	Strata []StratumTest
	Names  *record.NameRecord
}

// Build assembles the blocks of partition p over ex and runs the leakage
// check. Indices in p must be valid for ex.
func Build(ex *dataset.Examples, p *split.Partition) (*Result, error) {
	pos, neg := &ex.Positive, &ex.Negative

	trainX, err := dataset.Concat(pos.Embeddings.Gather(p.PosTrain), neg.Embeddings.Gather(p.NegTrain))
	if err != nil {
		return nil, fmt.Errorf("training block: %w", err)
	}
	train := TrainBlock{Block: Block{Embeddings: trainX}}
	for _, i := range p.PosTrain {
		train.Labels = append(train.Labels, 1)
		train.Groups = append(train.Groups, pos.Groups[i])
		train.Strata = append(train.Strata, pos.Strata[i])
	}
	for _, i := range p.NegTrain {
		train.Labels = append(train.Labels, 0)
		train.Groups = append(train.Groups, neg.Groups[i])
		train.Strata = append(train.Strata, neg.Strata[i])
	}

	posBy := byStratum(pos.Strata, p.PosTest)
	negBy := byStratum(neg.Strata, p.NegTest)

	res := &Result{
		Train:      train,
		Test:       make(map[string]*Block),
		TestLabels: make(map[string][]int, len(ex.Strata)),
	}
	for _, name := range ex.Strata {
		pi, ni := posBy[name], negBy[name]
		st := StratumTest{Name: name, Positives: len(pi), Negatives: len(ni)}

		labels := make([]int, 0, len(pi)+len(ni))
		for range pi {
			labels = append(labels, 1)
		}
		for range ni {
			labels = append(labels, 0)
		}
		res.TestLabels[name] = labels

		switch {
		case len(pi) > 0 && len(ni) > 0:
			st.Action = TwoClass
			x, err := dataset.Concat(pos.Embeddings.Gather(pi), neg.Embeddings.Gather(ni))
			if err != nil {
				return nil, fmt.Errorf("test block %q: %w", name, err)
			}
			res.Test[name] = &Block{
				Embeddings: x,
				Labels:     labels,
				Groups:     append(pick(pos.Groups, pi), pick(neg.Groups, ni)...),
			}
		case len(pi) > 0:
			st.Action = PositiveOnly
			res.Test[name] = &Block{
				Embeddings: pos.Embeddings.Gather(pi),
				Labels:     labels,
				Groups:     pick(pos.Groups, pi),
			}
		case len(ni) > 0:
			st.Action = NegativeOnly
		default:
			st.Action = Empty
		}
		res.Strata = append(res.Strata, st)
	}

	res.Names = record.NewNameRecord(
		pick(pos.Groups, p.PosTrain),
		pick(pos.Groups, p.PosTest),
		pick(neg.Groups, p.NegTrain),
		pick(neg.Groups, p.NegTest),
	)

	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// Validate checks that no group of a retained test block appears in the
// training block.
func (r *Result) Validate() error {
	in := groupset.New()
	train := in.Set(r.Train.Groups...)
	for _, st := range r.Strata {
		b, ok := r.Test[st.Name]
		if !ok {
			continue
		}
		if overlap := in.Overlap(train, in.Set(b.Groups...)); len(overlap) > 0 {
			return fmt.Errorf("%w: stratum %q: %v", ErrGroupLeak, st.Name, overlap)
		}
	}
	return nil
}

func byStratum(strata []string, idx []int) map[string][]int {
	out := make(map[string][]int)
	for _, i := range idx {
		out[strata[i]] = append(out[strata[i]], i)
	}
	return out
}

func pick(xs []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

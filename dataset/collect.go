package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrStructure reports inputs whose shapes disagree (corrupt data).
	ErrStructure = errors.New("structural mismatch")
	// ErrNoNegatives reports a primary stratum without any negative example.
	ErrNoNegatives = errors.New("stratum has no negative examples")
)

// Labels maps a stratum to protein ids.
type Labels map[string][]string

// Input holds everything the collector needs for one disease.
type Input struct {
	// Embeddings holds one row per (stratum, protein) pair.
	Embeddings *Matrix
	// Rows maps a stratum to its row indices in Embeddings, parallel to Proteins.
	Rows map[string][]int
	// Proteins maps a stratum to its ordered protein ids.
	Proteins map[string][]string
	// Positives and Negatives are the labeled protein ids per stratum.
	Positives Labels
	Negatives Labels
	// Strata fixes the iteration order. Nil means the sorted keys of Proteins.
	Strata []Stratum
}

// Pool is an ordered collection of examples of one class.
type Pool struct {
	Embeddings *Matrix
	Groups     []string
	Strata     []string
}

// Len returns the number of examples in the pool.
func (p *Pool) Len() int {
	return len(p.Groups)
}

func (p *Pool) add(row []float32, group, stratum string) {
	p.Embeddings.appendRow(row)
	p.Groups = append(p.Groups, group)
	p.Strata = append(p.Strata, stratum)
}

// StratumStats counts the examples collected for one stratum.
type StratumStats struct {
	Name      string
	Positives int
	Negatives int
}

// Examples is the output of Collect.
type Examples struct {
	Positive Pool
	Negative Pool
	// Strata lists the primary strata in iteration order.
	Strata []string
	// Stats holds one entry per primary stratum, in Strata order.
	Stats []StratumStats
}

// PositiveStrata returns the primary strata that contributed positives.
func (e *Examples) PositiveStrata() []string {
	out := make([]string, 0, len(e.Stats))
	for _, s := range e.Stats {
		if s.Positives > 0 {
			out = append(out, s.Name)
		}
	}
	return out
}

// Collect gathers the positive and negative examples of every primary stratum.
//
// A stratum without positive matches is skipped for positives. A stratum
// without negative matches, a match count that differs from the number of
// labeled ids, or a row list that does not line up with the protein list is
// fatal.
func Collect(in Input) (*Examples, error) {
	if in.Embeddings == nil {
		return nil, fmt.Errorf("%w: no embedding matrix", ErrStructure)
	}
	strata := in.Strata
	if strata == nil {
		strata = Strata(sortedKeys(in.Proteins)...)
	}

	ex := &Examples{
		Positive: Pool{Embeddings: &Matrix{Dim: in.Embeddings.Dim}},
		Negative: Pool{Embeddings: &Matrix{Dim: in.Embeddings.Dim}},
	}
	for _, s := range strata {
		if s.Kind != Primary {
			continue
		}
		proteins, ok := in.Proteins[s.Name]
		if !ok {
			return nil, fmt.Errorf("%w: stratum %q has no protein list", ErrStructure, s.Name)
		}
		rows := in.Rows[s.Name]
		if len(rows) != len(proteins) {
			return nil, fmt.Errorf("%w: stratum %q has %d embedding rows for %d proteins", ErrStructure, s.Name, len(rows), len(proteins))
		}
		for _, r := range rows {
			if r < 0 || r >= in.Embeddings.Rows {
				return nil, fmt.Errorf("%w: stratum %q references row %d of %d", ErrStructure, s.Name, r, in.Embeddings.Rows)
			}
		}

		stats := StratumStats{Name: s.Name}

		pos := in.Positives[s.Name]
		posIdx := match(proteins, pos)
		if len(posIdx) > 0 {
			if len(posIdx) != len(pos) {
				return nil, fmt.Errorf("%w: stratum %q matched %d positive rows for %d positive ids", ErrStructure, s.Name, len(posIdx), len(pos))
			}
			for _, i := range posIdx {
				ex.Positive.add(in.Embeddings.Row(rows[i]), proteins[i], s.Name)
			}
			stats.Positives = len(posIdx)
		}

		neg := in.Negatives[s.Name]
		negIdx := match(proteins, neg)
		if len(negIdx) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoNegatives, s.Name)
		}
		if len(negIdx) != len(neg) {
			return nil, fmt.Errorf("%w: stratum %q matched %d negative rows for %d negative ids", ErrStructure, s.Name, len(negIdx), len(neg))
		}
		for _, i := range negIdx {
			ex.Negative.add(in.Embeddings.Row(rows[i]), proteins[i], s.Name)
		}
		stats.Negatives = len(negIdx)

		ex.Strata = append(ex.Strata, s.Name)
		ex.Stats = append(ex.Stats, stats)
	}
	return ex, nil
}

// match returns the ascending positions in list whose id is in ids.
func match(list, ids []string) []int {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []int
	for i, p := range list {
		if _, ok := want[p]; ok {
			out = append(out, i)
		}
	}
	return out
}

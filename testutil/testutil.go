package testutil

import (
	"fmt"
	"math/rand"

	"github.com/hupe1980/protsplit/dataset"
)

// RNG wraps a seeded random number generator.
type RNG struct {
	rand *rand.Rand
	seed int64
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// FillUniform fills dst with random values in range [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// Shuffle shuffles xs in place.
func (r *RNG) Shuffle(xs []string) {
	r.rand.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}

// StratumSpec describes one synthetic stratum.
type StratumSpec struct {
	Name      string
	Positives int
	Negatives int
	// Unlabeled proteins appear in the protein list without a label.
	Unlabeled int
	// Prefix namespaces the protein ids. Strata with the same prefix share
	// proteins: positive j is "<prefix>P<j>" in each of them.
	Prefix string
}

// Input builds a dataset.Input with dim-dimensional random embeddings. Strata
// are laid out in the order given; the aggregate "global" stratum is appended
// with the union of all labels.
func Input(rng *RNG, dim int, specs ...StratumSpec) dataset.Input {
	proteins := make(map[string][]string)
	pos := make(dataset.Labels)
	neg := make(dataset.Labels)
	order := make([]string, 0, len(specs)+1)

	for _, s := range specs {
		var list []string
		for j := 0; j < s.Positives; j++ {
			id := fmt.Sprintf("%sP%03d", s.Prefix, j)
			pos[s.Name] = append(pos[s.Name], id)
			list = append(list, id)
		}
		for j := 0; j < s.Negatives; j++ {
			id := fmt.Sprintf("%sN%03d", s.Prefix, j)
			neg[s.Name] = append(neg[s.Name], id)
			list = append(list, id)
		}
		for j := 0; j < s.Unlabeled; j++ {
			list = append(list, fmt.Sprintf("%sU%03d", s.Prefix, j))
		}
		rng.Shuffle(list)
		proteins[s.Name] = list
		order = append(order, s.Name)
	}

	pos = pos.WithAggregates()
	neg = neg.WithAggregates()
	seen := make(map[string]bool)
	var global []string
	for _, name := range order {
		for _, p := range proteins[name] {
			if !seen[p] {
				seen[p] = true
				global = append(global, p)
			}
		}
	}
	proteins[dataset.Global] = global
	order = append(order, dataset.Global)

	layers := &dataset.Layers{Order: order, Proteins: proteins}
	rows, total := layers.Layout()
	m := dataset.NewMatrix(total, dim)
	rng.FillUniform(m.Data)

	return dataset.Input{
		Embeddings: m,
		Rows:       rows,
		Proteins:   proteins,
		Positives:  pos,
		Negatives:  neg,
		Strata:     layers.Strata(),
	}
}

// Examples collects Input and panics on error.
func Examples(rng *RNG, dim int, specs ...StratumSpec) *dataset.Examples {
	ex, err := dataset.Collect(Input(rng, dim, specs...))
	if err != nil {
		panic(err)
	}
	return ex
}

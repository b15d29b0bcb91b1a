package dataset

import "sort"

// Kind distinguishes primary strata from aggregate strata.
type Kind uint8

const (
	// Primary strata are real sub-populations and take part in the split.
	Primary Kind = iota
	// Aggregate strata are unions over all primary strata.
	Aggregate
)

func (k Kind) String() string {
	switch k {
	case Primary:
		return "primary"
	case Aggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// Names of the aggregate strata produced by the evidence pipeline.
const (
	Global = "global"
	ESM    = "esm"
)

// KindOf classifies a stratum name.
func KindOf(name string) Kind {
	switch name {
	case Global, ESM:
		return Aggregate
	default:
		return Primary
	}
}

// Stratum is a named sub-population.
type Stratum struct {
	Name string
	Kind Kind
}

// Strata tags each name with its Kind, keeping the order.
func Strata(names ...string) []Stratum {
	out := make([]Stratum, len(names))
	for i, n := range names {
		out[i] = Stratum{Name: n, Kind: KindOf(n)}
	}
	return out
}

// PrimaryNames returns the names of the primary strata in order.
func PrimaryNames(strata []Stratum) []string {
	out := make([]string, 0, len(strata))
	for _, s := range strata {
		if s.Kind == Primary {
			out = append(out, s.Name)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

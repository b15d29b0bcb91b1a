package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/hupe1980/protsplit/codec"
)

// ErrDiseaseNotFound is returned when a label file has no entry for the disease.
var ErrDiseaseNotFound = errors.New("disease not found in label file")

// LoadLabels decodes a cached evidence label file of the form
// {"<disease>": {"<stratum>": ["<protein>", ...]}} and returns the labels of disease.
func LoadLabels(r io.Reader, disease string) (Labels, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var byDisease map[string]Labels
	if err := codec.Default.Unmarshal(data, &byDisease); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	labels, ok := byDisease[disease]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDiseaseNotFound, disease)
	}
	return labels, nil
}

// ReadLabelsFile opens path and calls LoadLabels.
func ReadLabelsFile(path, disease string) (Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadLabels(f, disease)
}

// WithAggregates returns a copy of l in which Global is the sorted union of all
// primary strata and ESM mirrors Global. Existing aggregate entries are kept.
func (l Labels) WithAggregates() Labels {
	out := make(Labels, len(l)+2)
	seen := make(map[string]struct{})
	for name, ids := range l {
		out[name] = append([]string(nil), ids...)
		if KindOf(name) != Primary {
			continue
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	if _, ok := out[Global]; !ok {
		union := make([]string, 0, len(seen))
		for id := range seen {
			union = append(union, id)
		}
		sort.Strings(union)
		out[Global] = union
	}
	if _, ok := out[ESM]; !ok {
		out[ESM] = append([]string(nil), out[Global]...)
	}
	return out
}

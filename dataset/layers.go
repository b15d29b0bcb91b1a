package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Layers holds the protein lists of cell-type PPI layers.
type Layers struct {
	// Order lists the strata in first-seen order.
	Order []string
	// Proteins maps a stratum to its ordered protein ids.
	Proteins map[string][]string
}

// LoadLayers parses a cell-type PPI layer file. Each non-empty line has at
// least three tab-separated fields: an id, the stratum name and a
// comma-separated protein list. A repeated stratum replaces the earlier list.
func LoadLayers(r io.Reader) (*Layers, error) {
	l := &Layers{Proteins: make(map[string][]string)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: layer line %d has %d fields, want 3", ErrStructure, line, len(fields))
		}
		name := fields[1]
		if _, ok := l.Proteins[name]; !ok {
			l.Order = append(l.Order, name)
		}
		l.Proteins[name] = strings.Split(fields[2], ",")
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return l, nil
}

// Strata returns the layer strata in order, tagged by kind.
func (l *Layers) Strata() []Stratum {
	return Strata(l.Order...)
}

// Layout assigns contiguous embedding rows to the strata in Order, as when
// per-stratum embedding blocks are stacked into one matrix. It returns the
// row indices per stratum and the total row count.
func (l *Layers) Layout() (map[string][]int, int) {
	rows := make(map[string][]int, len(l.Order))
	next := 0
	for _, name := range l.Order {
		n := len(l.Proteins[name])
		idx := make([]int, n)
		for i := range idx {
			idx[i] = next + i
		}
		rows[name] = idx
		next += n
	}
	return rows, next
}

// Package groupset interns group identifiers and represents sets of them as
// roaring bitmaps, so overlap checks between partitions are bitmap ANDs.
package groupset

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Interner assigns dense uint32 ids to group names.
// The zero value is not usable; call New.
type Interner struct {
	ids   map[string]uint32
	names []string
}

// New returns an empty Interner.
func New() *Interner {
	return &Interner{ids: make(map[string]uint32)}
}

// ID returns the id of name, assigning a new one on first use.
func (in *Interner) ID(name string) uint32 {
	if id, ok := in.ids[name]; ok {
		return id
	}
	id := uint32(len(in.names))
	in.ids[name] = id
	in.names = append(in.names, name)
	return id
}

// Name returns the group name for id.
func (in *Interner) Name(id uint32) string {
	return in.names[id]
}

// Set returns the bitmap of the given names.
func (in *Interner) Set(names ...string) *roaring.Bitmap {
	b := roaring.New()
	for _, n := range names {
		b.Add(in.ID(n))
	}
	return b
}

// Names returns the names in b, sorted.
func (in *Interner) Names(b *roaring.Bitmap) []string {
	out := make([]string, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, in.names[it.Next()])
	}
	sort.Strings(out)
	return out
}

// Overlap returns the sorted names present in both a and b.
func (in *Interner) Overlap(a, b *roaring.Bitmap) []string {
	if !a.Intersects(b) {
		return nil
	}
	return in.Names(roaring.And(a, b))
}

// Unique returns the distinct names of xs in first-seen order.
func Unique(xs []string) []string {
	seen := make(map[string]struct{}, len(xs))
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}

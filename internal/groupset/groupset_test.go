package groupset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterner(t *testing.T) {
	in := New()
	assert.Equal(t, uint32(0), in.ID("TP53"))
	assert.Equal(t, uint32(1), in.ID("EGFR"))
	assert.Equal(t, uint32(0), in.ID("TP53"))
	assert.Equal(t, "EGFR", in.Name(1))

	a := in.Set("TP53", "EGFR", "KRAS")
	b := in.Set("KRAS", "BRCA1", "EGFR")
	assert.Equal(t, []string{"EGFR", "KRAS"}, in.Overlap(a, b))
	assert.Equal(t, []string{"EGFR", "KRAS", "TP53"}, in.Names(a))

	c := in.Set("MYC")
	assert.Nil(t, in.Overlap(a, c))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, Unique([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, Unique(nil))
}

package split

import (
	"errors"
	"testing"

	"github.com/hupe1980/protsplit/dataset"
	"github.com/hupe1980/protsplit/internal/fold"
	"github.com/hupe1980/protsplit/internal/randstate"
	"github.com/hupe1980/protsplit/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T) *Controller {
	t.Helper()
	g, err := NewGenerator(DefaultTestSize, DefaultMinTestPositives)
	require.NoError(t, err)
	return &Controller{Generator: g, MaxAttempts: DefaultMaxAttempts}
}

func TestRun_FirstAttempt(t *testing.T) {
	ex := testutil.Examples(testutil.NewRNG(11), 4,
		testutil.StratumSpec{Name: "A", Positives: 100, Negatives: 120, Prefix: "a-"},
		testutil.StratumSpec{Name: "B", Positives: 80, Negatives: 90, Prefix: "b-"},
		testutil.StratumSpec{Name: "C", Positives: 60, Negatives: 70, Prefix: "c-"},
	)
	c := newController(t)
	var seen []Attempt
	c.OnAttempt = func(a Attempt) { seen = append(seen, a) }

	p, attempts, err := c.Run("disease", ex, 1234, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Len(t, attempts, 1)
	assert.Equal(t, attempts, seen)
	assert.Equal(t, 1, attempts[0].Number)
	assert.Equal(t, int64(1234), attempts[0].Seed)
	assert.Equal(t, ReasonNone, attempts[0].Reason)

	for s, n := range p.TestPositiveCounts(ex) {
		assert.Greater(t, n, DefaultMinTestPositives, s)
	}
}

func TestRun_Exhausted(t *testing.T) {
	ex := testutil.Examples(testutil.NewRNG(11), 4,
		testutil.StratumSpec{Name: "A", Positives: 100, Negatives: 100, Prefix: "a-"},
		testutil.StratumSpec{Name: "B", Positives: 100, Negatives: 100, Prefix: "b-"},
		testutil.StratumSpec{Name: "C", Positives: 3, Negatives: 40, Prefix: "c-"},
	)
	c := newController(t)

	p, attempts, err := c.Run("disease", ex, 99, nil)
	assert.Nil(t, p)
	require.Len(t, attempts, DefaultMaxAttempts)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, ErrSplitExhausted)
	assert.ErrorIs(t, err, ErrInsufficientPositives)
	assert.Equal(t, "disease", cfgErr.Dataset)
	assert.Equal(t, DefaultMaxAttempts, cfgErr.Attempts)
	assert.Equal(t, []string{"C"}, cfgErr.Short)
	assert.Equal(t, DefaultMinTestPositives, cfgErr.Threshold)
	assert.Contains(t, err.Error(), "after 10 attempts")
	assert.Contains(t, err.Error(), "[C]")
	assert.Contains(t, err.Error(), "not greater than 5")

	// Retry seeds come from the state seeded with the initial seed.
	rs := randstate.New(99)
	assert.Equal(t, int64(99), attempts[0].Seed)
	for i, a := range attempts {
		assert.Equal(t, i+1, a.Number)
		assert.Equal(t, ReasonInsufficientPositives, a.Reason)
		if i > 0 {
			assert.Equal(t, rs.DrawSeed(), a.Seed)
			assert.GreaterOrEqual(t, a.Seed, int64(0))
			assert.Less(t, a.Seed, int64(randstate.MaxSeed))
		}
	}
}

func TestRun_InvalidStratificationIsNotRetried(t *testing.T) {
	ex := testutil.Examples(testutil.NewRNG(3), 4,
		testutil.StratumSpec{Name: "A", Positives: 2, Negatives: 20},
		testutil.StratumSpec{Name: "B", Positives: 1, Negatives: 20, Prefix: "b-"},
	)
	c := newController(t)

	_, attempts, err := c.Run("disease", ex, 1, nil)
	require.Len(t, attempts, 1)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, ErrInvalidStratification)
	assert.False(t, errors.Is(err, ErrSplitExhausted))
	assert.Equal(t, 1, cfgErr.Attempts)
}

func TestRun_Reproducible(t *testing.T) {
	specs := []testutil.StratumSpec{
		{Name: "A", Positives: 60, Negatives: 60, Prefix: "a-"},
		{Name: "B", Positives: 60, Negatives: 60},
	}
	ex := testutil.Examples(testutil.NewRNG(5), 4, specs...)

	c := newController(t)
	p1, a1, err := c.Run("d", ex, 7, randstate.New(7))
	require.NoError(t, err)
	p2, a2, err := c.Run("d", ex, 7, randstate.New(7))
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, a1, a2)
}

func TestRun_DefaultBudget(t *testing.T) {
	ex := testutil.Examples(testutil.NewRNG(11), 4,
		testutil.StratumSpec{Name: "A", Positives: 100, Negatives: 100, Prefix: "a-"},
		testutil.StratumSpec{Name: "C", Positives: 2, Negatives: 40, Prefix: "c-"},
	)
	g, err := NewGenerator(DefaultTestSize, DefaultMinTestPositives)
	require.NoError(t, err)

	_, attempts, err := (&Controller{Generator: g}).Run("d", ex, 1, nil)
	assert.Error(t, err)
	assert.Len(t, attempts, DefaultMaxAttempts)
}

// bestFoldMin returns, over the positive folds generated from seed, the
// largest per-fold minimum of test positives across strata. An attempt with
// seed succeeds exactly when this exceeds the threshold.
func bestFoldMin(t *testing.T, ex *dataset.Examples, seed int64) int {
	t.Helper()
	k := fold.StratifiedGroupKFold{NSplits: 5, Shuffle: true}
	folds, err := k.Split(ex.Positive.Groups, ex.Positive.Strata, randstate.New(seed))
	require.NoError(t, err)

	best := -1
	for _, f := range folds {
		counts := countByStratum(ex.Positive.Strata, f.Test)
		low := -1
		for _, s := range ex.PositiveStrata() {
			if low < 0 || counts[s] < low {
				low = counts[s]
			}
		}
		if low > best {
			best = low
		}
	}
	return best
}

func TestRun_RetrySucceeds(t *testing.T) {
	// A and B share groups, so folds differ in shape from seed to seed.
	ex := testutil.Examples(testutil.NewRNG(5), 4,
		testutil.StratumSpec{Name: "A", Positives: 22, Negatives: 40, Prefix: "s-"},
		testutil.StratumSpec{Name: "B", Positives: 15, Negatives: 30, Prefix: "s-"},
		testutil.StratumSpec{Name: "C", Positives: 22, Negatives: 40, Prefix: "c-"},
	)

	// Find a seed whose first attempt fails at threshold bestFoldMin(seed)
	// while one of the retry seeds drawn after it passes.
	seed, threshold, want := int64(-1), 0, 0
	for s := int64(0); s < 300 && seed < 0; s++ {
		first := bestFoldMin(t, ex, s)
		rs := randstate.New(s)
		for n := 2; n <= DefaultMaxAttempts; n++ {
			if bestFoldMin(t, ex, rs.DrawSeed()) > first {
				seed, threshold, want = s, first, n
				break
			}
		}
	}
	require.GreaterOrEqual(t, seed, int64(0), "no seed needs a retry")

	c := &Controller{
		Generator:   &Generator{NSplits: 5, MinTestPositives: threshold},
		MaxAttempts: DefaultMaxAttempts,
	}
	p, attempts, err := c.Run("disease", ex, seed, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Len(t, attempts, want)
	assert.Greater(t, len(attempts), 1)

	rs := randstate.New(seed)
	for i, a := range attempts {
		if i == 0 {
			assert.Equal(t, seed, a.Seed)
		} else {
			assert.Equal(t, rs.DrawSeed(), a.Seed, "attempt %d", a.Number)
		}
		if i < len(attempts)-1 {
			assert.Equal(t, ReasonInsufficientPositives, a.Reason)
			assert.NotEmpty(t, a.Short)
		}
	}
	last := attempts[len(attempts)-1]
	assert.Equal(t, ReasonNone, last.Reason)
	// The negative fold is drawn from the same state after the seeds.
	assert.Equal(t, rs.Intn(5), last.NegFold)

	for s, n := range p.TestPositiveCounts(ex) {
		assert.Greater(t, n, threshold, s)
	}

	again, againAttempts, err := c.Run("disease", ex, seed, nil)
	require.NoError(t, err)
	assert.Equal(t, attempts, againAttempts)
	assert.Equal(t, p, again)
}

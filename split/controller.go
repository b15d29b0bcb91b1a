package split

import (
	"fmt"

	"github.com/hupe1980/protsplit/dataset"
	"github.com/hupe1980/protsplit/internal/randstate"
)

// Attempt records one generation attempt.
type Attempt struct {
	// Number is 1-based.
	Number  int
	Seed    int64
	Reason  Reason
	PosFold int
	NegFold int
	Counts  map[string]int
	Short   []string
}

// Controller retries the Generator with fresh seeds until a partition meets
// the per-stratum minimum or MaxAttempts attempts have failed.
type Controller struct {
	Generator   *Generator
	MaxAttempts int
	// OnAttempt, if set, is called after every attempt.
	OnAttempt func(Attempt)
}

// Run splits ex. The first attempt uses seed; every retry draws a new seed
// from rs, so the whole seed sequence is reproducible from rs's own seed.
// A nil rs is replaced by a state seeded with seed.
//
// Only insufficient-positive outcomes are retried. Invalid stratification
// returns a *ConfigError at once and a group leak returns ErrGroupLeak.
func (c *Controller) Run(name string, ex *dataset.Examples, seed int64, rs *randstate.State) (*Partition, []Attempt, error) {
	if rs == nil {
		rs = randstate.New(seed)
	}
	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var attempts []Attempt
	var last Outcome
	for n := 1; n <= maxAttempts; n++ {
		if n > 1 {
			seed = rs.DrawSeed()
		}
		last = c.Generator.Generate(ex, seed, rs)
		a := Attempt{
			Number:  n,
			Seed:    seed,
			Reason:  last.Reason,
			PosFold: last.PosFold,
			NegFold: last.NegFold,
			Counts:  last.Counts,
			Short:   last.Short,
		}
		attempts = append(attempts, a)
		if c.OnAttempt != nil {
			c.OnAttempt(a)
		}

		switch {
		case last.OK():
			return last.Partition, attempts, nil
		case last.Reason == ReasonInvalidStratification:
			return nil, attempts, &ConfigError{
				Dataset:   name,
				Threshold: c.Generator.MinTestPositives,
				Attempts:  n,
				cause:     last.Err,
			}
		case !last.Reason.Retryable():
			return nil, attempts, last.Err
		}
	}

	return nil, attempts, &ConfigError{
		Dataset:   name,
		Threshold: c.Generator.MinTestPositives,
		Short:     last.Short,
		Attempts:  len(attempts),
		cause:     fmt.Errorf("%w: %w", ErrSplitExhausted, last.Err),
	}
}

package split

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientPositives is reported when no fold keeps enough positive
	// test examples in every stratum.
	ErrInsufficientPositives = errors.New("insufficient positive test examples")
	// ErrInvalidStratification is reported when the fold procedure cannot
	// partition the pools at all. It does not depend on the seed.
	ErrInvalidStratification = errors.New("invalid stratification")
	// ErrGroupLeak is reported when a group lands on both sides of a fold.
	ErrGroupLeak = errors.New("group appears in both train and test")
	// ErrSplitExhausted is reported when every attempt of the retry budget failed.
	ErrSplitExhausted = errors.New("split retry budget exhausted")
)

// ConfigError is the terminal error of a split that cannot be satisfied with
// the current data and settings.
type ConfigError struct {
	// Dataset names the disease or dataset being split.
	Dataset string
	// Threshold is the per-stratum minimum that test positives must exceed.
	Threshold int
	// Short lists the strata below the threshold in the best fold of the last attempt.
	Short []string
	// Attempts is the number of attempts made.
	Attempts int

	cause error
}

func (e *ConfigError) Error() string {
	if errors.Is(e.cause, ErrInvalidStratification) {
		return fmt.Sprintf("could not generate a valid train-test split for %s: %v", e.Dataset, e.cause)
	}
	return fmt.Sprintf("could not generate a valid train-test split for %s after %d attempts: positive test samples in strata [%s] not greater than %d",
		e.Dataset, e.Attempts, strings.Join(e.Short, ", "), e.Threshold)
}

func (e *ConfigError) Unwrap() error { return e.cause }

package protsplit

import (
	"errors"

	"github.com/hupe1980/protsplit/blobstore"
	"github.com/hupe1980/protsplit/dataset"
	"github.com/hupe1980/protsplit/record"
	"github.com/hupe1980/protsplit/split"
)

var (
	// ErrStructure is returned when inputs disagree in shape.
	ErrStructure = dataset.ErrStructure
	// ErrNoNegatives is returned when a primary stratum has no negatives.
	ErrNoNegatives = dataset.ErrNoNegatives
	// ErrDiseaseNotFound is returned when a label file has no entry for the disease.
	ErrDiseaseNotFound = dataset.ErrDiseaseNotFound

	// ErrInsufficientPositives is wrapped by exhausted splits.
	ErrInsufficientPositives = split.ErrInsufficientPositives
	// ErrInvalidStratification is returned when folds cannot be built at all.
	ErrInvalidStratification = split.ErrInvalidStratification
	// ErrSplitExhausted is returned when every attempt failed.
	ErrSplitExhausted = split.ErrSplitExhausted
	// ErrGroupLeak is returned when a group is on both sides of the split.
	ErrGroupLeak = split.ErrGroupLeak

	// ErrNotDisjoint is returned when name record sets overlap.
	ErrNotDisjoint = record.ErrNotDisjoint
	// ErrCorruptRecord is returned when a stored split does not fit the data.
	ErrCorruptRecord = record.ErrCorruptRecord
	// ErrExists is returned when a split record already exists at the path.
	ErrExists = blobstore.ErrExists

	// ErrInvalidConfig is returned by Config.Verify.
	ErrInvalidConfig = errors.New("invalid config")
)

// ConfigError is returned when no valid split can be produced with the
// current data and settings. Use errors.As to inspect it.
type ConfigError = split.ConfigError

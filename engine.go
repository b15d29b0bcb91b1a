package protsplit

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/protsplit/assemble"
	"github.com/hupe1980/protsplit/blobstore"
	"github.com/hupe1980/protsplit/dataset"
	"github.com/hupe1980/protsplit/internal/randstate"
	"github.com/hupe1980/protsplit/record"
	"github.com/hupe1980/protsplit/split"
)

// Engine produces train/test splits and caches them as split records.
//
// An Engine is not safe for concurrent Split calls against the same path.
type Engine struct {
	store       *record.Store
	generator   *split.Generator
	maxAttempts int
	logger      *Logger
	metrics     MetricsCollector
}

// New creates an Engine persisting records in blobs.
func New(blobs blobstore.BlobStore, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)
	gen, err := split.NewGenerator(o.testSize, o.minTestPositives)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if o.maxAttempts < 1 {
		return nil, fmt.Errorf("%w: max attempts %d, need at least 1", ErrInvalidConfig, o.maxAttempts)
	}
	return &Engine{
		store:       record.NewStore(blobs, o.codec),
		generator:   gen,
		maxAttempts: o.maxAttempts,
		logger:      o.logger,
		metrics:     o.metricsCollector,
	}, nil
}

// Result is the output of Engine.Split.
type Result struct {
	// Train holds the training rows: positives first, then negatives.
	Train assemble.TrainBlock
	// Test holds a block per stratum that has positive test rows.
	Test map[string]*assemble.Block
	// TestLabels holds the test labels of every primary stratum.
	TestLabels map[string][]int
	// Strata describes how each primary stratum's test rows were handled.
	Strata []assemble.StratumTest
	// Names lists the groups of each partition.
	Names *record.NameRecord
	// Partition is the split applied, as indices into the collected pools.
	Partition *split.Partition
	// Attempts lists the generation attempts; empty when Loaded.
	Attempts []split.Attempt
	// Loaded reports whether an existing split record was reused.
	Loaded bool
	// NamesWritten reports whether this call wrote the name record.
	NamesWritten bool
}

// Split collects the examples of in and splits them.
//
// If a split record exists at splitPath it is applied as is and seed is
// ignored. Otherwise a new split is generated from seed and persisted. The
// name record next to splitPath is written once and never replaced.
func (e *Engine) Split(ctx context.Context, disease, splitPath string, in dataset.Input, seed int64) (res *Result, err error) {
	start := time.Now()
	nAttempts, loaded := 0, false
	log := e.logger.WithDisease(disease)
	res = &Result{}
	defer func() {
		e.metrics.RecordSplit(loaded, nAttempts, time.Since(start), err)
	}()

	ex, err := dataset.Collect(in)
	log.LogCollect(ctx, ex, err)
	if err != nil {
		return nil, err
	}

	p, loaded, err := e.loadSplit(ctx, log, splitPath, ex)
	if err != nil {
		return nil, err
	}
	res.Loaded = loaded
	if !loaded {
		ctrl := &split.Controller{
			Generator:   e.generator,
			MaxAttempts: e.maxAttempts,
			OnAttempt: func(a split.Attempt) {
				log.LogAttempt(ctx, a)
				e.metrics.RecordAttempt(a.Reason)
			},
		}
		var attempts []split.Attempt
		p, attempts, err = ctrl.Run(disease, ex, seed, randstate.New(seed))
		res.Attempts = attempts
		nAttempts = len(attempts)
		if err != nil {
			return nil, err
		}
	}
	res.Partition = p

	// A new split is persisted only after it passed leak and disjointness checks.
	built, err := assemble.Build(ex, p)
	if err != nil {
		return nil, err
	}
	if err := built.Names.CheckDisjoint(); err != nil {
		return nil, err
	}
	if !loaded {
		err = e.store.SaveSplit(ctx, splitPath, record.FromPartition(p))
		log.LogSplitSaved(ctx, splitPath, err)
		if err != nil {
			return nil, err
		}
	}
	for _, st := range built.Strata {
		log.LogStratum(ctx, st)
	}
	res.Train = built.Train
	res.Test = built.Test
	res.TestLabels = built.TestLabels
	res.Strata = built.Strata
	res.Names = built.Names

	res.NamesWritten, err = e.store.SaveNames(ctx, splitPath, built.Names)
	log.LogNamesSaved(ctx, record.NamePath(splitPath), res.NamesWritten, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) loadSplit(ctx context.Context, log *Logger, path string, ex *dataset.Examples) (*split.Partition, bool, error) {
	rec, ok, err := e.store.LoadSplit(ctx, path)
	if err == nil && ok {
		err = rec.Validate(ex.Positive.Len(), ex.Negative.Len())
	}
	if err != nil {
		log.LogSplitLoaded(ctx, path, nil, err)
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	p := rec.Partition()
	log.LogSplitLoaded(ctx, path, p.TestPositiveCounts(ex), nil)
	return p, true, nil
}

// Package protsplit produces grouped, stratified train/test splits of
// protein embeddings and caches them on disk.
//
// Examples are collected per stratum (cell type) from an embedding matrix
// and per-stratum positive and negative protein labels. A protein is a group:
// all of its rows land on the same side of the split. Positives are split
// with stratified group k-fold so that every stratum keeps more than a
// minimum number of positive test rows; failed attempts are retried with
// fresh seeds up to a fixed budget.
//
// # Quick Start
//
//	store := blobstore.NewLocalStore("./splits")
//	eng, _ := protsplit.New(store, protsplit.WithLogLevel(slog.LevelDebug))
//	res, err := eng.Split(ctx, "asthma", "asthma.json", input, 1)
//
// The first call writes "asthma.json" (the split record) and
// "asthma_name.json" (the name record). Later calls with any seed reuse the
// stored split.
//
// # Configuration
//
// A YAML file describes the engine and its record store:
//
//	cfg, _ := protsplit.LoadConfig("protsplit.yaml")
//	store, _ := protsplit.OpenStore(ctx, cfg.Store)
//	eng, _ := protsplit.New(store, cfg.Options()...)
//
// Records can live on the local file system, in memory, on S3 (optionally
// guarded by a DynamoDB table for write-once semantics) or on MinIO.
package protsplit

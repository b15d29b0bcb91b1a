// Package fold implements grouped, stratified k-fold partitioning.
//
// [StratifiedGroupKFold] assigns every group wholly to one fold while keeping
// the per-class distribution of each fold close to the overall distribution.
// Groups are visited in order of decreasing class-count spread, each one
// placed into the fold that minimizes the mean standard deviation of the
// normalized per-class fold counts, ties broken by the smaller fold. With
// Shuffle set, groups with equal spread are visited in a random order drawn
// from the supplied random state.
package fold

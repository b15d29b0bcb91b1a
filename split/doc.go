// Package split chooses a grouped, stratified train/test partition of the
// collected examples.
//
// [Generator] produces one candidate from a single seed: the first positive
// fold in which every stratum keeps more than MinTestPositives test examples,
// and a uniformly chosen negative fold. It reports failures as an [Outcome]
// with a [Reason] instead of an error, so [Controller] can retry with a fresh
// seed exactly when another seed can help.
package split

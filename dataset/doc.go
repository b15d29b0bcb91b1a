// Package dataset assembles labeled examples for the split engine.
//
// A stratum is a sub-population (a cell type) with its own ordered protein
// list and embedding rows. [Collect] walks the primary strata, matches the
// positive and negative protein ids of each stratum against its protein list
// and gathers the matching embedding rows into a positive and a negative
// [Pool]. Aggregate strata ("global", "esm") are unions of the primary ones
// and take no part in the split.
//
// The loaders in this package read the cached inputs produced by the external
// evidence and PPI pipelines: [LoadLabels] for per-disease positive/negative
// protein lists and [LoadLayers] for cell-type PPI layers.
package dataset

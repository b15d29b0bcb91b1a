// Package record persists split records and name records.
//
// A split record holds the four index lists of an accepted partition and is
// the on-disk cache of a split: once it exists, the split at that path is
// fixed. The name record next to it lists the group identifiers of each of
// the four partitions for audit. Both are written once and never replaced.
package record

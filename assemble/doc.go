// Package assemble turns a partition into training and per-stratum test
// blocks and checks that no test group is also used for training.
package assemble

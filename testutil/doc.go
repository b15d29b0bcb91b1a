// Package testutil builds synthetic split inputs for tests.
package testutil

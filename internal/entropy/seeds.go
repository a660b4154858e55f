// Package entropy derives reproducible random seeds for units of simulation
// work. Every stochastic component draws from a source seeded here, so a run
// is fully determined by the master seed regardless of goroutine scheduling.
package entropy

import (
	"fmt"
	"hash/fnv"
)

// SubSeed derives a seed for a labeled unit of work within a turn. Distinct
// labels yield statistically independent streams off the same master seed.
func SubSeed(master uint64, turn int, label string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d|%s", master, turn, label)
	return h.Sum64()
}

// SubSeedf derives a seed from a formatted label.
func SubSeedf(master uint64, turn int, format string, args ...any) uint64 {
	return SubSeed(master, turn, fmt.Sprintf(format, args...))
}

package subsystems

import (
	"sort"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
)

// sortedKeys returns map keys in ascending order. Map iteration order is
// randomized in Go; every catalog walk must be sorted or determinism dies.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSegmentIDs(m map[string]config.Segment) []string {
	return sortedKeys(m)
}

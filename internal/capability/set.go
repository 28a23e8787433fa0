// Package capability negotiates the layers and instance extensions the
// presenter enables.
package capability

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Set is a sorted list of capability names without duplicates.
type Set []string

// NewSet sorts and deduplicates names.
func NewSet(names ...string) Set {
	set := make(Set, 0, len(names))
	set = append(set, names...)
	slices.Sort(set)
	return slices.Compact(set)
}

// FromMap builds a set from the keys of an enumeration result, as returned
// by the loader and physical devices.
func FromMap[V any](m map[string]V) Set {
	return NewSet(maps.Keys(m)...)
}

// Contains reports whether name is in the set.
func (s Set) Contains(name string) bool {
	_, found := slices.BinarySearch(s, name)
	return found
}

// Union returns a new set holding s and names.
func (s Set) Union(names ...string) Set {
	merged := make([]string, 0, len(s)+len(names))
	merged = append(merged, s...)
	merged = append(merged, names...)
	return NewSet(merged...)
}

// Missing returns the entries of s absent from available, in order.
func (s Set) Missing(available Set) []string {
	var missing []string
	for _, name := range s {
		if !available.Contains(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

package mirror

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// RemoteTree maps each remote file's relative path to its size in bytes.
// A size of -1 records a failed size probe during enumeration; such entries
// never satisfy the skip rule, so they are always re-transferred.
//
// Built once per run and read-only thereafter.
type RemoteTree map[string]int64

// Paths returns the set of relative paths in the tree.
func (t RemoteTree) Paths() mapset.Set[string] {
	s := mapset.NewSet[string]()
	for p := range t {
		s.Add(p)
	}
	return s
}

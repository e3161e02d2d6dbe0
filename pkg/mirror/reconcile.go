package mirror

import (
	"fmt"
	"sort"

	"github.com/kerbaras/mangamirror/pkg/data"
)

// ValidateCatalog checks the walker contract: indices 1..N in order.
func ValidateCatalog(remote []data.ChapterDescriptor) error {
	for i, ch := range remote {
		if ch.Index != i+1 {
			return fmt.Errorf("%w: catalog position %d has chapter index %d", data.ErrUpstreamFailure, i, ch.Index)
		}
	}
	return nil
}

// Reconcile returns the remote chapter indices without a declared record,
// sorted ascending. Presence is an exact index match; nothing is ever
// reported for deletion.
func Reconcile(remote []data.ChapterDescriptor, declared map[int]bool) []int {
	var missing []int
	for _, ch := range remote {
		if !declared[ch.Index] {
			missing = append(missing, ch.Index)
		}
	}
	sort.Ints(missing)
	return missing
}

// CheckConsistency fails when a missing chapter already has a directory: a
// previous run downloaded into it but never recorded it.
func CheckConsistency(p Paths, missing []int, onDisk map[int]bool) error {
	var orphans []int
	for _, index := range missing {
		if onDisk[index] {
			orphans = append(orphans, index)
		}
	}
	if len(orphans) > 0 {
		return &data.ConsistencyError{Root: p.Root, Indices: orphans}
	}
	return nil
}

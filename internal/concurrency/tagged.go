// File: internal/concurrency/tagged.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Tagged index words for the idle stack. One uint64 packs a worker index
// in the low idxBits with a monotonically increasing tag above it, so the
// top-of-stack CAS detects ABA without double-width atomics.

package concurrency

const (
	// idxBits is the width of the index field. 16 bits cover every
	// roster size in scope.
	idxBits = 16

	// idxMask extracts the index field.
	idxMask = (1 << idxBits) - 1

	// none is the "stack empty" sentinel index.
	none = idxMask

	// tagUnit is the smallest tag increment, one above the index field.
	tagUnit = uint64(1) << idxBits

	// tagMask extracts the tag field.
	tagMask = ^uint64(idxMask)
)

// targetOf returns the index field of a tagged word.
func targetOf(t uint64) uint32 {
	return uint32(t) & idxMask
}

// makeTagged builds the successor of an observed word: the old tag bits
// advanced by one unit, with target as the new index. Identical indices at
// the top therefore carry distinct tags across time.
func makeTagged(old uint64, target uint32) uint64 {
	return (old & tagMask) + (uint64(target) | tagUnit)
}

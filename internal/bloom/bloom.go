// Package bloom implements the crawler's per-batch dedup filter.
//
// It exists purely to suppress redundant fetches inside a single
// inquirer batch window; the only source of truth for "have we ever
// seen this infohash" is the storage layer's primary key on hash, so
// collisions here only cost a missed fetch, never a wrong record.
//
// murmur3 supplies the k independent hash rounds, and bitset gives us
// a compact fixed-size bit array instead of hand-rolling one over a
// big.Int.
package bloom

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/spaolacci/murmur3"
)

// Filter is a fixed-size Bloom filter with m bits and k hash rounds.
// It is not safe for concurrent use; callers that need one per
// goroutine should construct their own, which is exactly how the
// inquirer pool uses it (one fresh filter per batch).
type Filter struct {
	bits *bitset.BitSet
	m    uint
	k    uint
}

// New creates a filter with m bits and k hash rounds.
func New(m, k uint) *Filter {
	return &Filter{
		bits: bitset.New(m),
		m:    m,
		k:    k,
	}
}

// Add reports whether item is new to the filter: true iff at least one
// of the k candidate bit positions was zero before this call. Every
// call, whether it returns true or false, leaves all k positions set —
// if none were zero, they're already set and setting them again is a
// no-op.
func (f *Filter) Add(item []byte) bool {
	isNew := false
	for i := uint32(0); i < uint32(f.k); i++ {
		idx := f.index(item, i)
		if !f.bits.Test(idx) {
			isNew = true
			break
		}
	}
	if isNew {
		for i := uint32(0); i < uint32(f.k); i++ {
			f.bits.Set(f.index(item, i))
		}
	}
	return isNew
}

func (f *Filter) index(item []byte, seed uint32) uint {
	return uint(murmur3.Sum32WithSeed(item, seed)) % f.m
}

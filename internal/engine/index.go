package engine

import (
	"sort"

	"github.com/jassi-singh/aether-kv/internal/keyval"
)

// entry is an index slot: either a live value or a tombstone. The pointer
// is shared, never mutated, between the index and any caller holding a
// snapshot from Scan (Get hands out a copy of the value) — Go's garbage
// collector gives the same
// sharing guarantee the original implementation's Arc<Value> gives
// explicitly, so no explicit reference counting is needed here (spec.md
// §3, §9 "shared-value ownership").
type entry struct {
	value     *keyval.Value // nil means tombstone
	tombstone bool
}

// index is the ordered in-memory mapping from a key's big-endian numeric
// encoding to its current entry. sorted is kept up to date by every
// mutation, so a reader holding only the engine's read lease can call scan
// concurrently with other readers without touching any shared mutable
// state — every mutating method here is only ever called under the
// engine's write lease (spec.md §3, §5).
type index struct {
	entries map[uint64]entry
	sorted  []uint64
}

func newIndex() *index {
	return &index{entries: make(map[uint64]entry)}
}

// insertSorted inserts n into the sorted slice, keeping it ordered. n must
// not already be present.
func (ix *index) insertSorted(n uint64) {
	i := sort.Search(len(ix.sorted), func(i int) bool { return ix.sorted[i] >= n })
	ix.sorted = append(ix.sorted, 0)
	copy(ix.sorted[i+1:], ix.sorted[i:])
	ix.sorted[i] = n
}

// removeSorted removes n from the sorted slice. n must be present.
func (ix *index) removeSorted(n uint64) {
	i := sort.Search(len(ix.sorted), func(i int) bool { return ix.sorted[i] >= n })
	ix.sorted = append(ix.sorted[:i], ix.sorted[i+1:]...)
}

func (ix *index) put(key keyval.Key, value keyval.Value) {
	n := key.Uint64()
	v := value
	if _, exists := ix.entries[n]; !exists {
		ix.insertSorted(n)
	}
	ix.entries[n] = entry{value: &v, tombstone: false}
}

// deleteLive writes a tombstone over an existing live-or-tombstone entry.
// It is the live-operation delete path (spec.md §4.3): the key stays in
// the index as a tombstone. Returns true if the key was present.
func (ix *index) deleteLive(key keyval.Key) bool {
	n := key.Uint64()
	if _, ok := ix.entries[n]; !ok {
		return false
	}
	ix.entries[n] = entry{tombstone: true}
	return true
}

// deleteRecover removes a key outright from the index, the recovery-time
// delete semantics (spec.md §4.3's "Recovery vs. normal deletion"): no
// tombstone persists in memory, keeping the recovered index's size bounded
// by live keys rather than by every key ever written.
func (ix *index) deleteRecover(key keyval.Key) {
	n := key.Uint64()
	if _, ok := ix.entries[n]; ok {
		delete(ix.entries, n)
		ix.removeSorted(n)
	}
}

func (ix *index) get(key keyval.Key) (*keyval.Value, bool) {
	e, ok := ix.entries[key.Uint64()]
	if !ok || e.tombstone {
		return nil, false
	}
	return e.value, true
}

// KV pairs a key with its shared, immutable value — the unit scan hands
// back to callers.
type KV struct {
	Key   keyval.Key
	Value *keyval.Value
}

// scan materializes a snapshot of all live entries with k1 <= key < k2, in
// ascending key order, skipping tombstones (spec.md §4.3, §5 "Scan snapshot
// semantics"). It only reads ix.sorted/ix.entries, never mutates them, so
// it is safe to call concurrently with other scans under the engine's
// shared read lease (spec.md §5's "get and scan acquire the read lease").
func (ix *index) scan(k1, k2 keyval.Key) []KV {
	lo, hi := k1.Uint64(), k2.Uint64()

	start := sort.Search(len(ix.sorted), func(i int) bool { return ix.sorted[i] >= lo })
	out := make([]KV, 0)
	for i := start; i < len(ix.sorted) && ix.sorted[i] < hi; i++ {
		n := ix.sorted[i]
		e := ix.entries[n]
		if e.tombstone {
			continue
		}
		out = append(out, KV{Key: keyval.KeyFromUint64(n), Value: e.value})
	}
	return out
}

func (ix *index) size() int {
	return len(ix.entries)
}

package index

import (
	"sync/atomic"
)

// Handle publishes the current Index to concurrent searchers. Readers
// always see either the old or the new index, never a partial build.
type Handle struct {
	current    atomic.Pointer[Index]
	generation atomic.Uint64
}

// NewHandle returns a Handle serving idx, which may be nil.
func NewHandle(idx *Index) *Handle {
	h := &Handle{}
	h.current.Store(idx)
	return h
}

// Load returns the index currently served.
func (h *Handle) Load() *Index {
	return h.current.Load()
}

// Swap publishes idx and returns the index it replaced.
func (h *Handle) Swap(idx *Index) *Index {
	old := h.current.Swap(idx)
	h.generation.Add(1)
	return old
}

// Generation counts swaps. Caches key on it to drop stale entries.
func (h *Handle) Generation() uint64 {
	return h.generation.Load()
}

// Current returns the served index with its generation. The generation is
// read first, so results cached under it never come from an older index.
func (h *Handle) Current() (*Index, uint64) {
	gen := h.generation.Load()
	return h.current.Load(), gen
}

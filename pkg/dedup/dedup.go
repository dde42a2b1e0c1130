// Package dedup tracks which (client address, transaction id) pairs have
// already been counted as a visit.
package dedup

// Key identifies one visit. Using a struct keeps address and identifier
// separate, so no two distinct pairs can collide.
type Key struct {
	Addr string
	ID   string
}

// Deduplicator is an append-only set of visit keys.
// It is not safe for concurrent use.
type Deduplicator struct {
	seen map[Key]struct{}
}

// New creates an empty Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{seen: make(map[Key]struct{})}
}

// Observe records the pair and returns true the first time it is seen.
func (d *Deduplicator) Observe(addr, id string) bool {
	k := Key{Addr: addr, ID: id}
	if _, ok := d.seen[k]; ok {
		return false
	}
	d.seen[k] = struct{}{}
	return true
}

// Len returns the number of distinct pairs observed.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}

// Package projection holds the client-side view caches: eventually
// consistent local copies of server-owned tickets and notifications,
// updated by bulk fetches, optimistic local mutations, and push events.
// All mutation happens on the UI goroutine; none of these types lock.
package projection

// Deduper tracks which push event ids have already been applied, making
// the channel's at-least-once delivery idempotent from the UI's point
// of view. The set is unbounded and lives for the owning store's
// lifetime (one process run); volume is bounded by human-scale ticket
// activity, so there is no eviction.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper creates an empty dedup set.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Seen reports whether the event id has already been applied. An empty
// id is never considered seen: events without ids are non-deduplicable
// and get applied unconditionally.
func (d *Deduper) Seen(id string) bool {
	if id == "" {
		return false
	}
	_, ok := d.seen[id]
	return ok
}

// Mark records an event id as applied. Empty ids are ignored.
func (d *Deduper) Mark(id string) {
	if id == "" {
		return
	}
	d.seen[id] = struct{}{}
}

// Len returns the number of distinct event ids recorded.
func (d *Deduper) Len() int {
	return len(d.seen)
}

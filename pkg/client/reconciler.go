package client

import (
	"context"
	"sync"
)

// Reconciler owns the displayed bookmark sequence. It merges the initial
// load, local mutation results and live-feed events into one newest-first
// list consistent with the active (query, tag) pair.
//
// Ordering is established by the gateway's created_at DESC load and then
// preserved approximately: local and external inserts prepend without
// re-sorting, so concurrent inserts from another session can land slightly
// out of true recency order until the next load.
type Reconciler struct {
	mu    sync.Mutex
	items []Bookmark
	query string
	tag   string
}

func NewReconciler() *Reconciler {
	return &Reconciler{items: []Bookmark{}}
}

// Filters returns the active (query, tag) pair.
func (r *Reconciler) Filters() (query, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query, r.tag
}

// Load replaces the entire sequence with the gateway's result for the given
// filter pair. Used on initial load and on every filter change.
func (r *Reconciler) Load(ctx context.Context, gw Gateway, query, tag string) error {
	items, err := gw.List(ctx, query, tag)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.query = query
	r.tag = tag
	r.items = items
	r.mu.Unlock()
	return nil
}

// ApplyLocalCreate prepends a record the caller just created. The record is
// assumed to satisfy the active filters since it was created in that context.
func (r *Reconciler) ApplyLocalCreate(b Bookmark) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append([]Bookmark{b}, r.items...)
}

// ApplyLocalDelete removes the record with the given id from the sequence.
func (r *Reconciler) ApplyLocalDelete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = r.removeLocked(id)
}

// ApplyEvent folds a live-feed event into the sequence under the active
// filters: inserts are gated by the filter predicate, updates replace the
// matching entry or remove it once the record stops matching, deletes remove
// unconditionally.
func (r *Reconciler) ApplyEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case EventInsert:
		if ev.Bookmark == nil {
			return
		}
		if Matches(*ev.Bookmark, r.query, r.tag) {
			r.items = append([]Bookmark{*ev.Bookmark}, r.items...)
		}
	case EventUpdate:
		if ev.Bookmark == nil {
			return
		}
		if Matches(*ev.Bookmark, r.query, r.tag) {
			// replace in place; an update for an id we never held is not an insert
			for i := range r.items {
				if r.items[i].ID == ev.Bookmark.ID {
					r.items[i] = *ev.Bookmark
					break
				}
			}
		} else {
			r.items = r.removeLocked(ev.Bookmark.ID)
		}
	case EventDelete:
		r.items = r.removeLocked(ev.ID)
	}
}

// Run drains a feed into the reconciler until the feed closes or the context
// is canceled.
func (r *Reconciler) Run(ctx context.Context, feed Feed) {
	for {
		select {
		case ev, ok := <-feed.Events():
			if !ok {
				return
			}
			r.ApplyEvent(ev)
		case <-ctx.Done():
			return
		}
	}
}

// Clear empties the sequence, e.g. on sign-out.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = []Bookmark{}
}

// Bookmarks returns a copy of the current sequence, newest first.
func (r *Reconciler) Bookmarks() []Bookmark {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Bookmark, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Reconciler) removeLocked(id string) []Bookmark {
	out := r.items[:0]
	for _, b := range r.items {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

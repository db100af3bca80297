package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway serves canned data and applies the same filter semantics the
// server documents for list queries.
type fakeGateway struct {
	bookmarks []Bookmark
	identity  *Identity
	listErr   error
	meErr     error
	logoutErr error
	logouts   int
}

func (g *fakeGateway) List(ctx context.Context, query, tag string) ([]Bookmark, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	if g.identity == nil {
		return []Bookmark{}, nil
	}
	out := []Bookmark{}
	for _, b := range g.bookmarks {
		if Matches(b, query, tag) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (g *fakeGateway) Get(ctx context.Context, id string) (*Bookmark, error) {
	for i := range g.bookmarks {
		if g.bookmarks[i].ID == id {
			return &g.bookmarks[i], nil
		}
	}
	return nil, errors.New("operation failed: not found")
}

func (g *fakeGateway) Create(ctx context.Context, input BookmarkInput) (*Bookmark, error) {
	title := input.Title
	if title == "" {
		title = input.URL
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	b := Bookmark{
		ID:        "created",
		URL:       input.URL,
		Title:     title,
		Tags:      tags,
		CreatedAt: time.Now(),
	}
	g.bookmarks = append([]Bookmark{b}, g.bookmarks...)
	return &b, nil
}

func (g *fakeGateway) Update(ctx context.Context, id string, upd BookmarkUpdate) (*Bookmark, error) {
	return nil, errors.New("operation failed: not implemented")
}

func (g *fakeGateway) Delete(ctx context.Context, id string) (bool, error) {
	kept := g.bookmarks[:0]
	for _, b := range g.bookmarks {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	g.bookmarks = kept
	return true, nil
}

func (g *fakeGateway) Tags(ctx context.Context) ([]string, error) { return []string{}, nil }

func (g *fakeGateway) Me(ctx context.Context) (*Identity, error) {
	if g.meErr != nil {
		return nil, g.meErr
	}
	return g.identity, nil
}

func (g *fakeGateway) Logout(ctx context.Context) error {
	g.logouts++
	g.identity = nil
	return g.logoutErr
}

// fakeFeed pushes events through a plain channel.
type fakeFeed struct {
	ch chan Event
}

func newFakeFeed() *fakeFeed           { return &fakeFeed{ch: make(chan Event, 16)} }
func (f *fakeFeed) Events() <-chan Event { return f.ch }
func (f *fakeFeed) Close() error         { close(f.ch); return nil }

func testBookmarks() []Bookmark {
	return []Bookmark{
		{ID: "b3", URL: "https://react.dev", Title: "React docs", Tags: []string{"react"}},
		{ID: "b2", URL: "https://go.dev", Title: "Go site", Tags: []string{"go"}},
		{ID: "b1", URL: "https://example.com", Title: "Example", Tags: []string{}},
	}
}

func TestReconcilerLoadReplacesSequence(t *testing.T) {
	gw := &fakeGateway{bookmarks: testBookmarks(), identity: &Identity{ID: "u1"}}
	r := NewReconciler()

	require.NoError(t, r.Load(context.Background(), gw, "", ""))
	assert.Len(t, r.Bookmarks(), 3)

	// filter change replaces the whole list
	require.NoError(t, r.Load(context.Background(), gw, "", "react"))
	got := r.Bookmarks()
	require.Len(t, got, 1)
	assert.Equal(t, "b3", got[0].ID)

	query, tag := r.Filters()
	assert.Equal(t, "", query)
	assert.Equal(t, "react", tag)
}

func TestReconcilerLoadErrorLeavesSequence(t *testing.T) {
	gw := &fakeGateway{bookmarks: testBookmarks(), identity: &Identity{ID: "u1"}}
	r := NewReconciler()
	require.NoError(t, r.Load(context.Background(), gw, "", ""))

	gw.listErr = errors.New("operation failed: connection refused")
	assert.Error(t, r.Load(context.Background(), gw, "", "react"))
	assert.Len(t, r.Bookmarks(), 3)
}

func TestReconcilerLocalCreatePrependsUnconditionally(t *testing.T) {
	gw := &fakeGateway{bookmarks: testBookmarks(), identity: &Identity{ID: "u1"}}
	r := NewReconciler()
	require.NoError(t, r.Load(context.Background(), gw, "", "react"))

	created, err := gw.Create(context.Background(), BookmarkInput{URL: "https://example.com"})
	require.NoError(t, err)
	r.ApplyLocalCreate(*created)

	got := r.Bookmarks()
	require.Len(t, got, 2)
	assert.Equal(t, "created", got[0].ID)
	// title defaulted to the url, tags empty
	assert.Equal(t, "https://example.com", got[0].Title)
	assert.Empty(t, got[0].Tags)
}

func TestReconcilerLocalDelete(t *testing.T) {
	gw := &fakeGateway{bookmarks: testBookmarks(), identity: &Identity{ID: "u1"}}
	r := NewReconciler()
	require.NoError(t, r.Load(context.Background(), gw, "", ""))

	ok, err := gw.Delete(context.Background(), "b2")
	require.NoError(t, err)
	require.True(t, ok)
	r.ApplyLocalDelete("b2")

	for _, b := range r.Bookmarks() {
		assert.NotEqual(t, "b2", b.ID)
	}

	// the deleted id never comes back from a reload
	require.NoError(t, r.Load(context.Background(), gw, "", ""))
	for _, b := range r.Bookmarks() {
		assert.NotEqual(t, "b2", b.ID)
	}
}

func TestReconcilerExternalInsertGatedByFilters(t *testing.T) {
	gw := &fakeGateway{bookmarks: testBookmarks(), identity: &Identity{ID: "u1"}}
	r := NewReconciler()
	require.NoError(t, r.Load(context.Background(), gw, "", "react"))

	// matching insert is prepended
	matching := Bookmark{ID: "b4", URL: "https://reactrouter.com", Title: "Router", Tags: []string{"react"}}
	r.ApplyEvent(Event{Type: EventInsert, Bookmark: &matching, ID: "b4"})
	got := r.Bookmarks()
	require.Len(t, got, 2)
	assert.Equal(t, "b4", got[0].ID)

	// non-matching insert is ignored
	other := Bookmark{ID: "b5", URL: "https://go.dev", Title: "Go", Tags: []string{"go"}}
	r.ApplyEvent(Event{Type: EventInsert, Bookmark: &other, ID: "b5"})
	assert.Len(t, r.Bookmarks(), 2)
}

func TestReconcilerExternalUpdate(t *testing.T) {
	gw := &fakeGateway{bookmarks: testBookmarks(), identity: &Identity{ID: "u1"}}
	r := NewReconciler()
	require.NoError(t, r.Load(context.Background(), gw, "", "react"))

	// still matching: replaced in place
	updated := Bookmark{ID: "b3", URL: "https://react.dev", Title: "React reference", Tags: []string{"react"}}
	r.ApplyEvent(Event{Type: EventUpdate, Bookmark: &updated, ID: "b3"})
	got := r.Bookmarks()
	require.Len(t, got, 1)
	assert.Equal(t, "React reference", got[0].Title)

	// update for an unknown id is not an insert
	unknown := Bookmark{ID: "b9", URL: "https://x.dev", Title: "X", Tags: []string{"react"}}
	r.ApplyEvent(Event{Type: EventUpdate, Bookmark: &unknown, ID: "b9"})
	assert.Len(t, r.Bookmarks(), 1)

	// no longer matching: removed
	retagged := Bookmark{ID: "b3", URL: "https://react.dev", Title: "React reference", Tags: []string{"archive"}}
	r.ApplyEvent(Event{Type: EventUpdate, Bookmark: &retagged, ID: "b3"})
	assert.Empty(t, r.Bookmarks())
}

func TestReconcilerExternalDeleteUnconditional(t *testing.T) {
	gw := &fakeGateway{bookmarks: testBookmarks(), identity: &Identity{ID: "u1"}}
	r := NewReconciler()
	require.NoError(t, r.Load(context.Background(), gw, "", ""))

	r.ApplyEvent(Event{Type: EventDelete, ID: "b1"})
	got := r.Bookmarks()
	require.Len(t, got, 2)
	for _, b := range got {
		assert.NotEqual(t, "b1", b.ID)
	}

	// deleting an unknown id is a no-op
	r.ApplyEvent(Event{Type: EventDelete, ID: "nope"})
	assert.Len(t, r.Bookmarks(), 2)
}

func TestReconcilerRunDrainsFeed(t *testing.T) {
	gw := &fakeGateway{bookmarks: testBookmarks(), identity: &Identity{ID: "u1"}}
	r := NewReconciler()
	require.NoError(t, r.Load(context.Background(), gw, "", ""))

	feed := newFakeFeed()
	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), feed)
		close(done)
	}()

	inserted := Bookmark{ID: "b4", URL: "https://new.dev", Title: "New"}
	feed.ch <- Event{Type: EventInsert, Bookmark: &inserted, ID: "b4"}
	feed.ch <- Event{Type: EventDelete, ID: "b1"}
	feed.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after feed close")
	}

	got := r.Bookmarks()
	require.Len(t, got, 3)
	assert.Equal(t, "b4", got[0].ID)
	for _, b := range got {
		assert.NotEqual(t, "b1", b.ID)
	}
}

func TestReconcilerClear(t *testing.T) {
	gw := &fakeGateway{bookmarks: testBookmarks(), identity: &Identity{ID: "u1"}}
	r := NewReconciler()
	require.NoError(t, r.Load(context.Background(), gw, "", ""))

	r.Clear()
	assert.Empty(t, r.Bookmarks())
}

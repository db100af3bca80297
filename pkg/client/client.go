// Package client is the Smartmark SDK: it mirrors the server's bookmark
// surface for consumers that render a list, and keeps that list consistent
// with local mutations and the live change feed.
package client

import (
	"context"
	"time"
)

// Bookmark is the wire shape of a bookmark record.
type Bookmark struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookmarkInput is the create payload.
type BookmarkInput struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// BookmarkUpdate is the partial-update payload; nil fields are not sent.
type BookmarkUpdate struct {
	URL         *string   `json:"url,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Identity is the resolved current user.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// EventType mirrors the feed wire values.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is a single change-feed notification. Insert and update events carry
// the full record; delete events carry only the id.
type Event struct {
	Type     EventType `json:"type"`
	Bookmark *Bookmark `json:"bookmark,omitempty"`
	ID       string    `json:"id,omitempty"`
}

// Gateway is the record surface the reconciler and session depend on.
type Gateway interface {
	List(ctx context.Context, query, tag string) ([]Bookmark, error)
	Get(ctx context.Context, id string) (*Bookmark, error)
	Create(ctx context.Context, input BookmarkInput) (*Bookmark, error)
	Update(ctx context.Context, id string, upd BookmarkUpdate) (*Bookmark, error)
	Delete(ctx context.Context, id string) (bool, error)
	Tags(ctx context.Context) ([]string, error)
	Me(ctx context.Context) (*Identity, error)
	Logout(ctx context.Context) error
}

// Feed is a live change-notification stream for the current user's records.
type Feed interface {
	Events() <-chan Event
	Close() error
}

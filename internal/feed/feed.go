// Package feed implements the per-user change-notification stream. Every
// successful bookmark mutation is published to a Redis channel scoped to the
// owning user; subscribers receive insert/update/delete events for rows they
// own and nothing else.
package feed

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/smartmarkhq/smartmark/internal/db"
	"github.com/smartmarkhq/smartmark/pkg/logger"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is the wire shape pushed to subscribers. Insert and update events
// carry the full record; delete events carry only the id.
type Event struct {
	Type     EventType   `json:"type"`
	Bookmark interface{} `json:"bookmark,omitempty"`
	ID       string      `json:"id,omitempty"`
}

// Channel returns the Redis pub/sub channel for a user's bookmark changes.
func Channel(userID string) string {
	return "feed:bookmarks:" + userID
}

type Publisher struct {
	Rclient *db.RedisClient
	Logger  *logger.Logger
}

func NewPublisher(rclient *db.RedisClient, log *logger.Logger) *Publisher {
	return &Publisher{Rclient: rclient, Logger: log}
}

// Publish sends an event to the user's channel. The mutation has already been
// committed when this runs, so a publish failure is logged and swallowed
// rather than failing the request.
func (p *Publisher) Publish(ctx context.Context, userID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.Logger.Warn(ctx).WithFields("error", err.Error()).Logs("Failed to marshal feed event")
		return
	}
	if err := p.Rclient.Publish(ctx, Channel(userID), data).Err(); err != nil {
		p.Logger.Warn(ctx).WithFields("error", err.Error(), "user_id", userID).Logs("Failed to publish feed event")
	}
}

// Subscribe opens a pub/sub subscription on the user's channel. The caller
// owns the subscription and must close it when the consumer goes away.
func (p *Publisher) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return p.Rclient.Subscribe(ctx, Channel(userID))
}

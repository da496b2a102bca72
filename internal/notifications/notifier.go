// Package notifications publishes tour engagement events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"tours/internal/observability"

	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis channel carrying every tour event.
const EventsChannel = "tours:events"

// Event type constants prevent typos in event names.
const (
	EventPostCreated    = "post.created"
	EventPostUpdated    = "post.updated"
	EventPostDeleted    = "post.deleted"
	EventPostViewed     = "post.viewed"
	EventPostLiked      = "post.liked"
	EventCommentCreated = "comment.created"
)

// Event is the payload published for each successful mutation.
type Event struct {
	Type      string    `json:"type"`
	PostID    uint      `json:"post_id"`
	UserID    uint      `json:"user_id,omitempty"`
	CommentID uint      `json:"comment_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier provides helpers to publish events into Redis channels.
// A Notifier without a client drops events silently.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends ev to the events channel.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if ev.RequestID == "" {
		ev.RequestID = observability.ExtractRequestID(ctx)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, EventsChannel, payload).Err()
}

// Subscribe calls onEvent for every event published until ctx is done.
// Malformed payloads are logged and skipped.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(Event)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, EventsChannel)
	// Wait for the subscription confirmation so callers can publish right away.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", EventsChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					observability.GlobalLogger.Warn("dropping malformed event",
						slog.String("channel", msg.Channel), slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.GlobalLogger.Error("panic in event subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}

package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kindred-app/kindred-backend/internal/usecase/notify"
)

// eventTTL keeps undelivered events from accumulating forever.
const eventTTL = 72 * time.Hour

// RedisFanout delivers match events through Redis: the payload is stored
// under a per-user key (so a reconnecting client can catch up) and published
// on the user's channel for anyone listening live.
type RedisFanout struct {
	client *redis.Client
}

func NewRedisFanout(client *redis.Client) *RedisFanout {
	return &RedisFanout{client: client}
}

func eventKey(userID, matchID string) string {
	return fmt.Sprintf("fanout:user:%s:match:%s", userID, matchID)
}

func channel(userID string) string {
	return fmt.Sprintf("fanout:user:%s", userID)
}

func (f *RedisFanout) Write(ctx context.Context, userID string, event *notify.MatchEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := f.client.Set(ctx, eventKey(userID, event.MatchID), payload, eventTTL).Err(); err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	if err := f.client.Publish(ctx, channel(userID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Retract deletes the stored event for every listed recipient. Live
// subscribers that already consumed the publish are out of reach; stored
// copies are what retraction is for.
func (f *RedisFanout) Retract(ctx context.Context, matchID string, userIDs []string) error {
	keys := make([]string, 0, len(userIDs))
	for _, uid := range userIDs {
		keys = append(keys, eventKey(uid, matchID))
	}
	if len(keys) == 0 {
		return nil
	}
	if err := f.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to retract events: %w", err)
	}
	return nil
}

// Pending returns the stored, not-yet-retracted events for one user.
func (f *RedisFanout) Pending(ctx context.Context, userID string) ([]*notify.MatchEvent, error) {
	pattern := fmt.Sprintf("fanout:user:%s:match:*", userID)
	var events []*notify.MatchEvent

	iter := f.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		raw, err := f.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		var ev notify.MatchEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		events = append(events, &ev)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan events: %w", err)
	}
	return events, nil
}

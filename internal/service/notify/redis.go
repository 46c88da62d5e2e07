package notify

import (
	"context"
	"encoding/json"
	"time"

	"callbreak-service/internal/service/game"
	"callbreak-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	EventCardsDealt    = "cards_dealt"
	EventScoresUpdated = "scores_updated"
	EventCardPlayed    = "card_played"
)

// Event is what subscribers of a table channel receive.
type Event struct {
	Type     string            `json:"type"`
	TableUID string            `json:"tableUid"`
	Turn     *game.TurnSummary `json:"turn,omitempty"`
	At       int64             `json:"at"`
}

func Channel(tableUID string) string {
	return "table:events:" + tableUID
}

// Redis publishes table events on a per-table pub/sub channel.
type Redis struct {
	rdb     *redis.Client
	timeout time.Duration
}

var _ game.Notifier = (*Redis)(nil)

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, timeout: 2 * time.Second}
}

func (r *Redis) CardsDealt(ctx context.Context, tableUID string) {
	r.publish(ctx, Event{Type: EventCardsDealt, TableUID: tableUID})
}

func (r *Redis) ScoresUpdated(ctx context.Context, tableUID string) {
	r.publish(ctx, Event{Type: EventScoresUpdated, TableUID: tableUID})
}

func (r *Redis) CardPlayed(ctx context.Context, tableUID string, summary game.TurnSummary) {
	r.publish(ctx, Event{Type: EventCardPlayed, TableUID: tableUID, Turn: &summary})
}

func (r *Redis) publish(ctx context.Context, ev Event) {
	ev.At = time.Now().UnixMilli()
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Log.Warn("failed to encode table event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	// the request context may already be done once the response is written
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.rdb.Publish(ctx, Channel(ev.TableUID), payload).Err(); err != nil {
		logger.Log.Warn("failed to publish table event",
			zap.String("type", ev.Type),
			zap.String("tableUID", ev.TableUID),
			zap.Error(err),
		)
	}
}

// Subscribe opens a subscription to one table's events. The caller closes it.
func (r *Redis) Subscribe(ctx context.Context, tableUID string) *redis.PubSub {
	return r.rdb.Subscribe(ctx, Channel(tableUID))
}

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"callbreak-service/internal/service/game"
	"callbreak-service/internal/service/notify"
	"callbreak-service/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotifier(t *testing.T) (*miniredis.Miniredis, *notify.Redis) {
	t.Helper()
	logger.Ensure()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, notify.NewRedis(rdb)
}

func receive(t *testing.T, ch <-chan *redis.Message) notify.Event {
	t.Helper()
	select {
	case msg := <-ch:
		var ev notify.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return notify.Event{}
	}
}

func TestPublishesTableEvents(t *testing.T) {
	ctx := context.Background()
	_, n := newNotifier(t)

	sub := n.Subscribe(ctx, "t-1")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	ch := sub.Channel()

	n.CardsDealt(ctx, "t-1")
	n.CardPlayed(ctx, "t-1", game.TurnSummary{PlayerID: 3, PlayedCard: "AS", NextPlayerID: 4})
	n.ScoresUpdated(ctx, "t-1")

	dealt := receive(t, ch)
	assert.Equal(t, notify.EventCardsDealt, dealt.Type)
	assert.Equal(t, "t-1", dealt.TableUID)
	assert.Nil(t, dealt.Turn)

	played := receive(t, ch)
	assert.Equal(t, notify.EventCardPlayed, played.Type)
	require.NotNil(t, played.Turn)
	assert.Equal(t, "AS", played.Turn.PlayedCard)
	assert.Equal(t, int64(4), played.Turn.NextPlayerID)

	scores := receive(t, ch)
	assert.Equal(t, notify.EventScoresUpdated, scores.Type)
}

func TestEventsStayOnTheirTable(t *testing.T) {
	ctx := context.Background()
	_, n := newNotifier(t)

	sub := n.Subscribe(ctx, "mine")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	ch := sub.Channel()

	n.CardsDealt(ctx, "other")
	n.ScoresUpdated(ctx, "mine")

	ev := receive(t, ch)
	assert.Equal(t, "mine", ev.TableUID)
	assert.Equal(t, notify.EventScoresUpdated, ev.Type)
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	mr, n := newNotifier(t)
	mr.Close()

	assert.NotPanics(t, func() {
		n.CardsDealt(context.Background(), "gone")
	})
}

func TestCanceledRequestStillPublishes(t *testing.T) {
	_, n := newNotifier(t)

	sub := n.Subscribe(context.Background(), "t-2")
	defer sub.Close()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	ch := sub.Channel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.ScoresUpdated(ctx, "t-2")

	ev := receive(t, ch)
	assert.Equal(t, notify.EventScoresUpdated, ev.Type)
}

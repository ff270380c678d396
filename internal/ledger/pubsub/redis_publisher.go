package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bet-ledger-engine/pkg/contracts/events"
	"github.com/radieske/bet-ledger-engine/pkg/contracts/topics"
)

// RedisBroadcaster publica as notificações do engine no canal Pub/Sub
// consumido pelo hub WebSocket.
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, payload []byte) error {
	return b.r.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBroadcaster) publish(ctx context.Context, typ string, eventID int64, v any) error {
	msg, err := events.Wrap(typ, eventID, v)
	if err != nil {
		return err
	}
	return b.Publish(ctx, msg)
}

func (b *RedisBroadcaster) PublishQuotaChanged(ctx context.Context, e events.QuotaChanged) error {
	return b.publish(ctx, topics.QuotaChanged, e.EventID, e)
}

func (b *RedisBroadcaster) PublishEventChanged(ctx context.Context, e events.EventChanged) error {
	return b.publish(ctx, topics.EventChanged, e.EventID, e)
}

// Apostas individuais não vão para o broadcast público
func (b *RedisBroadcaster) PublishBetPlaced(context.Context, events.BetPlaced) error { return nil }

func (b *RedisBroadcaster) PublishPrizeAwarded(context.Context, events.PrizeAwarded) error {
	return nil
}

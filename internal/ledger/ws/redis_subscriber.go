package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal Pub/Sub numa goroutine e repassa cada
// envelope recebido para o Hub. Encerra quando ctx é cancelado.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				dispatch(hub, []byte(msg.Payload), log)
			}
		}
	}()
}

func dispatch(hub *Hub, payload []byte, log *zap.Logger) {
	var env events.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Warn("ws subscriber unmarshal error", zap.Error(err))
		return
	}
	hub.Broadcast(env)
}

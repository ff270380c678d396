package producer

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	skafka "github.com/radieske/bet-ledger-engine/internal/shared/kafka"
	"github.com/radieske/bet-ledger-engine/pkg/contracts/events"
)

// Topics mapeia cada notificação para o seu tópico Kafka
type Topics struct {
	QuotaChanged string
	EventChanged string
	BetPlaced    string
	PrizeAwarded string
}

type messageWriter interface {
	skafka.MessageWriter
	Close() error
}

// KafkaPublisher publica as notificações do engine em JSON. A chave da
// mensagem é o id do Event, mantendo a ordem por Event dentro da partição.
type KafkaPublisher struct {
	writer messageWriter
	topics Topics
	log    *zap.Logger
}

func NewKafkaPublisher(w *kafka.Writer, topics Topics, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topics: topics, log: log}
}

func (p *KafkaPublisher) publish(ctx context.Context, topic string, eventID int64, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}
	key := strconv.FormatInt(eventID, 10)
	msgID := kafka.Header{Key: "message-id", Value: []byte(uuid.NewString())}
	if err := skafka.WriteJSON(ctx, p.writer, topic, key, value, msgID); err != nil {
		p.log.Error("failed to publish", zap.String("topic", topic), zap.Error(err))
		return err
	}
	p.log.Debug("published", zap.String("topic", topic), zap.Int64("event_id", eventID))
	return nil
}

func (p *KafkaPublisher) PublishQuotaChanged(ctx context.Context, e events.QuotaChanged) error {
	return p.publish(ctx, p.topics.QuotaChanged, e.EventID, e)
}

func (p *KafkaPublisher) PublishEventChanged(ctx context.Context, e events.EventChanged) error {
	return p.publish(ctx, p.topics.EventChanged, e.EventID, e)
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	return p.publish(ctx, p.topics.BetPlaced, e.EventID, e)
}

func (p *KafkaPublisher) PublishPrizeAwarded(ctx context.Context, e events.PrizeAwarded) error {
	return p.publish(ctx, p.topics.PrizeAwarded, e.EventID, e)
}

// Close finaliza o writer e libera recursos associados.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

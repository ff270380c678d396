package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
	"github.com/radieske/bet-ledger-engine/pkg/contracts/events"
)

// setIfCurrentLua grava a quota só se a geração lida antes da consulta ao
// banco ainda for a atual; Invalidate incrementa a geração.
const setIfCurrentLua = `
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
    return 0
end
if tonumber(ARGV[3]) > 0 then
    redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
    redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`

// QuotaCache guarda a Quota ativa corrente de cada Event no Redis.
// Também implementa engine.Notifier: qualquer mudança de Quota ou Event
// invalida a entrada, e a próxima leitura repopula a partir do banco.
type QuotaCache struct {
	Client *redis.Client
	TTL    time.Duration

	setIfCurrent *redis.Script
}

func NewQuotaCache(c *redis.Client, ttl time.Duration) *QuotaCache {
	return &QuotaCache{Client: c, TTL: ttl, setIfCurrent: redis.NewScript(setIfCurrentLua)}
}

// key gera a chave Redis da quota corrente de um evento
func key(eventID int64) string { return "ledger:quota:current:" + strconv.FormatInt(eventID, 10) }

func genKey(eventID int64) string { return "ledger:quota:gen:" + strconv.FormatInt(eventID, 10) }

// Get devolve a quota e a geração atual da entrada; (false, nil) em cache miss.
// A geração deve ser repassada ao Set que repopula a entrada.
func (c *QuotaCache) Get(ctx context.Context, eventID int64) (domain.Quota, int64, bool, error) {
	var q domain.Quota
	vals, err := c.Client.MGet(ctx, key(eventID), genKey(eventID)).Result()
	if err != nil {
		return q, 0, false, err
	}
	gen, err := parseGen(vals[1])
	if err != nil {
		return q, 0, false, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return q, gen, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return q, gen, false, err
	}
	return q, gen, true, nil
}

func parseGen(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// Set grava a quota se nenhuma invalidação ocorreu desde o Get que devolveu
// gen. Devolve false quando a escrita foi descartada.
func (c *QuotaCache) Set(ctx context.Context, q domain.Quota, gen int64) (bool, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return false, err
	}
	n, err := c.setIfCurrent.Run(ctx, c.Client,
		[]string{key(q.EventID), genKey(q.EventID)},
		strconv.FormatInt(gen, 10), b, c.TTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *QuotaCache) Invalidate(ctx context.Context, eventID int64) error {
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey(eventID))
		p.Del(ctx, key(eventID))
		return nil
	})
	return err
}

func (c *QuotaCache) PublishQuotaChanged(ctx context.Context, e events.QuotaChanged) error {
	return c.Invalidate(ctx, e.EventID)
}

func (c *QuotaCache) PublishEventChanged(ctx context.Context, e events.EventChanged) error {
	return c.Invalidate(ctx, e.EventID)
}

func (c *QuotaCache) PublishBetPlaced(context.Context, events.BetPlaced) error { return nil }

func (c *QuotaCache) PublishPrizeAwarded(context.Context, events.PrizeAwarded) error { return nil }

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/auth"
	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
	"github.com/radieske/bet-ledger-engine/internal/ledger/engine"
)

// fakeLedger implementa só o que os testes usam; o resto cai no nil embutido
type fakeLedger struct {
	Ledger
	actor   auth.Actor
	amount  decimal.Decimal
	won     *bool
	err     error
	current int
	// onCurrent roda durante a leitura da quota corrente
	onCurrent func()
}

func (f *fakeLedger) PlaceByQuota(_ context.Context, a auth.Actor, quotaID int64, amount decimal.Decimal) (engine.PlacedBet, error) {
	f.actor, f.amount = a, amount
	if f.err != nil {
		return engine.PlacedBet{}, f.err
	}
	return engine.PlacedBet{Bet: domain.Bet{ID: 1, QuotaID: quotaID, User: a.ID}}, nil
}

func (f *fakeLedger) ResolveEvent(_ context.Context, a auth.Actor, id int64, won bool) (domain.Event, error) {
	f.actor, f.won = a, &won
	return domain.Event{ID: id, Completed: domain.OutcomeOf(won)}, f.err
}

func (f *fakeLedger) CurrentQuota(_ context.Context, eventID int64) (domain.Quota, error) {
	f.current++
	if f.onCurrent != nil {
		f.onCurrent()
	}
	return domain.Quota{ID: 5, EventID: eventID, Active: true}, f.err
}

type memCache struct {
	m   map[int64]domain.Quota
	gen map[int64]int64
}

func newMemCache() *memCache {
	return &memCache{m: map[int64]domain.Quota{}, gen: map[int64]int64{}}
}

func (c *memCache) Get(_ context.Context, id int64) (domain.Quota, int64, bool, error) {
	q, ok := c.m[id]
	return q, c.gen[id], ok, nil
}

func (c *memCache) Set(_ context.Context, q domain.Quota, gen int64) (bool, error) {
	if c.gen[q.EventID] != gen {
		return false, nil
	}
	c.m[q.EventID] = q
	return true, nil
}

func (c *memCache) invalidate(id int64) {
	c.gen[id]++
	delete(c.m, id)
}

var jwtCfg = auth.JWT{Secret: []byte("test"), TokenTTL: time.Hour}

func token(t *testing.T, user string, roles ...auth.Role) string {
	t.Helper()
	tok, _, err := jwtCfg.Sign(user, roles)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + tok
}

func do(h http.Handler, method, path, authz, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPlaceByQuotaRoute(t *testing.T) {
	f := &fakeLedger{}
	h := NewServer(zap.NewNop(), f, jwtCfg, nil, nil).Router()

	rec := do(h, http.MethodPost, "/v1/quotas/9/bets", token(t, "u1", auth.BetConsumer), `{"amount":"10.50"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if f.actor.ID != "u1" || !f.actor.HasRole(auth.BetConsumer) {
		t.Fatalf("actor=%+v", f.actor)
	}
	if !f.amount.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("amount=%s", f.amount)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}
	var out engine.PlacedBet
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Bet.QuotaID != 9 {
		t.Fatalf("out=%+v err=%v", out, err)
	}
}

func TestErrorStatus(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidQuota, http.StatusConflict},
		{domain.ErrNoActiveQuota, http.StatusConflict},
		{domain.ErrInactiveQuota, http.StatusBadRequest},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrNotFound, http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	} {
		f := &fakeLedger{err: tc.err}
		h := NewServer(zap.NewNop(), f, jwtCfg, nil, nil).Router()
		rec := do(h, http.MethodPost, "/v1/quotas/1/bets", token(t, "u1", auth.BetConsumer), `{"amount":1}`)
		if rec.Code != tc.want {
			t.Fatalf("err=%v status=%d want=%d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestInvalidToken(t *testing.T) {
	h := NewServer(zap.NewNop(), &fakeLedger{}, jwtCfg, nil, nil).Router()
	rec := do(h, http.MethodPost, "/v1/quotas/1/bets", "Bearer garbage", `{"amount":1}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want=401", rec.Code)
	}
}

func TestBadPathAndBody(t *testing.T) {
	h := NewServer(zap.NewNop(), &fakeLedger{}, jwtCfg, nil, nil).Router()
	if rec := do(h, http.MethodPost, "/v1/quotas/abc/bets", "", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/v1/quotas/1/bets", "", `{`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}
}

func TestResolveRoute(t *testing.T) {
	f := &fakeLedger{}
	h := NewServer(zap.NewNop(), f, jwtCfg, nil, nil).Router()

	if rec := do(h, http.MethodPost, "/v1/events/3/resolve", token(t, "m1", auth.BetManager), `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}
	rec := do(h, http.MethodPost, "/v1/events/3/resolve", token(t, "m1", auth.BetManager), `{"won":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if f.won == nil || *f.won {
		t.Fatalf("won=%v want=false", f.won)
	}
	if !strings.Contains(rec.Body.String(), `"completed":false`) {
		t.Fatalf("body=%s", rec.Body)
	}
}

func TestCurrentQuotaUsesCache(t *testing.T) {
	f := &fakeLedger{}
	c := newMemCache()
	h := NewServer(zap.NewNop(), f, jwtCfg, c, nil).Router()

	for i := 0; i < 2; i++ {
		rec := do(h, http.MethodGet, "/v1/events/4/quota", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
		}
	}
	if f.current != 1 {
		t.Fatalf("ledger calls=%d want=1", f.current)
	}
	if _, ok := c.m[4]; !ok {
		t.Fatalf("quota not cached")
	}
}

func TestCurrentQuotaSkipsWriteAfterInvalidation(t *testing.T) {
	c := newMemCache()
	f := &fakeLedger{}
	// a quota muda entre a leitura do banco e a escrita no cache
	f.onCurrent = func() { c.invalidate(4) }
	h := NewServer(zap.NewNop(), f, jwtCfg, c, nil).Router()

	if rec := do(h, http.MethodGet, "/v1/events/4/quota", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if _, ok := c.m[4]; ok {
		t.Fatalf("stale quota cached after invalidation")
	}

	f.onCurrent = nil
	do(h, http.MethodGet, "/v1/events/4/quota", "", "")
	if _, ok := c.m[4]; !ok {
		t.Fatalf("quota not cached on a clean read")
	}
	if f.current != 2 {
		t.Fatalf("ledger calls=%d want=2", f.current)
	}
}

package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// counter devolve o valor do contador name com o label informado ("" = sem label)
func counter(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" || (len(m.GetLabel()) == 1 && m.GetLabel()[0].GetValue() == label) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestLedgerCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedger(reg)

	m.BetPlaced()
	m.BetPlaced()
	m.PrizesAwarded(3)
	m.EventTransition("resolve")
	m.Error("notify")

	if got := counter(t, reg, "ledger_bets_placed_total", ""); got != 2 {
		t.Fatalf("bets placed=%v want=2", got)
	}
	if got := counter(t, reg, "ledger_prizes_awarded_total", ""); got != 3 {
		t.Fatalf("prizes=%v want=3", got)
	}
	if got := counter(t, reg, "ledger_event_transitions_total", "resolve"); got != 1 {
		t.Fatalf("resolve transitions=%v want=1", got)
	}
	if got := counter(t, reg, "ledger_errors_total", "notify"); got != 1 {
		t.Fatalf("notify errors=%v want=1", got)
	}
}

func TestHealthz(t *testing.T) {
	ok := Handler(func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}

	down := Handler(func(context.Context) error { return errors.New("db down") })
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want=503", rec.Code)
	}
}

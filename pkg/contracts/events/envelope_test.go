package events

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWrap(t *testing.T) {
	b, err := Wrap("quota_changed", 9, QuotaChanged{QuotaID: 1, EventID: 9, Coeficient: decimal.RequireFromString("1.00001"), Active: true})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != "quota_changed" || env.EventID != 9 {
		t.Fatalf("envelope=%+v", env)
	}
	var q QuotaChanged
	if err := json.Unmarshal(env.Payload, &q); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if !q.Active || !q.Coeficient.Equal(decimal.RequireFromString("1.00001")) {
		t.Fatalf("payload=%+v", q)
	}
}

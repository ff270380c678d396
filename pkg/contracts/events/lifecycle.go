package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evento publicado quando uma Quota é criada, alterada ou removida.
// Quando Active=true as demais Quotas do Event foram desativadas.
type QuotaChanged struct {
	QuotaID     int64           `json:"quota_id"`
	EventID     int64           `json:"event_id"`
	Probability decimal.Decimal `json:"probability"`
	Coeficient  decimal.Decimal `json:"coeficient"`
	Active      bool            `json:"active"`
	Deleted     bool            `json:"deleted,omitempty"`
	Retired     int64           `json:"retired"` // quotas irmãs desativadas
	Ts          time.Time       `json:"ts"`
}

// Evento publicado a cada gravação de Event.
type EventChanged struct {
	EventID     int64     `json:"event_id"`
	AffairID    int64     `json:"affair_id"`
	Transition  string    `json:"transition"` // create | persist | deactivate | resolve | delete
	Active      bool      `json:"active"`
	Completed   *bool     `json:"completed"`
	BetsSettled int       `json:"bets_settled"`
	Prizes      int       `json:"prizes"`
	Ts          time.Time `json:"ts"`
}

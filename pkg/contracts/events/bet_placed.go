package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evento emitido após a colocação de uma aposta (Transaction + Bet gravadas).
type BetPlaced struct {
	BetID             int64           `json:"bet_id"`
	TransactionID     int64           `json:"transaction_id"`
	QuotaID           int64           `json:"quota_id"`
	EventID           int64           `json:"event_id"`
	UserID            string          `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
	PotentialEarnings decimal.Decimal `json:"potential_earnings"`
	Ts                time.Time       `json:"ts"`
}

// Evento emitido para cada Prize criado na resolução de um Event.
type PrizeAwarded struct {
	PrizeID int64           `json:"prize_id"`
	BetID   int64           `json:"bet_id"`
	EventID int64           `json:"event_id"`
	UserID  string          `json:"user_id"`
	Reward  decimal.Decimal `json:"reward"`
	Ts      time.Time       `json:"ts"`
}

package topics

const (
	// Quotas
	QuotaChanged = "quota_changed"

	// Events
	EventChanged = "event_changed"

	// Bets
	BetPlaced    = "bet_placed"
	PrizeAwarded = "prize_awarded"
)

package domain

import "github.com/shopspring/decimal"

// PrepareBet aplica a guarda de gravação de uma Bet: a Quota precisa estar
// ativa e potential_earnings é sempre recalculado. Won/Active só são
// reiniciados na criação (ID == 0) para não reabrir Bets já resolvidas.
func PrepareBet(b Bet, q Quota, amount decimal.Decimal) (Bet, error) {
	if !q.Active {
		return b, ErrInactiveQuota
	}
	b.QuotaID = q.ID
	b.PotentialEarnings = PotentialEarnings(amount, q.Coeficient)
	if b.ID == 0 {
		b.Won = Unresolved
		b.Active = true
	}
	return b, nil
}

// OldestQuota escolhe a Quota ativa criada há mais tempo (desempate por id)
func OldestQuota(quotas []Quota) (Quota, bool) {
	var (
		best  Quota
		found bool
	)
	for _, q := range quotas {
		if !q.Active {
			continue
		}
		if !found || q.CreatedAt.Before(best.CreatedAt) ||
			(q.CreatedAt.Equal(best.CreatedAt) && q.ID < best.ID) {
			best = q
			found = true
		}
	}
	return best, found
}

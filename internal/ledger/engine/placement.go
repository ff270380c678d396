package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/auth"
	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
)

// PlacedBet é o resultado de uma colocação: a Transaction debitada e a Bet
type PlacedBet struct {
	Bet         domain.Bet         `json:"bet"`
	Transaction domain.Transaction `json:"transaction"`
	EventID     int64              `json:"event"`
}

// PlaceByQuota aposta amount na Quota indicada. A Quota e o Event precisam
// estar ativos; caso contrário devolve ErrInvalidQuota.
func (s *Service) PlaceByQuota(ctx context.Context, actor auth.Actor, quotaID int64, amount decimal.Decimal) (PlacedBet, error) {
	if err := auth.RequireRole(actor, auth.BetConsumer); err != nil {
		return PlacedBet{}, err
	}
	amount, err := domain.NormalizeAmount(amount)
	if err != nil {
		return PlacedBet{}, err
	}

	var out PlacedBet
	err = s.store.InTx(ctx, func(tx Tx) error {
		q, err := tx.GetQuota(ctx, quotaID)
		if err != nil {
			return invalidAs(err, domain.ErrInvalidQuota)
		}
		ev, err := tx.LockEvent(ctx, q.EventID)
		if err != nil {
			return invalidAs(err, domain.ErrInvalidQuota)
		}
		// relê depois do lock: a Quota pode ter sido desativada no meio tempo
		if q, err = tx.GetQuota(ctx, quotaID); err != nil {
			return invalidAs(err, domain.ErrInvalidQuota)
		}
		if !q.Active || !ev.Active || ev.Completed.Resolved() {
			return domain.ErrInvalidQuota
		}
		out, err = placeOn(ctx, tx, actor.ID, q, amount)
		return err
	})
	if err != nil {
		return PlacedBet{}, s.fail("place_by_quota", err)
	}
	s.logPlaced(out)
	s.betPlaced(ctx, out)
	return out, nil
}

// PlaceByEvent aposta na Quota ativa mais antiga do Event.
func (s *Service) PlaceByEvent(ctx context.Context, actor auth.Actor, eventID int64, amount decimal.Decimal) (PlacedBet, error) {
	if err := auth.RequireRole(actor, auth.BetConsumer); err != nil {
		return PlacedBet{}, err
	}
	amount, err := domain.NormalizeAmount(amount)
	if err != nil {
		return PlacedBet{}, err
	}

	var out PlacedBet
	err = s.store.InTx(ctx, func(tx Tx) error {
		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return invalidAs(err, domain.ErrInvalidEvent)
		}
		if !ev.Active || ev.Completed.Resolved() {
			return domain.ErrInvalidEvent
		}
		quotas, err := tx.ListQuotasByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		q, ok := domain.OldestQuota(quotas)
		if !ok {
			return domain.ErrNoActiveQuota
		}
		out, err = placeOn(ctx, tx, actor.ID, q, amount)
		return err
	})
	if err != nil {
		return PlacedBet{}, s.fail("place_by_event", err)
	}
	s.logPlaced(out)
	s.betPlaced(ctx, out)
	return out, nil
}

// SaveBet regrava uma Bet existente pela guarda de gravação: recalcula
// potential_earnings com a Quota atual e mantém won/active.
func (s *Service) SaveBet(ctx context.Context, actor auth.Actor, betID int64) (domain.Bet, error) {
	if err := auth.RequireRole(actor, auth.BetManager); err != nil {
		return domain.Bet{}, err
	}
	var b domain.Bet
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		if b, err = tx.GetBet(ctx, betID); err != nil {
			return fmt.Errorf("bet %d: %w", betID, err)
		}
		q, err := tx.GetQuota(ctx, b.QuotaID)
		if err != nil {
			return err
		}
		t, err := tx.GetTransaction(ctx, b.TransactionID)
		if err != nil {
			return err
		}
		if b, err = domain.PrepareBet(b, q, t.Amount); err != nil {
			return err
		}
		return tx.UpdateBet(ctx, &b)
	})
	if err != nil {
		return domain.Bet{}, s.fail("bet_save", err)
	}
	return b, nil
}

func placeOn(ctx context.Context, tx Tx, user string, q domain.Quota, amount decimal.Decimal) (PlacedBet, error) {
	t := domain.Transaction{
		User:        user,
		Amount:      amount,
		Description: domain.BetPlacementDescription,
	}
	if err := tx.InsertTransaction(ctx, &t); err != nil {
		return PlacedBet{}, err
	}
	b, err := domain.PrepareBet(domain.Bet{TransactionID: t.ID, User: user}, q, amount)
	if err != nil {
		return PlacedBet{}, err
	}
	if err := tx.InsertBet(ctx, &b); err != nil {
		return PlacedBet{}, err
	}
	return PlacedBet{Bet: b, Transaction: t, EventID: q.EventID}, nil
}

func (s *Service) logPlaced(p PlacedBet) {
	s.log.Info("bet placed",
		zap.Int64("bet_id", p.Bet.ID),
		zap.Int64("quota_id", p.Bet.QuotaID),
		zap.Int64("event_id", p.EventID),
		zap.String("user", p.Bet.User),
		zap.String("amount", p.Transaction.Amount.StringFixed(domain.AmountPlaces)),
	)
}

// invalidAs converte NotFound no erro de colocação correspondente
func invalidAs(err, kind error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return kind
	}
	return err
}

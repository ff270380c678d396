package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
	"github.com/radieske/bet-ledger-engine/pkg/contracts/events"
)

// Notifier recebe as notificações de ciclo de vida depois do commit.
// Falhas são apenas logadas: a escrita já está durável.
type Notifier interface {
	PublishQuotaChanged(ctx context.Context, e events.QuotaChanged) error
	PublishEventChanged(ctx context.Context, e events.EventChanged) error
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
	PublishPrizeAwarded(ctx context.Context, e events.PrizeAwarded) error
}

type nopNotifier struct{}

func (nopNotifier) PublishQuotaChanged(context.Context, events.QuotaChanged) error { return nil }
func (nopNotifier) PublishEventChanged(context.Context, events.EventChanged) error { return nil }
func (nopNotifier) PublishBetPlaced(context.Context, events.BetPlaced) error       { return nil }
func (nopNotifier) PublishPrizeAwarded(context.Context, events.PrizeAwarded) error { return nil }

// Fanout repassa cada notificação para todos os notifiers, acumulando erros
type Fanout []Notifier

func (f Fanout) PublishQuotaChanged(ctx context.Context, e events.QuotaChanged) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.PublishQuotaChanged(ctx, e))
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishEventChanged(ctx context.Context, e events.EventChanged) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.PublishEventChanged(ctx, e))
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.PublishBetPlaced(ctx, e))
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishPrizeAwarded(ctx context.Context, e events.PrizeAwarded) error {
	var errs []error
	for _, n := range f {
		errs = append(errs, n.PublishPrizeAwarded(ctx, e))
	}
	return errors.Join(errs...)
}

func (s *Service) quotaChanged(ctx context.Context, q domain.Quota, retired int64, deleted bool) {
	if q.Active && !deleted && s.hooks.OnQuotaActivated != nil {
		s.hooks.OnQuotaActivated()
	}
	err := s.notifier.PublishQuotaChanged(ctx, events.QuotaChanged{
		QuotaID:     q.ID,
		EventID:     q.EventID,
		Probability: q.Probability,
		Coeficient:  q.Coeficient,
		Active:      q.Active && !deleted,
		Deleted:     deleted,
		Retired:     retired,
		Ts:          s.now(),
	})
	if err != nil {
		s.log.Warn("notify quota_changed failed", zap.Int64("quota_id", q.ID), zap.Error(err))
		s.fail("notify", err)
	}
}

func (s *Service) eventChanged(ctx context.Context, e domain.Event, transition string, settled int, prizes []domain.Prize) {
	if s.hooks.OnEventTransition != nil {
		s.hooks.OnEventTransition(transition)
	}
	msg := events.EventChanged{
		EventID:     e.ID,
		AffairID:    e.AffairID,
		Transition:  transition,
		Active:      e.Active,
		BetsSettled: settled,
		Prizes:      len(prizes),
		Ts:          s.now(),
	}
	if e.Completed.Resolved() {
		c := e.Completed == domain.Yes
		msg.Completed = &c
	}
	if err := s.notifier.PublishEventChanged(ctx, msg); err != nil {
		s.log.Warn("notify event_changed failed", zap.Int64("event_id", e.ID), zap.Error(err))
		s.fail("notify", err)
	}

	if len(prizes) == 0 {
		return
	}
	if s.hooks.OnPrizesAwarded != nil {
		s.hooks.OnPrizesAwarded(len(prizes))
	}
	for _, p := range prizes {
		err := s.notifier.PublishPrizeAwarded(ctx, events.PrizeAwarded{
			PrizeID: p.ID,
			BetID:   p.BetID,
			EventID: e.ID,
			UserID:  p.User,
			Reward:  p.Reward,
			Ts:      p.CreatedAt,
		})
		if err != nil {
			s.log.Warn("notify prize_awarded failed", zap.Int64("prize_id", p.ID), zap.Error(err))
			s.fail("notify", err)
		}
	}
}

func (s *Service) betPlaced(ctx context.Context, p PlacedBet) {
	if s.hooks.OnBetPlaced != nil {
		s.hooks.OnBetPlaced()
	}
	err := s.notifier.PublishBetPlaced(ctx, events.BetPlaced{
		BetID:             p.Bet.ID,
		TransactionID:     p.Transaction.ID,
		QuotaID:           p.Bet.QuotaID,
		EventID:           p.EventID,
		UserID:            p.Bet.User,
		Amount:            p.Transaction.Amount,
		PotentialEarnings: p.Bet.PotentialEarnings,
		Ts:                p.Bet.CreatedAt,
	})
	if err != nil {
		s.log.Warn("notify bet_placed failed", zap.Int64("bet_id", p.Bet.ID), zap.Error(err))
		s.fail("notify", err)
	}
}

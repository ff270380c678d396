package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/auth"
	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
)

type QuotaInput struct {
	EventID        int64           `json:"event"`
	Probability    decimal.Decimal `json:"probability"`
	ExpirationDate time.Time       `json:"expiration_date"`
	Active         *bool           `json:"active"`
}

// QuotaPatch não aceita probability: a Quota é imutável nesse campo
type QuotaPatch struct {
	ID             int64      `json:"-"`
	ExpirationDate *time.Time `json:"expiration_date"`
	Active         *bool      `json:"active"`
}

func (s *Service) CreateQuota(ctx context.Context, actor auth.Actor, in QuotaInput) (domain.Quota, error) {
	if err := auth.RequireRole(actor, auth.BetManager); err != nil {
		return domain.Quota{}, err
	}
	p, err := domain.NormalizeProbability(in.Probability)
	if err != nil {
		return domain.Quota{}, err
	}
	if in.ExpirationDate.IsZero() {
		return domain.Quota{}, domain.Validationf("expiration_date is required")
	}

	q := domain.Quota{
		Manager:        actor.ID,
		EventID:        in.EventID,
		Probability:    p,
		ExpirationDate: in.ExpirationDate,
		Active:         true,
	}
	if in.Active != nil {
		q.Active = *in.Active
	}

	var retired int64
	err = s.store.InTx(ctx, func(tx Tx) error {
		ev, err := tx.LockEvent(ctx, in.EventID)
		if err != nil {
			return fmt.Errorf("event %d: %w", in.EventID, err)
		}
		retired, err = s.saveQuota(ctx, tx, ev, &q)
		return err
	})
	if err != nil {
		return domain.Quota{}, s.fail("quota_create", err)
	}
	s.log.Info("quota created",
		zap.Int64("quota_id", q.ID),
		zap.Int64("event_id", q.EventID),
		zap.Bool("active", q.Active),
		zap.Int64("retired", retired),
	)
	s.quotaChanged(ctx, q, retired, false)
	return q, nil
}

func (s *Service) UpdateQuota(ctx context.Context, actor auth.Actor, p QuotaPatch) (domain.Quota, error) {
	if err := auth.RequireRole(actor, auth.BetManager); err != nil {
		return domain.Quota{}, err
	}

	var (
		q       domain.Quota
		retired int64
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		cur, err := tx.GetQuota(ctx, p.ID)
		if err != nil {
			return hideMissing(err)
		}
		if err := auth.RequireOwner(actor, cur.Manager); err != nil {
			return err
		}
		// trava o Event pai e relê a Quota já serializada
		ev, err := tx.LockEvent(ctx, cur.EventID)
		if err != nil {
			return err
		}
		if q, err = tx.GetQuota(ctx, p.ID); err != nil {
			return hideMissing(err)
		}
		if p.ExpirationDate != nil {
			q.ExpirationDate = *p.ExpirationDate
		}
		if p.Active != nil {
			q.Active = *p.Active
		}
		retired, err = s.saveQuota(ctx, tx, ev, &q)
		return err
	})
	if err != nil {
		return domain.Quota{}, s.fail("quota_update", err)
	}
	s.quotaChanged(ctx, q, retired, false)
	return q, nil
}

func (s *Service) DeleteQuota(ctx context.Context, actor auth.Actor, id int64) error {
	if err := auth.RequireRole(actor, auth.BetManager); err != nil {
		return err
	}
	var q domain.Quota
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		if q, err = tx.GetQuota(ctx, id); err != nil {
			return hideMissing(err)
		}
		if err := auth.RequireOwner(actor, q.Manager); err != nil {
			return err
		}
		return tx.DeleteQuota(ctx, id)
	})
	if err != nil {
		return s.fail("quota_delete", err)
	}
	s.log.Info("quota deleted", zap.Int64("quota_id", id))
	s.quotaChanged(ctx, q, 0, true)
	return nil
}

// CurrentQuota devolve a Quota ativa usada por PlaceByEvent
func (s *Service) CurrentQuota(ctx context.Context, eventID int64) (domain.Quota, error) {
	var q domain.Quota
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetEvent(ctx, eventID); err != nil {
			return err
		}
		quotas, err := tx.ListQuotasByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		var ok bool
		if q, ok = domain.OldestQuota(quotas); !ok {
			return domain.ErrNoActiveQuota
		}
		return nil
	})
	return q, err
}

// saveQuota recalcula o coeficiente e aplica a exclusividade: uma Quota ativa
// desativa as irmãs do mesmo Event antes de ser gravada. Exige o Event travado.
func (s *Service) saveQuota(ctx context.Context, tx Tx, ev domain.Event, q *domain.Quota) (int64, error) {
	if q.Active && ev.Completed.Resolved() {
		return 0, domain.ErrEventClosed
	}
	q.Coeficient = domain.Coeficient(s.coef, q.Probability)

	var retired int64
	if q.Active {
		n, err := tx.DeactivateQuotas(ctx, q.EventID, q.ID)
		if err != nil {
			return 0, err
		}
		retired = n
	}
	if q.ID == 0 {
		return retired, tx.InsertQuota(ctx, q)
	}
	return retired, tx.UpdateQuota(ctx, q)
}

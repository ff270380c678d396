package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/auth"
	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
)

type EventInput struct {
	AffairID       int64     `json:"affair"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Rules          *string   `json:"rules"`
	ExpirationDate time.Time `json:"expiration_date"`
	Active         *bool     `json:"active"`
	// Completed é aceito mas ignorado: Events novos nascem sem resultado
	Completed *bool `json:"completed"`
}

type EventPatch struct {
	ID             int64      `json:"-"`
	Name           *string    `json:"name"`
	Description    *string    `json:"description"`
	Rules          *string    `json:"rules"`
	ExpirationDate *time.Time `json:"expiration_date"`
	Active         *bool      `json:"active"`
	Completed      *bool      `json:"completed"`
}

func (s *Service) CreateEvent(ctx context.Context, actor auth.Actor, in EventInput) (domain.Event, error) {
	if err := auth.RequireRole(actor, auth.BetManager); err != nil {
		return domain.Event{}, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" {
		return domain.Event{}, domain.Validationf("name and description are required")
	}
	if in.ExpirationDate.IsZero() {
		return domain.Event{}, domain.Validationf("expiration_date is required")
	}

	next := domain.Event{
		Manager:        actor.ID,
		AffairID:       in.AffairID,
		Name:           in.Name,
		Description:    in.Description,
		Rules:          in.Rules,
		ExpirationDate: in.ExpirationDate,
		Active:         true,
	}
	if in.Active != nil {
		next.Active = *in.Active
	}
	if in.Completed != nil {
		next.Completed = domain.OutcomeOf(*in.Completed)
	}

	plan, err := domain.PlanEventSave(nil, next, nil, s.now())
	if err != nil {
		return domain.Event{}, err
	}
	ev := plan.Event
	err = s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetAffair(ctx, in.AffairID); err != nil {
			return fmt.Errorf("affair %d: %w", in.AffairID, err)
		}
		return tx.InsertEvent(ctx, &ev)
	})
	if err != nil {
		return domain.Event{}, s.fail("event_create", err)
	}
	s.log.Info("event created", zap.Int64("event_id", ev.ID), zap.Int64("affair_id", ev.AffairID))
	s.eventChanged(ctx, ev, plan.Transition.String(), 0, nil)
	return ev, nil
}

// UpdateEvent aplica o patch e executa a cascata correspondente à transição
// (pausa, resolução ou gravação simples) numa única transação.
func (s *Service) UpdateEvent(ctx context.Context, actor auth.Actor, p EventPatch) (domain.Event, error) {
	if err := auth.RequireRole(actor, auth.BetManager); err != nil {
		return domain.Event{}, err
	}

	var plan domain.EventPlan
	err := s.store.InTx(ctx, func(tx Tx) error {
		prev, err := tx.LockEvent(ctx, p.ID)
		if err != nil {
			return hideMissing(err)
		}
		if err := auth.RequireOwner(actor, prev.Manager); err != nil {
			return err
		}
		next, err := applyEventPatch(prev, p)
		if err != nil {
			return err
		}

		tr, err := domain.ClassifyEventSave(&prev, next)
		if err != nil {
			return err
		}
		var pending []domain.PendingBet
		if tr == domain.TransitionResolve {
			if pending, err = tx.ListPendingBets(ctx, prev.ID); err != nil {
				return err
			}
		}
		if plan, err = domain.PlanEventSave(&prev, next, pending, s.now()); err != nil {
			return err
		}
		return applyEventPlan(ctx, tx, &plan)
	})
	if err != nil {
		return domain.Event{}, s.fail("event_update", err)
	}

	ev := plan.Event
	if plan.Transition == domain.TransitionResolve {
		s.log.Info("event resolved",
			zap.Int64("event_id", ev.ID),
			zap.Stringer("completed", ev.Completed),
			zap.Int("bets_settled", len(plan.BetUpdates)),
			zap.Int("prizes", len(plan.Prizes)),
		)
	}
	s.eventChanged(ctx, ev, plan.Transition.String(), len(plan.BetUpdates), plan.Prizes)
	return ev, nil
}

// ResolveEvent marca o Event como ganho (won=true) ou perdido e liquida as Bets pendentes
func (s *Service) ResolveEvent(ctx context.Context, actor auth.Actor, eventID int64, won bool) (domain.Event, error) {
	return s.UpdateEvent(ctx, actor, EventPatch{ID: eventID, Completed: &won})
}

func (s *Service) DeleteEvent(ctx context.Context, actor auth.Actor, id int64) error {
	if err := auth.RequireRole(actor, auth.BetManager); err != nil {
		return err
	}
	var ev domain.Event
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		if ev, err = tx.LockEvent(ctx, id); err != nil {
			return hideMissing(err)
		}
		if err := auth.RequireOwner(actor, ev.Manager); err != nil {
			return err
		}
		return tx.DeleteEvent(ctx, id)
	})
	if err != nil {
		return s.fail("event_delete", err)
	}
	s.log.Info("event deleted", zap.Int64("event_id", id))
	ev.Active = false
	s.eventChanged(ctx, ev, "delete", 0, nil)
	return nil
}

func applyEventPatch(ev domain.Event, p EventPatch) (domain.Event, error) {
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return ev, domain.Validationf("name is required")
		}
		ev.Name = *p.Name
	}
	if p.Description != nil {
		if strings.TrimSpace(*p.Description) == "" {
			return ev, domain.Validationf("description is required")
		}
		ev.Description = *p.Description
	}
	if p.Rules != nil {
		ev.Rules = p.Rules
	}
	if p.ExpirationDate != nil {
		ev.ExpirationDate = *p.ExpirationDate
	}
	if p.Active != nil {
		ev.Active = *p.Active
	}
	if p.Completed != nil {
		ev.Completed = domain.OutcomeOf(*p.Completed)
	}
	return ev, nil
}

// applyEventPlan grava Prizes, Bets, Quotas e o Event, nessa ordem
func applyEventPlan(ctx context.Context, tx Tx, plan *domain.EventPlan) error {
	if len(plan.Prizes) > 0 {
		if err := tx.InsertPrizes(ctx, plan.Prizes); err != nil {
			return err
		}
	}
	if len(plan.BetUpdates) > 0 {
		if err := tx.UpdateBetOutcomes(ctx, plan.BetUpdates); err != nil {
			return err
		}
	}
	if plan.DeactivateQuotas {
		if _, err := tx.DeactivateQuotas(ctx, plan.Event.ID, 0); err != nil {
			return err
		}
	}
	return tx.UpdateEvent(ctx, &plan.Event)
}

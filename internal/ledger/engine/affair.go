package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/auth"
	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
)

type AffairInput struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// AffairPatch altera apenas os campos informados; Tags nil mantém as tags
type AffairPatch struct {
	ID          int64    `json:"-"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

func (s *Service) CreateAffair(ctx context.Context, actor auth.Actor, in AffairInput) (domain.Affair, error) {
	if err := auth.RequireRole(actor, auth.BetManager); err != nil {
		return domain.Affair{}, err
	}
	if strings.TrimSpace(in.Description) == "" {
		return domain.Affair{}, domain.Validationf("description is required")
	}

	a := domain.Affair{Manager: actor.ID, Description: in.Description}
	err := s.store.InTx(ctx, func(tx Tx) error {
		tags, err := resolveTags(ctx, tx, in.Tags)
		if err != nil {
			return err
		}
		if err := tx.InsertAffair(ctx, &a); err != nil {
			return err
		}
		a.Tags = tags
		return tx.SetAffairTags(ctx, a.ID, tags)
	})
	if err != nil {
		return domain.Affair{}, s.fail("affair_create", err)
	}
	s.log.Info("affair created", zap.Int64("affair_id", a.ID), zap.String("manager", a.Manager))
	return a, nil
}

func (s *Service) UpdateAffair(ctx context.Context, actor auth.Actor, p AffairPatch) (domain.Affair, error) {
	if err := auth.RequireRole(actor, auth.BetManager); err != nil {
		return domain.Affair{}, err
	}

	var a domain.Affair
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		if a, err = tx.GetAffair(ctx, p.ID); err != nil {
			return hideMissing(err)
		}
		if err := auth.RequireOwner(actor, a.Manager); err != nil {
			return err
		}
		if p.Description != nil {
			if strings.TrimSpace(*p.Description) == "" {
				return domain.Validationf("description is required")
			}
			a.Description = *p.Description
		}
		if p.Tags != nil {
			tags, err := resolveTags(ctx, tx, p.Tags)
			if err != nil {
				return err
			}
			if err := tx.SetAffairTags(ctx, a.ID, tags); err != nil {
				return err
			}
			a.Tags = tags
		}
		return tx.UpdateAffair(ctx, &a)
	})
	if err != nil {
		return domain.Affair{}, s.fail("affair_update", err)
	}
	return a, nil
}

// DeleteAffair remove o Affair e, em cascata, Events/Quotas/Bets/Prizes
func (s *Service) DeleteAffair(ctx context.Context, actor auth.Actor, id int64) error {
	if err := auth.RequireRole(actor, auth.BetManager); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx Tx) error {
		a, err := tx.GetAffair(ctx, id)
		if err != nil {
			return hideMissing(err)
		}
		if err := auth.RequireOwner(actor, a.Manager); err != nil {
			return err
		}
		return tx.DeleteAffair(ctx, id)
	})
	if err != nil {
		return s.fail("affair_delete", err)
	}
	s.log.Info("affair deleted", zap.Int64("affair_id", id))
	return nil
}

func resolveTags(ctx context.Context, tx Tx, tokens []string) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, len(tokens))
	seen := make(map[int64]bool, len(tokens))
	for _, tok := range tokens {
		ref := domain.ParseTagRef(tok)
		if !ref.ByID() && ref.Name == "" {
			return nil, domain.Validationf("empty tag")
		}
		t, err := tx.ResolveTag(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", tok, err)
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		tags = append(tags, t)
	}
	return tags, nil
}

// hideMissing troca NotFound por Forbidden em operações sobre recursos
// próprios, sem revelar se o recurso existe.
func hideMissing(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrForbidden
	}
	return err
}

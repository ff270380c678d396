package auth

import (
	"context"
	"fmt"

	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
)

// Role é o nome do grupo exigido por uma operação
type Role string

const (
	BetManager  Role = "bet_manager"
	BetConsumer Role = "bet_consumer"
)

// Actor é a identidade opaca do chamador, já resolvida pela camada de borda.
type Actor struct {
	ID            string
	Authenticated bool
	Groups        []Role
}

// Anonymous é o ator sem autenticação
var Anonymous = Actor{}

func (a Actor) HasRole(r Role) bool {
	for _, g := range a.Groups {
		if g == r {
			return true
		}
	}
	return false
}

// RequireRole falha se o ator não está autenticado ou não pertence ao grupo
func RequireRole(a Actor, r Role) error {
	if !a.Authenticated || a.ID == "" {
		return domain.ErrUnauthenticated
	}
	if !a.HasRole(r) {
		return fmt.Errorf("%w: requires %s", domain.ErrForbidden, r)
	}
	return nil
}

// RequireOwner exige que o ator seja o manager do recurso
func RequireOwner(a Actor, manager string) error {
	if a.ID == "" || a.ID != manager {
		return domain.ErrForbidden
	}
	return nil
}

type ctxKey struct{}

// WithActor anexa o ator ao contexto da requisição
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext devolve o ator do contexto ou Anonymous
func FromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(ctxKey{}).(Actor); ok {
		return a
	}
	return Anonymous
}

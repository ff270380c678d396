// Package engine implementa o ciclo de vida de Events, Quotas e Bets:
// exclusividade de Quota ativa, guarda de gravação de Bet, resolução de
// Events com geração de Prizes e o serviço de colocação de apostas.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
)

// Store abre o escopo transacional usado por cada caso de uso.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx são as operações de persistência disponíveis dentro de uma transação.
// Métodos Get* devolvem erro que satisfaz errors.Is(err, domain.ErrNotFound).
type Tx interface {
	ResolveTag(ctx context.Context, ref domain.TagRef) (domain.Tag, error)

	InsertAffair(ctx context.Context, a *domain.Affair) error
	GetAffair(ctx context.Context, id int64) (domain.Affair, error)
	UpdateAffair(ctx context.Context, a *domain.Affair) error
	SetAffairTags(ctx context.Context, affairID int64, tags []domain.Tag) error
	DeleteAffair(ctx context.Context, id int64) error

	InsertEvent(ctx context.Context, e *domain.Event) error
	GetEvent(ctx context.Context, id int64) (domain.Event, error)
	// LockEvent lê o Event bloqueando a linha até o fim da transação
	LockEvent(ctx context.Context, id int64) (domain.Event, error)
	UpdateEvent(ctx context.Context, e *domain.Event) error
	DeleteEvent(ctx context.Context, id int64) error

	InsertQuota(ctx context.Context, q *domain.Quota) error
	GetQuota(ctx context.Context, id int64) (domain.Quota, error)
	UpdateQuota(ctx context.Context, q *domain.Quota) error
	DeleteQuota(ctx context.Context, id int64) error
	ListQuotasByEvent(ctx context.Context, eventID int64) ([]domain.Quota, error)
	// DeactivateQuotas desativa as Quotas do Event exceto exceptID (0 = todas)
	DeactivateQuotas(ctx context.Context, eventID, exceptID int64) (int64, error)

	InsertTransaction(ctx context.Context, t *domain.Transaction) error
	GetTransaction(ctx context.Context, id int64) (domain.Transaction, error)
	InsertBet(ctx context.Context, b *domain.Bet) error
	GetBet(ctx context.Context, id int64) (domain.Bet, error)
	UpdateBet(ctx context.Context, b *domain.Bet) error
	// ListPendingBets devolve as Bets com won NULL de todas as Quotas do Event
	ListPendingBets(ctx context.Context, eventID int64) ([]domain.PendingBet, error)
	UpdateBetOutcomes(ctx context.Context, bets []domain.Bet) error
	InsertPrizes(ctx context.Context, prizes []domain.Prize) error
}

// Hooks são callbacks de métricas, todos opcionais
type Hooks struct {
	OnBetPlaced       func()
	OnEventTransition func(transition string)
	OnPrizesAwarded   func(n int)
	OnQuotaActivated  func()
	OnError           func(stage string)
}

// Service agrupa o LifecycleEngine e o BetPlacementService.
type Service struct {
	log      *zap.Logger
	store    Store
	notifier Notifier
	coef     domain.CoefficientFunc
	now      func() time.Time
	hooks    Hooks
}

type Option func(*Service)

// WithCoefficient troca a fórmula de coeficiente das Quotas
func WithCoefficient(fn domain.CoefficientFunc) Option {
	return func(s *Service) { s.coef = fn }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithHooks(h Hooks) Option {
	return func(s *Service) { s.hooks = h }
}

func New(log *zap.Logger, store Store, opts ...Option) *Service {
	s := &Service{
		log:      log,
		store:    store,
		notifier: nopNotifier{},
		coef:     domain.FixedCoefficient,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) fail(stage string, err error) error {
	if err != nil && s.hooks.OnError != nil {
		s.hooks.OnError(stage)
	}
	return err
}

// Package httpapi expõe os comandos do ledger via REST (chi) e o WebSocket de atualizações.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/auth"
	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
	"github.com/radieske/bet-ledger-engine/internal/ledger/engine"
)

// Ledger são os casos de uso expostos pela API
type Ledger interface {
	CreateAffair(ctx context.Context, actor auth.Actor, in engine.AffairInput) (domain.Affair, error)
	UpdateAffair(ctx context.Context, actor auth.Actor, p engine.AffairPatch) (domain.Affair, error)
	DeleteAffair(ctx context.Context, actor auth.Actor, id int64) error

	CreateEvent(ctx context.Context, actor auth.Actor, in engine.EventInput) (domain.Event, error)
	UpdateEvent(ctx context.Context, actor auth.Actor, p engine.EventPatch) (domain.Event, error)
	ResolveEvent(ctx context.Context, actor auth.Actor, eventID int64, won bool) (domain.Event, error)
	DeleteEvent(ctx context.Context, actor auth.Actor, id int64) error

	CreateQuota(ctx context.Context, actor auth.Actor, in engine.QuotaInput) (domain.Quota, error)
	UpdateQuota(ctx context.Context, actor auth.Actor, p engine.QuotaPatch) (domain.Quota, error)
	DeleteQuota(ctx context.Context, actor auth.Actor, id int64) error
	CurrentQuota(ctx context.Context, eventID int64) (domain.Quota, error)

	PlaceByQuota(ctx context.Context, actor auth.Actor, quotaID int64, amount decimal.Decimal) (engine.PlacedBet, error)
	PlaceByEvent(ctx context.Context, actor auth.Actor, eventID int64, amount decimal.Decimal) (engine.PlacedBet, error)
	SaveBet(ctx context.Context, actor auth.Actor, betID int64) (domain.Bet, error)
}

// Verifier transforma um bearer token em Actor
type Verifier interface {
	Verify(token string) (auth.Actor, error)
}

// QuotaCache é o cache da quota corrente por Event (opcional). Get devolve a
// geração da entrada; Set descarta a escrita se houve invalidação desde então.
type QuotaCache interface {
	Get(ctx context.Context, eventID int64) (domain.Quota, int64, bool, error)
	Set(ctx context.Context, q domain.Quota, gen int64) (bool, error)
}

type Server struct {
	log    *zap.Logger
	ledger Ledger
	tokens Verifier
	cache  QuotaCache
	ws     http.HandlerFunc
}

func NewServer(log *zap.Logger, l Ledger, v Verifier, c QuotaCache, ws http.HandlerFunc) *Server {
	return &Server{log: log, ledger: l, tokens: v, cache: c, ws: ws}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.logRequests)

	if s.ws != nil {
		r.Get("/ws", s.ws)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/v1/affairs", s.createAffair)
		r.Patch("/v1/affairs/{id}", s.updateAffair)
		r.Delete("/v1/affairs/{id}", s.deleteAffair)

		r.Post("/v1/events", s.createEvent)
		r.Patch("/v1/events/{id}", s.updateEvent)
		r.Delete("/v1/events/{id}", s.deleteEvent)
		r.Post("/v1/events/{id}/resolve", s.resolveEvent)
		r.Post("/v1/events/{id}/bets", s.placeByEvent)
		r.Get("/v1/events/{id}/quota", s.currentQuota)

		r.Post("/v1/quotas", s.createQuota)
		r.Patch("/v1/quotas/{id}", s.updateQuota)
		r.Delete("/v1/quotas/{id}", s.deleteQuota)
		r.Post("/v1/quotas/{id}/bets", s.placeByQuota)

		r.Post("/v1/bets/{id}/save", s.saveBet)
	})
	return r
}

// ---- middlewares ----

type ctxKey struct{}

// requestID propaga ou gera o X-Request-ID
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// authenticate resolve o Actor do bearer token. Sem token segue anônimo;
// token inválido encerra com 401.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" {
			next.ServeHTTP(w, r)
			return
		}
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			writeError(w, domain.ErrUnauthenticated)
			return
		}
		actor, err := s.tokens.Verify(strings.TrimSpace(tok))
		if err != nil {
			s.log.Debug("invalid token", zap.Error(err))
			writeError(w, domain.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
	})
}

// ---- helpers ----

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf classifica os erros de domínio
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidQuota),
		errors.Is(err, domain.ErrInvalidEvent),
		errors.Is(err, domain.ErrNoActiveQuota):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusOf(err) == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, err)
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Validationf("bad json: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger-engine/internal/ledger/auth"
	"github.com/radieske/bet-ledger-engine/internal/ledger/engine"
)

type placeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type resolveRequest struct {
	Won *bool `json:"won"`
}

// ---- affairs ----

func (s *Server) createAffair(w http.ResponseWriter, r *http.Request) {
	var in engine.AffairInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.ledger.CreateAffair(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) updateAffair(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var p engine.AffairPatch
	if err := decode(r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	p.ID = id
	a, err := s.ledger.UpdateAffair(r.Context(), auth.FromContext(r.Context()), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAffair(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.ledger.DeleteAffair(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- events ----

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var in engine.EventInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := s.ledger.CreateEvent(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var p engine.EventPatch
	if err := decode(r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	p.ID = id
	e, err := s.ledger.UpdateEvent(r.Context(), auth.FromContext(r.Context()), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) resolveEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req resolveRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Won == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "won is required"})
		return
	}
	e, err := s.ledger.ResolveEvent(r.Context(), auth.FromContext(r.Context()), id, *req.Won)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.ledger.DeleteEvent(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// currentQuota retorna a quota ativa do evento, preferencialmente do cache
func (s *Server) currentQuota(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		q, g, ok, err := s.cache.Get(r.Context(), id)
		switch {
		case err != nil:
			s.log.Warn("quota cache get failed", zap.Int64("event_id", id), zap.Error(err))
		case ok:
			writeJSON(w, http.StatusOK, q)
			return
		default:
			gen, cacheable = g, true
		}
	}

	q, err := s.ledger.CurrentQuota(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if cacheable {
		stored, err := s.cache.Set(r.Context(), q, gen)
		if err != nil {
			s.log.Warn("quota cache set failed", zap.Int64("event_id", id), zap.Error(err))
		} else if !stored {
			s.log.Debug("quota cache write skipped after invalidation", zap.Int64("event_id", id))
		}
	}
	writeJSON(w, http.StatusOK, q)
}

// ---- quotas ----

func (s *Server) createQuota(w http.ResponseWriter, r *http.Request) {
	var in engine.QuotaInput
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	q, err := s.ledger.CreateQuota(r.Context(), auth.FromContext(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) updateQuota(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var p engine.QuotaPatch
	if err := decode(r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	p.ID = id
	q, err := s.ledger.UpdateQuota(r.Context(), auth.FromContext(r.Context()), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) deleteQuota(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.ledger.DeleteQuota(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- bets ----

func (s *Server) placeByQuota(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req placeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	placed, err := s.ledger.PlaceByQuota(r.Context(), auth.FromContext(r.Context()), id, req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, placed)
}

func (s *Server) placeByEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req placeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	placed, err := s.ledger.PlaceByEvent(r.Context(), auth.FromContext(r.Context()), id, req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, placed)
}

func (s *Server) saveBet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.ledger.SaveBet(r.Context(), auth.FromContext(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ledger agrupa os contadores do ledger-service
type Ledger struct {
	betsPlaced       prometheus.Counter
	eventTransitions *prometheus.CounterVec
	prizesAwarded    prometheus.Counter
	quotaActivations prometheus.Counter
	errorsBy         *prometheus.CounterVec
}

// NewLedger cria e registra os contadores em reg
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		betsPlaced:       prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_bets_placed_total", Help: "apostas colocadas"}),
		eventTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_event_transitions_total", Help: "gravações de Event por transição"}, []string{"transition"}),
		prizesAwarded:    prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_prizes_awarded_total", Help: "prêmios gerados"}),
		quotaActivations: prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_quota_activations_total", Help: "quotas gravadas como ativas"}),
		errorsBy:         prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_errors_total", Help: "erros por estágio"}, []string{"stage"}),
	}
	reg.MustRegister(m.betsPlaced, m.eventTransitions, m.prizesAwarded, m.quotaActivations, m.errorsBy)
	return m
}

func (m *Ledger) BetPlaced() { m.betsPlaced.Inc() }
func (m *Ledger) EventTransition(transition string) {
	m.eventTransitions.WithLabelValues(transition).Inc()
}
func (m *Ledger) PrizesAwarded(n int) { m.prizesAwarded.Add(float64(n)) }
func (m *Ledger) QuotaActivated()     { m.quotaActivations.Inc() }
func (m *Ledger) Error(stage string)  { m.errorsBy.WithLabelValues(stage).Inc() }

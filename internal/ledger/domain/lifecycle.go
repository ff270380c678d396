package domain

import "time"

// EventTransition classifica o efeito de um save de Event.
type EventTransition int

const (
	// TransitionCreate: Event novo, completed sempre começa Unresolved
	TransitionCreate EventTransition = iota
	// TransitionPersist: grava o Event sem cascata
	TransitionPersist
	// TransitionDeactivate: pausa sem resolver, desativa as Quotas
	TransitionDeactivate
	// TransitionResolve: resolve as Bets pendentes, desativa Quotas e o Event
	TransitionResolve
)

func (t EventTransition) String() string {
	switch t {
	case TransitionCreate:
		return "create"
	case TransitionDeactivate:
		return "deactivate"
	case TransitionResolve:
		return "resolve"
	default:
		return "persist"
	}
}

// ClassifyEventSave decide a transição a partir do estado gravado (prev, nil
// para Event novo) e do estado desejado (next).
func ClassifyEventSave(prev *Event, next Event) (EventTransition, error) {
	if prev == nil {
		return TransitionCreate, nil
	}
	if prev.Completed.Resolved() {
		// estado terminal: não é possível trocar o resultado nem reativar
		if next.Completed != prev.Completed {
			return TransitionPersist, ErrEventResolved
		}
		if next.Active {
			return TransitionPersist, ErrEventClosed
		}
		return TransitionPersist, nil
	}
	if !next.Active && !next.Completed.Resolved() {
		return TransitionDeactivate, nil
	}
	if next.Completed.Resolved() {
		return TransitionResolve, nil
	}
	return TransitionPersist, nil
}

// EventPlan reúne todas as escritas derivadas de um save de Event.
type EventPlan struct {
	Transition       EventTransition
	Event            Event
	DeactivateQuotas bool
	BetUpdates       []Bet
	Prizes           []Prize
}

// PlanEventSave calcula em memória o que deve ser gravado. pending só é
// consultado em TransitionResolve e deve conter apenas Bets com Won Unresolved.
func PlanEventSave(prev *Event, next Event, pending []PendingBet, now time.Time) (EventPlan, error) {
	tr, err := ClassifyEventSave(prev, next)
	if err != nil {
		return EventPlan{}, err
	}
	plan := EventPlan{Transition: tr, Event: next}

	switch tr {
	case TransitionCreate:
		plan.Event.Completed = Unresolved
	case TransitionDeactivate:
		plan.DeactivateQuotas = true
	case TransitionResolve:
		won := next.Completed == Yes
		for _, pb := range pending {
			if pb.Bet.Won.Resolved() {
				continue
			}
			b := pb.Bet
			b.Won = next.Completed
			b.Active = false
			plan.BetUpdates = append(plan.BetUpdates, b)
			if won {
				plan.Prizes = append(plan.Prizes, Prize{
					BetID:  b.ID,
					User:   b.User,
					Reward: PrizeReward(pb.Probability, pb.Amount),
				})
			}
		}
		plan.Event.ExpirationDate = now
		plan.Event.Active = false
		plan.DeactivateQuotas = true
	}
	return plan, nil
}

package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
)

// memStore implementa Store em memória. Cada InTx trabalha sobre uma cópia
// do estado e só publica a cópia se fn não falhar.
type memStore struct {
	mu    sync.Mutex
	state memState
	clock func() time.Time
}

type memState struct {
	seq          int64
	tags         map[int64]domain.Tag
	affairs      map[int64]domain.Affair
	events       map[int64]domain.Event
	quotas       map[int64]domain.Quota
	transactions map[int64]domain.Transaction
	bets         map[int64]domain.Bet
	prizes       map[int64]domain.Prize
}

func newMemStore(clock func() time.Time) *memStore {
	return &memStore{
		clock: clock,
		state: memState{
			tags:         map[int64]domain.Tag{},
			affairs:      map[int64]domain.Affair{},
			events:       map[int64]domain.Event{},
			quotas:       map[int64]domain.Quota{},
			transactions: map[int64]domain.Transaction{},
			bets:         map[int64]domain.Bet{},
			prizes:       map[int64]domain.Prize{},
		},
	}
}

func (s memState) clone() memState {
	c := memState{seq: s.seq}
	c.tags = cloneMap(s.tags)
	c.affairs = cloneMap(s.affairs)
	c.events = cloneMap(s.events)
	c.quotas = cloneMap(s.quotas)
	c.transactions = cloneMap(s.transactions)
	c.bets = cloneMap(s.bets)
	c.prizes = cloneMap(s.prizes)
	return c
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{st: m.state.clone(), now: m.clock}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.st
	return nil
}

// seed grava diretamente, sem passar pelas regras do engine
func (m *memStore) seedQuota(q domain.Quota) domain.Quota {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.seq++
	q.ID = m.state.seq
	m.state.quotas[q.ID] = q
	return q
}

func (m *memStore) quota(id int64) domain.Quota {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.quotas[id]
}

func (m *memStore) event(id int64) domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.events[id]
}

func (m *memStore) bet(id int64) domain.Bet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.bets[id]
}

func (m *memStore) prizesFor(betID int64) []domain.Prize {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Prize
	for _, p := range m.state.prizes {
		if p.BetID == betID {
			out = append(out, p)
		}
	}
	return out
}

func (m *memStore) activeQuotas(eventID int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for _, q := range m.state.quotas {
		if q.EventID == eventID && q.Active {
			ids = append(ids, q.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memStore) counts() (transactions, bets, prizes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.transactions), len(m.state.bets), len(m.state.prizes)
}

type memTx struct {
	st  memState
	now func() time.Time
}

func (t *memTx) next() int64 {
	t.st.seq++
	return t.st.seq
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
}

func (t *memTx) ResolveTag(_ context.Context, ref domain.TagRef) (domain.Tag, error) {
	if ref.ByID() {
		tag, ok := t.st.tags[ref.ID]
		if !ok {
			return domain.Tag{}, notFound("tag", ref.ID)
		}
		return tag, nil
	}
	for _, tag := range t.st.tags {
		if tag.Name == ref.Name {
			return tag, nil
		}
	}
	tag := domain.Tag{ID: t.next(), Name: ref.Name}
	t.st.tags[tag.ID] = tag
	return tag, nil
}

func (t *memTx) InsertAffair(_ context.Context, a *domain.Affair) error {
	a.ID = t.next()
	a.CreatedAt, a.UpdatedAt = t.now(), t.now()
	t.st.affairs[a.ID] = *a
	return nil
}

func (t *memTx) GetAffair(_ context.Context, id int64) (domain.Affair, error) {
	a, ok := t.st.affairs[id]
	if !ok {
		return domain.Affair{}, notFound("affair", id)
	}
	return a, nil
}

func (t *memTx) UpdateAffair(_ context.Context, a *domain.Affair) error {
	a.UpdatedAt = t.now()
	t.st.affairs[a.ID] = *a
	return nil
}

func (t *memTx) SetAffairTags(_ context.Context, affairID int64, tags []domain.Tag) error {
	a := t.st.affairs[affairID]
	a.Tags = append([]domain.Tag(nil), tags...)
	t.st.affairs[affairID] = a
	return nil
}

func (t *memTx) DeleteAffair(_ context.Context, id int64) error {
	delete(t.st.affairs, id)
	for eid, e := range t.st.events {
		if e.AffairID == id {
			t.deleteEvent(eid)
		}
	}
	return nil
}

func (t *memTx) InsertEvent(_ context.Context, e *domain.Event) error {
	e.ID = t.next()
	e.CreatedAt, e.UpdatedAt = t.now(), t.now()
	t.st.events[e.ID] = *e
	return nil
}

func (t *memTx) GetEvent(_ context.Context, id int64) (domain.Event, error) {
	e, ok := t.st.events[id]
	if !ok {
		return domain.Event{}, notFound("event", id)
	}
	return e, nil
}

func (t *memTx) LockEvent(ctx context.Context, id int64) (domain.Event, error) {
	return t.GetEvent(ctx, id)
}

func (t *memTx) UpdateEvent(_ context.Context, e *domain.Event) error {
	e.UpdatedAt = t.now()
	t.st.events[e.ID] = *e
	return nil
}

func (t *memTx) DeleteEvent(_ context.Context, id int64) error {
	t.deleteEvent(id)
	return nil
}

func (t *memTx) deleteEvent(id int64) {
	delete(t.st.events, id)
	for qid, q := range t.st.quotas {
		if q.EventID != id {
			continue
		}
		delete(t.st.quotas, qid)
		for bid, b := range t.st.bets {
			if b.QuotaID == qid {
				delete(t.st.bets, bid)
			}
		}
	}
}

func (t *memTx) InsertQuota(_ context.Context, q *domain.Quota) error {
	q.ID = t.next()
	q.CreatedAt, q.UpdatedAt = t.now(), t.now()
	t.st.quotas[q.ID] = *q
	return nil
}

func (t *memTx) GetQuota(_ context.Context, id int64) (domain.Quota, error) {
	q, ok := t.st.quotas[id]
	if !ok {
		return domain.Quota{}, notFound("quota", id)
	}
	return q, nil
}

func (t *memTx) UpdateQuota(_ context.Context, q *domain.Quota) error {
	q.UpdatedAt = t.now()
	t.st.quotas[q.ID] = *q
	return nil
}

func (t *memTx) DeleteQuota(_ context.Context, id int64) error {
	delete(t.st.quotas, id)
	return nil
}

func (t *memTx) ListQuotasByEvent(_ context.Context, eventID int64) ([]domain.Quota, error) {
	var out []domain.Quota
	for _, q := range t.st.quotas {
		if q.EventID == eventID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (t *memTx) DeactivateQuotas(_ context.Context, eventID, exceptID int64) (int64, error) {
	var n int64
	for id, q := range t.st.quotas {
		if q.EventID == eventID && id != exceptID && q.Active {
			q.Active = false
			t.st.quotas[id] = q
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertTransaction(_ context.Context, tr *domain.Transaction) error {
	tr.ID = t.next()
	tr.CreatedAt, tr.UpdatedAt = t.now(), t.now()
	t.st.transactions[tr.ID] = *tr
	return nil
}

func (t *memTx) GetTransaction(_ context.Context, id int64) (domain.Transaction, error) {
	tr, ok := t.st.transactions[id]
	if !ok {
		return domain.Transaction{}, notFound("transaction", id)
	}
	return tr, nil
}

func (t *memTx) InsertBet(_ context.Context, b *domain.Bet) error {
	b.ID = t.next()
	b.CreatedAt, b.UpdatedAt = t.now(), t.now()
	t.st.bets[b.ID] = *b
	return nil
}

func (t *memTx) GetBet(_ context.Context, id int64) (domain.Bet, error) {
	b, ok := t.st.bets[id]
	if !ok {
		return domain.Bet{}, notFound("bet", id)
	}
	return b, nil
}

func (t *memTx) UpdateBet(_ context.Context, b *domain.Bet) error {
	b.UpdatedAt = t.now()
	t.st.bets[b.ID] = *b
	return nil
}

func (t *memTx) ListPendingBets(_ context.Context, eventID int64) ([]domain.PendingBet, error) {
	var out []domain.PendingBet
	for _, b := range t.st.bets {
		q := t.st.quotas[b.QuotaID]
		if q.EventID != eventID || b.Won.Resolved() {
			continue
		}
		out = append(out, domain.PendingBet{
			Bet:         b,
			Amount:      t.st.transactions[b.TransactionID].Amount,
			Probability: q.Probability,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bet.ID < out[j].Bet.ID })
	return out, nil
}

func (t *memTx) UpdateBetOutcomes(_ context.Context, bets []domain.Bet) error {
	for _, b := range bets {
		b.UpdatedAt = t.now()
		t.st.bets[b.ID] = b
	}
	return nil
}

func (t *memTx) InsertPrizes(_ context.Context, prizes []domain.Prize) error {
	for i := range prizes {
		prizes[i].ID = t.next()
		prizes[i].CreatedAt = t.now()
		t.st.prizes[prizes[i].ID] = prizes[i]
	}
	return nil
}

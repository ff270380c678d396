// Package repo implementa engine.Store sobre Postgres (database/sql + lib/pq).
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
	"github.com/radieske/bet-ledger-engine/internal/ledger/engine"
)

// códigos SQLSTATE tratados
const (
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// Postgres implementa engine.Store
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// InTx executa fn numa transação; qualquer erro desfaz tudo
func (p *Postgres) InTx(ctx context.Context, fn func(tx engine.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type pgTx struct{ tx *sql.Tx }

var _ engine.Tx = (*pgTx)(nil)

// mapErr traduz erros do driver para os erros de domínio
func mapErr(kind string, id int64, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", kind, domain.ErrNotFound, pqErr.Detail)
		case codeCheckViolation:
			return domain.Validationf("%s: %s", kind, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", kind, err)
}

// ---- tags / affairs ----

func (t *pgTx) ResolveTag(ctx context.Context, ref domain.TagRef) (domain.Tag, error) {
	var tag domain.Tag
	if ref.ByID() {
		err := t.tx.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE id=$1`, ref.ID).Scan(&tag.ID, &tag.Name)
		return tag, mapErr("tag", ref.ID, err)
	}
	// get-or-create; o DO UPDATE garante o RETURNING também quando já existe
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO tags(name) VALUES($1)
		ON CONFLICT (name) DO UPDATE SET name=EXCLUDED.name
		RETURNING id, name`, ref.Name).Scan(&tag.ID, &tag.Name)
	return tag, mapErr("tag", 0, err)
}

func (t *pgTx) InsertAffair(ctx context.Context, a *domain.Affair) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO affairs(manager, description) VALUES($1,$2)
		RETURNING id, creation_date, modification_date`,
		a.Manager, a.Description).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return mapErr("affair", 0, err)
}

func (t *pgTx) GetAffair(ctx context.Context, id int64) (domain.Affair, error) {
	var a domain.Affair
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, manager, description, creation_date, modification_date
		FROM affairs WHERE id=$1`, id).Scan(&a.ID, &a.Manager, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, mapErr("affair", id, err)
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT t.id, t.name FROM tags t
		JOIN affair_tags at ON at.tag_id = t.id
		WHERE at.affair_id=$1 ORDER BY t.id`, id)
	if err != nil {
		return a, mapErr("affair tags", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return a, err
		}
		a.Tags = append(a.Tags, tag)
	}
	return a, rows.Err()
}

func (t *pgTx) UpdateAffair(ctx context.Context, a *domain.Affair) error {
	err := t.tx.QueryRowContext(ctx, `
		UPDATE affairs SET description=$1, modification_date=NOW()
		WHERE id=$2 RETURNING modification_date`,
		a.Description, a.ID).Scan(&a.UpdatedAt)
	return mapErr("affair", a.ID, err)
}

func (t *pgTx) SetAffairTags(ctx context.Context, affairID int64, tags []domain.Tag) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM affair_tags WHERE affair_id=$1`, affairID); err != nil {
		return mapErr("affair tags", affairID, err)
	}
	for _, tag := range tags {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO affair_tags(affair_id, tag_id) VALUES($1,$2) ON CONFLICT DO NOTHING`,
			affairID, tag.ID); err != nil {
			return mapErr("affair tags", affairID, err)
		}
	}
	return nil
}

func (t *pgTx) DeleteAffair(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM affairs WHERE id=$1`, id)
	return mapErr("affair", id, err)
}

// ---- events ----

const eventColumns = `id, manager, affair_id, name, description, rules, expiration_date,
	active, completed, creation_date, modification_date`

func scanEvent(row interface{ Scan(...any) error }) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Manager, &e.AffairID, &e.Name, &e.Description, &e.Rules,
		&e.ExpirationDate, &e.Active, &e.Completed, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (t *pgTx) InsertEvent(ctx context.Context, e *domain.Event) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO events(manager, affair_id, name, description, rules, expiration_date, active, completed)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, creation_date, modification_date`,
		e.Manager, e.AffairID, e.Name, e.Description, e.Rules, e.ExpirationDate, e.Active, e.Completed,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapErr("event", 0, err)
}

func (t *pgTx) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	e, err := scanEvent(t.tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id))
	return e, mapErr("event", id, err)
}

func (t *pgTx) LockEvent(ctx context.Context, id int64) (domain.Event, error) {
	e, err := scanEvent(t.tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1 FOR UPDATE`, id))
	return e, mapErr("event", id, err)
}

func (t *pgTx) UpdateEvent(ctx context.Context, e *domain.Event) error {
	err := t.tx.QueryRowContext(ctx, `
		UPDATE events SET name=$1, description=$2, rules=$3, expiration_date=$4,
			active=$5, completed=$6, modification_date=NOW()
		WHERE id=$7 RETURNING modification_date`,
		e.Name, e.Description, e.Rules, e.ExpirationDate, e.Active, e.Completed, e.ID,
	).Scan(&e.UpdatedAt)
	return mapErr("event", e.ID, err)
}

func (t *pgTx) DeleteEvent(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM events WHERE id=$1`, id)
	return mapErr("event", id, err)
}

// ---- quotas ----

const quotaColumns = `id, manager, event_id, probability, coeficient, expiration_date,
	active, creation_date, modification_date`

func scanQuota(row interface{ Scan(...any) error }) (domain.Quota, error) {
	var q domain.Quota
	err := row.Scan(&q.ID, &q.Manager, &q.EventID, &q.Probability, &q.Coeficient,
		&q.ExpirationDate, &q.Active, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

func (t *pgTx) InsertQuota(ctx context.Context, q *domain.Quota) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO quotas(manager, event_id, probability, coeficient, expiration_date, active)
		VALUES($1,$2,$3,$4,$5,$6)
		RETURNING id, creation_date, modification_date`,
		q.Manager, q.EventID, q.Probability, q.Coeficient, q.ExpirationDate, q.Active,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	return mapErr("quota", 0, err)
}

func (t *pgTx) GetQuota(ctx context.Context, id int64) (domain.Quota, error) {
	q, err := scanQuota(t.tx.QueryRowContext(ctx, `SELECT `+quotaColumns+` FROM quotas WHERE id=$1`, id))
	return q, mapErr("quota", id, err)
}

func (t *pgTx) UpdateQuota(ctx context.Context, q *domain.Quota) error {
	err := t.tx.QueryRowContext(ctx, `
		UPDATE quotas SET coeficient=$1, expiration_date=$2, active=$3, modification_date=NOW()
		WHERE id=$4 RETURNING modification_date`,
		q.Coeficient, q.ExpirationDate, q.Active, q.ID,
	).Scan(&q.UpdatedAt)
	return mapErr("quota", q.ID, err)
}

func (t *pgTx) DeleteQuota(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM quotas WHERE id=$1`, id)
	return mapErr("quota", id, err)
}

func (t *pgTx) ListQuotasByEvent(ctx context.Context, eventID int64) ([]domain.Quota, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+quotaColumns+` FROM quotas WHERE event_id=$1 ORDER BY creation_date, id`, eventID)
	if err != nil {
		return nil, mapErr("quotas", eventID, err)
	}
	defer rows.Close()

	var out []domain.Quota
	for rows.Next() {
		q, err := scanQuota(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (t *pgTx) DeactivateQuotas(ctx context.Context, eventID, exceptID int64) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE quotas SET active=FALSE, modification_date=NOW()
		WHERE event_id=$1 AND id<>$2 AND active`, eventID, exceptID)
	if err != nil {
		return 0, mapErr("quotas", eventID, err)
	}
	return res.RowsAffected()
}

// ---- transactions / bets / prizes ----

func (t *pgTx) InsertTransaction(ctx context.Context, tr *domain.Transaction) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO transactions(user_id, amount, description) VALUES($1,$2,$3)
		RETURNING id, creation_date, modification_date`,
		tr.User, tr.Amount, tr.Description,
	).Scan(&tr.ID, &tr.CreatedAt, &tr.UpdatedAt)
	return mapErr("transaction", 0, err)
}

func (t *pgTx) GetTransaction(ctx context.Context, id int64) (domain.Transaction, error) {
	var tr domain.Transaction
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, user_id, amount, description, creation_date, modification_date
		FROM transactions WHERE id=$1`, id,
	).Scan(&tr.ID, &tr.User, &tr.Amount, &tr.Description, &tr.CreatedAt, &tr.UpdatedAt)
	return tr, mapErr("transaction", id, err)
}

func (t *pgTx) InsertBet(ctx context.Context, b *domain.Bet) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO bets(transaction_id, quota_id, user_id, potential_earnings, won, active)
		VALUES($1,$2,$3,$4,$5,$6)
		RETURNING id, creation_date, modification_date`,
		b.TransactionID, b.QuotaID, b.User, b.PotentialEarnings, b.Won, b.Active,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapErr("bet", 0, err)
}

func (t *pgTx) GetBet(ctx context.Context, id int64) (domain.Bet, error) {
	var b domain.Bet
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, transaction_id, quota_id, user_id, potential_earnings, won, active,
			creation_date, modification_date
		FROM bets WHERE id=$1`, id,
	).Scan(&b.ID, &b.TransactionID, &b.QuotaID, &b.User, &b.PotentialEarnings, &b.Won, &b.Active,
		&b.CreatedAt, &b.UpdatedAt)
	return b, mapErr("bet", id, err)
}

func (t *pgTx) UpdateBet(ctx context.Context, b *domain.Bet) error {
	err := t.tx.QueryRowContext(ctx, `
		UPDATE bets SET quota_id=$1, potential_earnings=$2, won=$3, active=$4, modification_date=NOW()
		WHERE id=$5 RETURNING modification_date`,
		b.QuotaID, b.PotentialEarnings, b.Won, b.Active, b.ID,
	).Scan(&b.UpdatedAt)
	return mapErr("bet", b.ID, err)
}

func (t *pgTx) ListPendingBets(ctx context.Context, eventID int64) ([]domain.PendingBet, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT b.id, b.transaction_id, b.quota_id, b.user_id, b.potential_earnings, b.won, b.active,
			b.creation_date, b.modification_date, tr.amount, q.probability
		FROM bets b
		JOIN quotas q ON q.id = b.quota_id
		JOIN transactions tr ON tr.id = b.transaction_id
		WHERE q.event_id=$1 AND b.won IS NULL
		ORDER BY b.id
		FOR UPDATE OF b`, eventID)
	if err != nil {
		return nil, mapErr("pending bets", eventID, err)
	}
	defer rows.Close()

	var out []domain.PendingBet
	for rows.Next() {
		var pb domain.PendingBet
		b := &pb.Bet
		if err := rows.Scan(&b.ID, &b.TransactionID, &b.QuotaID, &b.User, &b.PotentialEarnings, &b.Won,
			&b.Active, &b.CreatedAt, &b.UpdatedAt, &pb.Amount, &pb.Probability); err != nil {
			return nil, err
		}
		out = append(out, pb)
	}
	return out, rows.Err()
}

func (t *pgTx) UpdateBetOutcomes(ctx context.Context, bets []domain.Bet) error {
	stmt, err := t.tx.PrepareContext(ctx, `
		UPDATE bets SET won=$1, active=$2, modification_date=NOW() WHERE id=$3`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, b := range bets {
		if _, err := stmt.ExecContext(ctx, b.Won, b.Active, b.ID); err != nil {
			return mapErr("bet", b.ID, err)
		}
	}
	return nil
}

func (t *pgTx) InsertPrizes(ctx context.Context, prizes []domain.Prize) error {
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO prizes(bet_id, user_id, reward) VALUES($1,$2,$3)
		RETURNING id, creation_date`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range prizes {
		p := &prizes[i]
		if err := stmt.QueryRowContext(ctx, p.BetID, p.User, p.Reward).Scan(&p.ID, &p.CreatedAt); err != nil {
			return mapErr("prize", p.BetID, err)
		}
	}
	return nil
}

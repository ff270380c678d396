package repo

import (
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/lib/pq"

	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
)

func TestMapErr(t *testing.T) {
	if err := mapErr("event", 7, nil); err != nil {
		t.Fatalf("err=%v want nil", err)
	}
	if err := mapErr("event", 7, sql.ErrNoRows); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	fk := &pq.Error{Code: codeForeignKeyViolation, Detail: "Key (affair_id)=(9) is not present"}
	if err := mapErr("event", 0, fk); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	check := &pq.Error{Code: codeCheckViolation, Constraint: "transactions_amount_check"}
	if err := mapErr("transaction", 0, check); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err=%v want ErrValidation", err)
	}
	other := errors.New("conn reset")
	if err := mapErr("bet", 1, other); !errors.Is(err, other) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("no migrations embedded")
	}
	data, err := migrationsFS.ReadFile("migrations/" + entries[0].Name())
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	for _, table := range []string{"affairs", "events", "quotas", "transactions", "bets", "prizes"} {
		if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Fatalf("table %s missing from %s", table, entries[0].Name())
		}
	}
}

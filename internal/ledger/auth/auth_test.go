package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/radieske/bet-ledger-engine/internal/ledger/domain"
)

func TestRequireRole(t *testing.T) {
	if err := RequireRole(Anonymous, BetConsumer); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err=%v want ErrUnauthenticated", err)
	}
	a := Actor{ID: "u1", Authenticated: true, Groups: []Role{BetConsumer}}
	if err := RequireRole(a, BetConsumer); err != nil {
		t.Fatalf("err=%v", err)
	}
	if err := RequireRole(a, BetManager); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err=%v want ErrForbidden", err)
	}
}

func TestRequireOwner(t *testing.T) {
	a := Actor{ID: "m1", Authenticated: true}
	if err := RequireOwner(a, "m1"); err != nil {
		t.Fatalf("err=%v", err)
	}
	if err := RequireOwner(a, "m2"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err=%v want ErrForbidden", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	j := JWT{Secret: []byte("s3cret"), TokenTTL: time.Hour}
	tok, exp, err := j.Sign("m1", []Role{BetManager, BetConsumer})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiresAt=%s in the past", exp)
	}
	a, err := j.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if a.ID != "m1" || !a.Authenticated || !a.HasRole(BetManager) || !a.HasRole(BetConsumer) {
		t.Fatalf("actor=%+v", a)
	}

	other := JWT{Secret: []byte("other"), TokenTTL: time.Hour}
	if _, err := other.Verify(tok); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestActorContext(t *testing.T) {
	if a := FromContext(context.Background()); a.Authenticated {
		t.Fatalf("expected anonymous, got %+v", a)
	}
	ctx := WithActor(context.Background(), Actor{ID: "u1", Authenticated: true})
	if a := FromContext(ctx); a.ID != "u1" {
		t.Fatalf("actor=%+v", a)
	}
}

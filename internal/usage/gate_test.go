package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/plans"
)

type fakeOverrides struct {
	override domain.UnlimitedOverride
	err      error
	calls    int
}

func (f *fakeOverrides) UnlimitedOverride(context.Context, string) (domain.UnlimitedOverride, error) {
	f.calls++
	return f.override, f.err
}

func newTestGate(sql *ledgerSQL, overrides OverrideSource) *Gate {
	ledger := newTestLedger(sql, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC))
	return NewGate(ledger, overrides, zerolog.Nop())
}

func TestCheckUnlimitedShortCircuitsLedger(t *testing.T) {
	sql := newLedgerSQL()
	gate := newTestGate(sql, &fakeOverrides{override: domain.UnlimitedOverride{Unlimited: true}})

	decision := gate.Check(context.Background(), "user-1", "free")
	if !decision.Allowed {
		t.Fatal("expected unlimited user to be allowed")
	}
	if decision.Plan != plans.PlanUnlimited || decision.Limit != -1 || decision.Remaining != -1 || decision.CurrentUsage != 0 {
		t.Fatalf("unexpected decision: %#v", decision)
	}
	if !decision.Unlimited() {
		t.Fatal("expected decision to report unlimited")
	}
	if sql.reads != 0 {
		t.Fatalf("ledger was read %d times for an unlimited user", sql.reads)
	}
}

func TestCheckMeteredWithinQuota(t *testing.T) {
	sql := newLedgerSQL()
	sql.counts["user-1|2024-01"] = 24
	gate := newTestGate(sql, &fakeOverrides{})

	decision := gate.Check(context.Background(), "user-1", "free")
	if !decision.Allowed {
		t.Fatal("expected user below the limit to be allowed")
	}
	if decision.Limit != 25 || decision.CurrentUsage != 24 || decision.Remaining != 1 {
		t.Fatalf("unexpected decision: %#v", decision)
	}
}

func TestCheckDeniesAtQuota(t *testing.T) {
	sql := newLedgerSQL()
	sql.counts["user-1|2024-01"] = 25
	gate := newTestGate(sql, &fakeOverrides{})

	decision := gate.Check(context.Background(), "user-1", "free")
	if decision.Allowed {
		t.Fatal("expected user at the limit to be denied")
	}
	if decision.Remaining != 0 {
		t.Fatalf("Remaining = %d, want 0", decision.Remaining)
	}
}

func TestCheckRemainingNeverNegative(t *testing.T) {
	sql := newLedgerSQL()
	sql.counts["user-1|2024-01"] = 30
	gate := newTestGate(sql, &fakeOverrides{})

	decision := gate.Check(context.Background(), "user-1", "free")
	if decision.Remaining != 0 {
		t.Fatalf("Remaining = %d, want 0 when over quota", decision.Remaining)
	}
}

func TestCheckOverrideLookupFailureFallsBackToPlanQuota(t *testing.T) {
	sql := newLedgerSQL()
	sql.counts["user-1|2024-01"] = 3
	overrides := &fakeOverrides{err: errors.New("profile store down")}
	gate := newTestGate(sql, overrides)

	decision := gate.Check(context.Background(), "user-1", "starter")
	if !decision.Allowed {
		t.Fatal("expected failed override lookup to fall back to the plan quota")
	}
	if decision.Plan != "starter" || decision.Limit != 500 || decision.CurrentUsage != 3 {
		t.Fatalf("unexpected decision: %#v", decision)
	}
	if overrides.calls != 1 {
		t.Fatalf("override lookups = %d, want 1", overrides.calls)
	}
}

func TestCheckUnknownPlanUsesFreeLimit(t *testing.T) {
	gate := newTestGate(newLedgerSQL(), &fakeOverrides{})
	decision := gate.Check(context.Background(), "user-1", "mystery")
	if decision.Limit != 25 {
		t.Fatalf("Limit = %d, want the free fallback of 25", decision.Limit)
	}
}

func TestRecordSkipsLedgerForUnlimited(t *testing.T) {
	sql := newLedgerSQL()
	gate := newTestGate(sql, &fakeOverrides{override: domain.UnlimitedOverride{Unlimited: true}})

	decision := gate.Check(context.Background(), "user-1", "free")
	if got := gate.Record(context.Background(), "user-1", decision); got != 0 {
		t.Fatalf("Record = %d, want 0 for unlimited", got)
	}
	if sql.writes != 0 {
		t.Fatalf("ledger writes = %d, want 0 for unlimited", sql.writes)
	}
}

func TestRecordIncrementsMeteredUsage(t *testing.T) {
	sql := newLedgerSQL()
	sql.counts["user-1|2024-01"] = 24
	gate := newTestGate(sql, &fakeOverrides{})

	decision := gate.Check(context.Background(), "user-1", "free")
	if got := gate.Record(context.Background(), "user-1", decision); got != 25 {
		t.Fatalf("Record = %d, want 25", got)
	}
}

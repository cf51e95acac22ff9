package usage

import (
	"context"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/plans"
)

// OverrideSource resolves the per-user unlimited override.
type OverrideSource interface {
	UnlimitedOverride(ctx context.Context, userID string) (domain.UnlimitedOverride, error)
}

// Decision is the computed allow/deny verdict plus quota figures for one
// request. Limit and Remaining are -1 when the quota is unbounded.
type Decision struct {
	Allowed      bool   `json:"allowed"`
	Plan         string `json:"plan"`
	Limit        int    `json:"limit"`
	CurrentUsage int    `json:"current_usage"`
	Remaining    int    `json:"remaining"`
}

// Unlimited reports whether the decision bypasses the ledger entirely.
func (d Decision) Unlimited() bool {
	return d.Limit < 0
}

// Gate combines the plan limit, the monthly counter and the unlimited
// override into a single entitlement decision. It is read-only: recording
// usage is a separate step owned by the caller, after generation succeeds.
type Gate struct {
	ledger    *Ledger
	overrides OverrideSource
	logger    zerolog.Logger
}

func NewGate(ledger *Ledger, overrides OverrideSource, logger zerolog.Logger) *Gate {
	return &Gate{ledger: ledger, overrides: overrides, logger: logger}
}

// Check resolves the caller's entitlement for the current month. An unlimited
// override wins over any plan tier and skips the ledger read. A failed
// override lookup is logged and treated as "not unlimited" so a broken
// profile store cannot block requests.
func (g *Gate) Check(ctx context.Context, userID, planName string) Decision {
	if g.overrides != nil {
		override, err := g.overrides.UnlimitedOverride(ctx, userID)
		if err != nil {
			g.logger.Warn().Err(err).Str("user_id", userID).Msg("unlimited override lookup failed, continuing with plan quota")
		} else if override.Unlimited {
			return Decision{
				Allowed:      true,
				Plan:         plans.PlanUnlimited,
				Limit:        -1,
				CurrentUsage: 0,
				Remaining:    -1,
			}
		}
	}

	current := g.ledger.CurrentUsage(ctx, userID)
	limit := plans.Limit(planName)
	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:      current < limit,
		Plan:         planName,
		Limit:        limit,
		CurrentUsage: current,
		Remaining:    remaining,
	}
}

// Record bumps the monthly counter for a metered decision and returns the new
// count. Unlimited decisions never touch the ledger.
func (g *Gate) Record(ctx context.Context, userID string, decision Decision) int {
	if decision.Unlimited() {
		return decision.CurrentUsage
	}
	return g.ledger.Increment(ctx, userID)
}

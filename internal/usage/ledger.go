package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"server/internal/infra"
	"server/internal/sqlinline"
)

// Ledger persists the per-user monthly enhancement counter. Counter rows are
// keyed by (user_id, month_year) and created lazily on first increment of a
// new month.
//
// Storage failures never propagate: reads degrade to zero and increments to a
// best-effort count, so a broken counter store cannot block the enhancement
// flow itself.
type Ledger struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
	now    func() time.Time
}

func NewLedger(sql infra.SQLExecutor, logger zerolog.Logger) *Ledger {
	return &Ledger{sql: sql, logger: logger, now: time.Now}
}

// MonthKey returns the current billing period key, e.g. "2024-03".
func (l *Ledger) MonthKey() string {
	return monthKey(l.now())
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// CurrentUsage returns the counter for the current month, or zero when no row
// exists yet. A storage failure also reads as zero.
func (l *Ledger) CurrentUsage(ctx context.Context, userID string) int {
	row := l.sql.QueryRow(ctx, sqlinline.QSelectMonthlyUsage, userID, l.MonthKey())
	var count int
	if err := row.Scan(&count); err != nil {
		if !infra.IsNoRows(err) {
			l.logger.Warn().Err(err).Str("user_id", userID).Msg("usage read failed, assuming zero")
		}
		return 0
	}
	return count
}

// Increment bumps the counter for the current month by one and returns the new
// count. The row is created with count 1 when absent. If the write fails the
// method returns a plausible count instead of an error.
func (l *Ledger) Increment(ctx context.Context, userID string) int {
	row := l.sql.QueryRow(ctx, sqlinline.QIncrementMonthlyUsage, userID, l.MonthKey())
	var count int
	if err := row.Scan(&count); err != nil {
		l.logger.Warn().Err(err).Str("user_id", userID).Msg("usage increment failed, returning best-effort count")
		return l.CurrentUsage(ctx, userID) + 1
	}
	return count
}

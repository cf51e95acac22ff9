package infra

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// IsNoRows reports whether err is the pgx "no rows" sentinel. Callers use it
// to distinguish a valid empty result from a genuine storage failure.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Package history persists past enhancements so users can revisit them. The
// core pipeline never reads it; the caller-facing layer appends after a
// successful response.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// DefaultPageSize caps how many items a listing returns, newest first.
const DefaultPageSize = 20

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Append stores one enhancement record and returns it with its assigned id.
func (s *Store) Append(ctx context.Context, userID, original, enhanced string, improvements []string) (*domain.HistoryItem, error) {
	if improvements == nil {
		improvements = []string{}
	}
	rawImprovements, err := json.Marshal(improvements)
	if err != nil {
		return nil, fmt.Errorf("encode improvements: %w", err)
	}
	row := s.sql.QueryRow(ctx, sqlinline.QInsertHistoryItem, userID, original, enhanced, rawImprovements)
	return scanHistoryItem(row.Scan)
}

// List returns the user's newest records, capped at limit (DefaultPageSize
// when limit is not positive).
func (s *Store) List(ctx context.Context, userID string, limit int) ([]domain.HistoryItem, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	rows, err := s.sql.Query(ctx, sqlinline.QListHistoryItems, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	items := make([]domain.HistoryItem, 0, limit)
	for rows.Next() {
		item, err := scanHistoryItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return items, nil
}

// Delete removes one record owned by the user.
func (s *Store) Delete(ctx context.Context, userID, itemID string) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteHistoryItem, itemID, userID)
	if err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Clear removes every record owned by the user.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QClearHistory, userID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func scanHistoryItem(scan func(dest ...any) error) (*domain.HistoryItem, error) {
	var (
		item            domain.HistoryItem
		rawImprovements []byte
		createdAt       time.Time
	)
	if err := scan(&item.ID, &item.Original, &item.Enhanced, &rawImprovements, &createdAt); err != nil {
		return nil, fmt.Errorf("scan history item: %w", err)
	}
	item.CreatedAt = createdAt
	item.Improvements = []string{}
	if len(rawImprovements) > 0 {
		if err := json.Unmarshal(rawImprovements, &item.Improvements); err != nil {
			return nil, fmt.Errorf("decode improvements: %w", err)
		}
	}
	return &item, nil
}

// Package identity reads and mutates the user profile record that the core
// pipeline consumes: the plan column and the unlimited-override properties.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

type profileProperties struct {
	UnlimitedEnhancements bool   `json:"unlimited_enhancements"`
	AccessGrantedBy       string `json:"access_granted_by"`
	AccessGrantedAt       string `json:"access_granted_at"`
	AccessDescription     string `json:"access_description"`
}

// UnlimitedOverride resolves the per-user unlimited flag from the profile
// properties. A missing user reads as "not unlimited".
func (s *Store) UnlimitedOverride(ctx context.Context, userID string) (domain.UnlimitedOverride, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectUserProperties, userID)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if infra.IsNoRows(err) {
			return domain.UnlimitedOverride{}, nil
		}
		return domain.UnlimitedOverride{}, fmt.Errorf("read user properties: %w", err)
	}
	var props profileProperties
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &props); err != nil {
			return domain.UnlimitedOverride{}, fmt.Errorf("decode user properties: %w", err)
		}
	}
	override := domain.UnlimitedOverride{
		Unlimited:   props.UnlimitedEnhancements,
		Description: props.AccessDescription,
		GrantedBy:   props.AccessGrantedBy,
	}
	if props.AccessGrantedAt != "" {
		if ts, err := time.Parse(time.RFC3339, props.AccessGrantedAt); err == nil {
			override.GrantedAt = ts
		}
	}
	return override, nil
}

// GrantUnlimited marks the user as unlimited, recording who granted it and why.
func (s *Store) GrantUnlimited(ctx context.Context, userID, grantedBy, description string) error {
	override, err := s.UnlimitedOverride(ctx, userID)
	if err != nil {
		return err
	}
	if override.Unlimited {
		return domain.ErrAlreadyGranted
	}
	tag, err := s.sql.Exec(ctx, sqlinline.QGrantUnlimited, userID, grantedBy, description)
	if err != nil {
		return fmt.Errorf("grant unlimited: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RevokeUnlimited removes the override and its grant metadata.
func (s *Store) RevokeUnlimited(ctx context.Context, userID string) error {
	tag, err := s.sql.Exec(ctx, sqlinline.QRevokeUnlimited, userID)
	if err != nil {
		return fmt.Errorf("revoke unlimited: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetPlan assigns a plan tier to the user.
func (s *Store) SetPlan(ctx context.Context, userID, plan string) error {
	row := s.sql.QueryRow(ctx, sqlinline.QSetUserPlan, userID, strings.ToLower(strings.TrimSpace(plan)))
	var id string
	if err := row.Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}

// IDByEmail resolves a user id from an email address.
func (s *Store) IDByEmail(ctx context.Context, email string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectUserIDByEmail, email)
	var id string
	if err := row.Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("lookup user by email: %w", err)
	}
	return id, nil
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/domain"
	"server/internal/sqlinline"
)

type fakeRow struct {
	raw []byte
	str string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *[]byte:
		*d = r.raw
	case *string:
		*d = r.str
	default:
		return fmt.Errorf("unexpected dest type %T", dest[0])
	}
	return nil
}

type profileSQL struct {
	properties []byte
	queryErr   error
	execTag    pgconn.CommandTag
	execErr    error
	execCalls  int
}

func (s *profileSQL) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	switch query {
	case sqlinline.QSelectUserProperties:
		if s.queryErr != nil {
			return fakeRow{err: s.queryErr}
		}
		return fakeRow{raw: s.properties}
	}
	return fakeRow{err: fmt.Errorf("unexpected query: %s", query)}
}

func (s *profileSQL) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	s.execCalls++
	return s.execTag, s.execErr
}

func (s *profileSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func TestUnlimitedOverrideParsesGrantMetadata(t *testing.T) {
	sql := &profileSQL{properties: []byte(`{
		"unlimited_enhancements": true,
		"access_granted_by": "EARLYNERD",
		"access_granted_at": "2024-03-09T12:00:00Z",
		"access_description": "Early Unlimited Access"
	}`)}
	store := NewStore(sql)

	override, err := store.UnlimitedOverride(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("UnlimitedOverride returned error: %v", err)
	}
	if !override.Unlimited {
		t.Fatal("expected override to be unlimited")
	}
	if override.GrantedBy != "EARLYNERD" || override.Description != "Early Unlimited Access" {
		t.Fatalf("unexpected override: %#v", override)
	}
	if override.GrantedAt.IsZero() {
		t.Fatal("expected granted_at timestamp to parse")
	}
}

func TestUnlimitedOverrideDefaultsForEmptyProperties(t *testing.T) {
	store := NewStore(&profileSQL{properties: []byte(`{}`)})
	override, err := store.UnlimitedOverride(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("UnlimitedOverride returned error: %v", err)
	}
	if override.Unlimited {
		t.Fatal("expected override to be off by default")
	}
}

func TestUnlimitedOverrideMissingUserIsNotAnError(t *testing.T) {
	store := NewStore(&profileSQL{queryErr: pgx.ErrNoRows})
	override, err := store.UnlimitedOverride(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("UnlimitedOverride returned error: %v", err)
	}
	if override.Unlimited {
		t.Fatal("expected missing user to read as not unlimited")
	}
}

func TestUnlimitedOverridePropagatesStorageError(t *testing.T) {
	store := NewStore(&profileSQL{queryErr: errors.New("storage down")})
	if _, err := store.UnlimitedOverride(context.Background(), "user-1"); err == nil {
		t.Fatal("expected storage error to propagate")
	}
}

func TestGrantUnlimitedRejectsDoubleGrant(t *testing.T) {
	sql := &profileSQL{properties: []byte(`{"unlimited_enhancements": true}`)}
	store := NewStore(sql)

	err := store.GrantUnlimited(context.Background(), "user-1", "EARLYNERD", "Early Unlimited Access")
	if !errors.Is(err, domain.ErrAlreadyGranted) {
		t.Fatalf("GrantUnlimited error = %v, want ErrAlreadyGranted", err)
	}
	if sql.execCalls != 0 {
		t.Fatalf("exec calls = %d, want 0 when already granted", sql.execCalls)
	}
}

func TestGrantUnlimitedWritesOverride(t *testing.T) {
	sql := &profileSQL{properties: []byte(`{}`), execTag: pgconn.NewCommandTag("UPDATE 1")}
	store := NewStore(sql)

	if err := store.GrantUnlimited(context.Background(), "user-1", "EARLYNERD", "Early Unlimited Access"); err != nil {
		t.Fatalf("GrantUnlimited returned error: %v", err)
	}
	if sql.execCalls != 1 {
		t.Fatalf("exec calls = %d, want 1", sql.execCalls)
	}
}

func TestGrantUnlimitedUnknownUser(t *testing.T) {
	sql := &profileSQL{properties: []byte(`{}`), execTag: pgconn.NewCommandTag("UPDATE 0")}
	store := NewStore(sql)

	err := store.GrantUnlimited(context.Background(), "user-1", "EARLYNERD", "Early Unlimited Access")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GrantUnlimited error = %v, want ErrNotFound", err)
	}
}

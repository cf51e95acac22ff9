package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"server/internal/history"
	"server/internal/identity"
	"server/internal/middleware"
	"server/internal/providers/prompt"
	"server/internal/sqlinline"
	"server/internal/usage"
)

type scanRow struct {
	vals []any
	err  error
}

func (r scanRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: want %d dest, got %d", len(r.vals), len(dest))
	}
	for i, v := range r.vals {
		switch d := dest[i].(type) {
		case *int:
			*d = v.(int)
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = []byte(v.(string))
		default:
			return fmt.Errorf("scan: unsupported dest type %T", dest[i])
		}
	}
	return nil
}

// memSQL backs the usage ledger, the profile store and the event sink with
// in-memory maps.
type memSQL struct {
	counts     map[string]int
	props      map[string]string
	events     int
	usageReads int
	increments int
}

func newMemSQL() *memSQL {
	return &memSQL{counts: map[string]int{}, props: map[string]string{}}
}

func (s *memSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	switch query {
	case sqlinline.QInsertUsageEvent:
		s.events++
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case sqlinline.QGrantUnlimited:
		userID := args[0].(string)
		if _, ok := s.props[userID]; !ok {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		s.props[userID] = `{"unlimited_enhancements": true, "access_granted_by": "` + args[1].(string) + `"}`
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected exec: %s", query)
}

func (s *memSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (s *memSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	switch query {
	case sqlinline.QSelectMonthlyUsage:
		s.usageReads++
		key := fmt.Sprintf("%v|%v", args[0], args[1])
		count, ok := s.counts[key]
		if !ok {
			return scanRow{err: pgx.ErrNoRows}
		}
		return scanRow{vals: []any{count}}
	case sqlinline.QIncrementMonthlyUsage:
		s.increments++
		key := fmt.Sprintf("%v|%v", args[0], args[1])
		s.counts[key]++
		return scanRow{vals: []any{s.counts[key]}}
	case sqlinline.QSelectUserProperties:
		props, ok := s.props[args[0].(string)]
		if !ok {
			return scanRow{err: pgx.ErrNoRows}
		}
		return scanRow{vals: []any{props}}
	}
	return scanRow{err: fmt.Errorf("unexpected query: %s", query)}
}

type fakeEnhancer struct {
	result *prompt.Result
	err    error
	calls  int
}

func (f *fakeEnhancer) Enhance(_ context.Context, _ string) (*prompt.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestApp(sql *memSQL, enhancer prompt.Enhancer) *App {
	logger := zerolog.Nop()
	profiles := identity.NewStore(sql)
	ledger := usage.NewLedger(sql, logger)
	return &App{
		SQL:      sql,
		Logger:   logger,
		Enhancer: enhancer,
		Gate:     usage.NewGate(ledger, profiles, logger),
		Profiles: profiles,
		History:  history.NewStore(sql),
	}
}

func authedRequest(method, target, body, userID string, plans ...string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middleware.ContextWithUserID(req.Context(), userID)
	if len(plans) > 0 {
		ctx = middleware.ContextWithPlanClaims(ctx, plans)
	}
	return req.WithContext(ctx)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func (s *memSQL) seedUsage(userID string, count int) {
	key := fmt.Sprintf("%s|%s", userID, usage.NewLedger(s, zerolog.Nop()).MonthKey())
	s.counts[key] = count
}

func TestEnhanceRequiresAuth(t *testing.T) {
	app := newTestApp(newMemSQL(), &fakeEnhancer{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/enhance", strings.NewReader(`{"prompt":"x"}`))

	app.Enhance(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["requiresAuth"] != true {
		t.Fatalf("expected requiresAuth flag, got %v", body)
	}
}

func TestEnhanceRejectsBlankPrompt(t *testing.T) {
	sql := newMemSQL()
	enhancer := &fakeEnhancer{}
	app := newTestApp(sql, enhancer)

	rec := httptest.NewRecorder()
	app.Enhance(rec, authedRequest(http.MethodPost, "/v1/enhance", `{"prompt":"   \n\t "}`, "u1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if enhancer.calls != 0 {
		t.Fatalf("enhancer called %d times for blank prompt", enhancer.calls)
	}
	if sql.increments != 0 {
		t.Fatalf("counter moved on rejected request: %d", sql.increments)
	}
}

func TestEnhanceQuotaExceeded(t *testing.T) {
	sql := newMemSQL()
	sql.seedUsage("u1", 25)
	enhancer := &fakeEnhancer{result: &prompt.Result{EnhancedPrompt: "x"}}
	app := newTestApp(sql, enhancer)

	rec := httptest.NewRecorder()
	app.Enhance(rec, authedRequest(http.MethodPost, "/v1/enhance", `{"prompt":"hello"}`, "u1"))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if enhancer.calls != 0 {
		t.Fatalf("upstream called despite exhausted quota")
	}
	if sql.increments != 0 {
		t.Fatalf("counter moved on denied request")
	}
	body := decodeBody(t, rec)
	if body["requiresUpgrade"] != true {
		t.Fatalf("expected requiresUpgrade flag, got %v", body)
	}
	info := body["planInfo"].(map[string]any)
	if info["currentPlan"] != "free" || info["monthlyLimit"] != float64(25) || info["remainingUsage"] != float64(0) {
		t.Fatalf("unexpected planInfo: %v", info)
	}
}

func TestEnhanceSuccessIncrementsOnce(t *testing.T) {
	sql := newMemSQL()
	sql.seedUsage("u1", 24)
	enhancer := &fakeEnhancer{result: &prompt.Result{
		EnhancedPrompt: "a better prompt",
		Improvements:   []string{"added context"},
	}}
	app := newTestApp(sql, enhancer)

	rec := httptest.NewRecorder()
	app.Enhance(rec, authedRequest(http.MethodPost, "/v1/enhance", `{"prompt":"a prompt"}`, "u1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if enhancer.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", enhancer.calls)
	}
	if sql.increments != 1 {
		t.Fatalf("expected one increment, got %d", sql.increments)
	}
	body := decodeBody(t, rec)
	if body["enhancedPrompt"] != "a better prompt" {
		t.Fatalf("unexpected enhanced prompt: %v", body["enhancedPrompt"])
	}
	info := body["planInfo"].(map[string]any)
	if info["currentUsage"] != float64(25) || info["remainingUsage"] != float64(0) {
		t.Fatalf("unexpected post-increment quota: %v", info)
	}
}

func TestEnhanceProviderFailureLeavesCounter(t *testing.T) {
	sql := newMemSQL()
	sql.seedUsage("u1", 3)
	enhancer := &fakeEnhancer{err: &prompt.Error{Kind: prompt.KindUnreachable, Detail: "dial tcp: timeout"}}
	app := newTestApp(sql, enhancer)

	rec := httptest.NewRecorder()
	app.Enhance(rec, authedRequest(http.MethodPost, "/v1/enhance", `{"prompt":"a prompt"}`, "u1"))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if sql.increments != 0 {
		t.Fatalf("counter moved on failed generation")
	}
}

func TestEnhanceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind prompt.ErrorKind
		want int
	}{
		{prompt.KindConfigMissing, http.StatusInternalServerError},
		{prompt.KindUnreachable, http.StatusBadGateway},
		{prompt.KindEmptyResponse, http.StatusBadGateway},
		{prompt.KindMalformedJSON, http.StatusInternalServerError},
		{prompt.KindIncompleteResult, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		sql := newMemSQL()
		app := newTestApp(sql, &fakeEnhancer{err: &prompt.Error{Kind: tc.kind}})
		rec := httptest.NewRecorder()
		app.Enhance(rec, authedRequest(http.MethodPost, "/v1/enhance", `{"prompt":"hi"}`, "u1"))
		if rec.Code != tc.want {
			t.Fatalf("kind %s: expected %d, got %d", tc.kind, tc.want, rec.Code)
		}
	}
}

func TestEnhanceUnclassifiedErrorMapsToBadGateway(t *testing.T) {
	sql := newMemSQL()
	app := newTestApp(sql, &fakeEnhancer{err: errors.New("boom")})
	rec := httptest.NewRecorder()
	app.Enhance(rec, authedRequest(http.MethodPost, "/v1/enhance", `{"prompt":"hi"}`, "u1"))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for unclassified error, got %d", rec.Code)
	}
}

func TestEnhanceUnlimitedSkipsLedger(t *testing.T) {
	sql := newMemSQL()
	sql.props["u1"] = `{"unlimited_enhancements": true}`
	enhancer := &fakeEnhancer{result: &prompt.Result{EnhancedPrompt: "x"}}
	app := newTestApp(sql, enhancer)

	rec := httptest.NewRecorder()
	app.Enhance(rec, authedRequest(http.MethodPost, "/v1/enhance", `{"prompt":"hi"}`, "u1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sql.usageReads != 0 || sql.increments != 0 {
		t.Fatalf("unlimited request touched the ledger: reads=%d writes=%d", sql.usageReads, sql.increments)
	}
	info := decodeBody(t, rec)["planInfo"].(map[string]any)
	if info["currentPlan"] != "unlimited" || info["monthlyLimit"] != float64(-1) || info["remainingUsage"] != float64(-1) {
		t.Fatalf("unexpected unlimited planInfo: %v", info)
	}
}

func TestEnhancePlanClaimRaisesLimit(t *testing.T) {
	sql := newMemSQL()
	sql.seedUsage("u1", 30)
	enhancer := &fakeEnhancer{result: &prompt.Result{EnhancedPrompt: "x"}}
	app := newTestApp(sql, enhancer)

	rec := httptest.NewRecorder()
	app.Enhance(rec, authedRequest(http.MethodPost, "/v1/enhance", `{"prompt":"hi"}`, "u1", "pro"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected pro plan to allow usage 30, got %d", rec.Code)
	}
	info := decodeBody(t, rec)["planInfo"].(map[string]any)
	if info["currentPlan"] != "pro" || info["monthlyLimit"] != float64(2000) {
		t.Fatalf("unexpected planInfo: %v", info)
	}
}

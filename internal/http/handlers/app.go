package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/history"
	"server/internal/identity"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/providers/prompt"
	"server/internal/usage"
)

// GoogleVerifier validates an identity-provider ID token and returns its claims.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (map[string]any, error)
}

// App is the handler container. Dependencies are injected so tests can swap
// the SQL executor, the enhancer and the entitlement plumbing.
type App struct {
	SQL            infra.SQLExecutor
	Logger         zerolog.Logger
	Enhancer       prompt.Enhancer
	Gate           *usage.Gate
	Profiles       *identity.Store
	History        *history.Store
	GoogleVerifier GoogleVerifier
	JWTSecret      string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message, details string) {
	payload := map[string]any{"error": message}
	if details != "" {
		payload["details"] = details
	}
	a.json(w, code, payload)
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"server/internal/middleware"
	"server/internal/sqlinline"
)

const sessionTTL = 7 * 24 * time.Hour

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type sessionUser struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Plan   string `json:"plan"`
	Locale string `json:"locale"`
}

// AuthGoogle exchanges a Google ID token for a service session token. The
// user row is upserted on every login so name and avatar stay fresh.
func (a *App) AuthGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		a.error(w, http.StatusBadRequest, "idToken is required", "")
		return
	}

	claims, err := a.GoogleVerifier.VerifyIDToken(r.Context(), req.IDToken)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("google id token rejected")
		a.json(w, http.StatusUnauthorized, map[string]any{
			"error":        "invalid id token",
			"requiresAuth": true,
		})
		return
	}

	sub := claimString(claims, "sub")
	email := claimString(claims, "email")
	if sub == "" || email == "" {
		a.error(w, http.StatusUnauthorized, "id token missing identity claims", "")
		return
	}
	name := claimString(claims, "name")
	picture := claimString(claims, "picture")
	locale := claimString(claims, "locale")
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QUpsertGoogleUser, sub, email, name, picture, locale)
	var userID, plan string
	var properties []byte
	if err := row.Scan(&userID, &plan, &properties); err != nil {
		a.Logger.Error().Err(err).Msg("user upsert failed")
		a.error(w, http.StatusInternalServerError, "failed to sign in", "")
		return
	}

	token, err := middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:      userID,
		Plans:    planClaims(plan),
		Locale:   locale,
		Exp:      time.Now().Add(sessionTTL).Unix(),
		Issuer:   "prompt-enhancer",
		Audience: "prompt-enhancer",
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("session token signing failed")
		a.error(w, http.StatusInternalServerError, "failed to sign in", "")
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"token": token,
		"user": sessionUser{
			ID:     userID,
			Email:  email,
			Name:   name,
			Plan:   plan,
			Locale: locale,
		},
	})
}

// Me returns the authenticated user's profile row.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.json(w, http.StatusUnauthorized, map[string]any{
			"error":        "authentication required",
			"requiresAuth": true,
		})
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectUserByID, userID)
	var id, googleSub, email, locale, plan string
	var properties []byte
	var createdAt, updatedAt time.Time
	if err := row.Scan(&id, &googleSub, &email, &locale, &plan, &properties, &createdAt, &updatedAt); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("user lookup failed")
		a.error(w, http.StatusNotFound, "user not found", "")
		return
	}

	override, err := a.Profiles.UnlimitedOverride(r.Context(), userID)
	if err != nil {
		a.Logger.Warn().Err(err).Str("user_id", userID).Msg("override lookup failed")
	}

	a.json(w, http.StatusOK, map[string]any{
		"id":        id,
		"email":     email,
		"plan":      plan,
		"locale":    locale,
		"unlimited": override.Unlimited,
		"createdAt": createdAt,
	})
}

// planClaims converts a stored plan into token claims. Free carries no claim
// so the entitlement layer falls back to the free tier.
func planClaims(plan string) []string {
	plan = strings.ToLower(strings.TrimSpace(plan))
	if plan == "" || plan == "free" {
		return nil
	}
	return []string{plan}
}

func claimString(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

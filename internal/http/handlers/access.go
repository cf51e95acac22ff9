package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"server/internal/domain"
)

// accessCodes maps redeemable codes to the grant description stored on the
// profile. Codes are matched case-insensitively.
var accessCodes = map[string]string{
	"EARLYNERD": "Early supporter unlimited access",
}

type redeemRequest struct {
	Code string `json:"code"`
}

// AccessRedeem exchanges a promo code for the unlimited override. Redeeming
// is one-shot per user: a second attempt reports the existing grant.
func (a *App) AccessRedeem(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.json(w, http.StatusUnauthorized, map[string]any{
			"error":        "authentication required",
			"requiresAuth": true,
		})
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		a.error(w, http.StatusBadRequest, "code is required", "")
		return
	}

	description, ok := accessCodes[code]
	if !ok {
		a.error(w, http.StatusNotFound, "invalid access code", "")
		return
	}

	err := a.Profiles.GrantUnlimited(r.Context(), userID, "access_code:"+code, description)
	switch {
	case errors.Is(err, domain.ErrAlreadyGranted):
		a.json(w, http.StatusBadRequest, map[string]any{
			"error":            "unlimited access already active",
			"alreadyUnlimited": true,
		})
		return
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "user not found", "")
		return
	case err != nil:
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("access code grant failed")
		a.error(w, http.StatusInternalServerError, "failed to redeem access code", "")
		return
	}

	a.Logger.Info().Str("user_id", userID).Str("code", code).Msg("access code redeemed")
	a.json(w, http.StatusOK, map[string]any{
		"unlimited":   true,
		"description": description,
	})
}

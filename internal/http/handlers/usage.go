package handlers

import (
	"net/http"

	"server/internal/middleware"
	"server/internal/plans"
)

// Usage reports the caller's current-month quota snapshot without consuming
// anything.
func (a *App) Usage(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.json(w, http.StatusUnauthorized, map[string]any{
			"error":        "authentication required",
			"requiresAuth": true,
		})
		return
	}

	plan := plans.Resolve(middleware.PlanChecker(r.Context()))
	decision := a.Gate.Check(r.Context(), userID, string(plan))
	a.json(w, http.StatusOK, snapshotPlanInfo(decision))
}

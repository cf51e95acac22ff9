package handlers

import (
	"net/http"

	"server/internal/plans"
)

// Plans returns the public pricing catalog. No auth required.
func (a *App) Plans(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"plans": plans.AllPlans()})
}

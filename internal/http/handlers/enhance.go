package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"server/internal/middleware"
	"server/internal/plans"
	"server/internal/providers/prompt"
	"server/internal/usage"
)

type enhanceRequest struct {
	Prompt string `json:"prompt"`
}

type planInfo struct {
	CurrentPlan    string `json:"currentPlan"`
	MonthlyLimit   int    `json:"monthlyLimit"`
	RemainingUsage int    `json:"remainingUsage"`
	CurrentUsage   int    `json:"currentUsage"`
}

type enhanceResponse struct {
	EnhancedPrompt string   `json:"enhancedPrompt"`
	Improvements   []string `json:"improvements"`
	PlanInfo       planInfo `json:"planInfo"`
}

// Enhance runs the full gated pipeline: entitlement check, upstream
// generation, then usage accounting. The counter moves only after the
// provider returned a usable result, so failed generations are free.
func (a *App) Enhance(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
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
	if !decision.Allowed {
		a.recordEvent(r, userID, "enhance", false, started, map[string]any{"reason": "quota_exceeded", "plan": decision.Plan})
		a.json(w, http.StatusTooManyRequests, map[string]any{
			"error":           "monthly usage limit reached",
			"requiresUpgrade": true,
			"planInfo":        snapshotPlanInfo(decision),
		})
		return
	}

	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	rawPrompt := strings.TrimSpace(req.Prompt)
	if rawPrompt == "" {
		a.error(w, http.StatusBadRequest, "prompt is required", "")
		return
	}

	result, err := a.Enhancer.Enhance(r.Context(), rawPrompt)
	if err != nil {
		status := http.StatusBadGateway
		detail := ""
		if perr, ok := prompt.AsError(err); ok {
			status = perr.StatusHint()
			detail = perr.Detail
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("prompt enhancement failed")
		a.recordEvent(r, userID, "enhance", false, started, map[string]any{"reason": "provider_failure"})
		a.error(w, status, "failed to enhance prompt", detail)
		return
	}

	newCount := a.Gate.Record(r.Context(), userID, decision)
	a.recordEvent(r, userID, "enhance", true, started, map[string]any{
		"plan":     decision.Plan,
		"provider": result.Provider,
	})

	a.json(w, http.StatusOK, enhanceResponse{
		EnhancedPrompt: result.EnhancedPrompt,
		Improvements:   result.Improvements,
		PlanInfo:       planInfoAfter(decision, newCount),
	})
}

// snapshotPlanInfo reports the quota figures as seen by the gate, without
// consuming anything.
func snapshotPlanInfo(d usage.Decision) planInfo {
	return planInfo{
		CurrentPlan:    d.Plan,
		MonthlyLimit:   d.Limit,
		RemainingUsage: d.Remaining,
		CurrentUsage:   d.CurrentUsage,
	}
}

// planInfoAfter folds the post-increment count back into the quota figures.
// Unlimited decisions stay at their sentinel values.
func planInfoAfter(d usage.Decision, newCount int) planInfo {
	if d.Unlimited() {
		return snapshotPlanInfo(d)
	}
	remaining := d.Limit - newCount
	if remaining < 0 {
		remaining = 0
	}
	return planInfo{
		CurrentPlan:    d.Plan,
		MonthlyLimit:   d.Limit,
		RemainingUsage: remaining,
		CurrentUsage:   newCount,
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/history"
)

type appendHistoryRequest struct {
	Original     string   `json:"original"`
	Enhanced     string   `json:"enhanced"`
	Improvements []string `json:"improvements"`
}

// HistoryList returns the caller's most recent enhancements, newest first.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	limit := history.DefaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			a.error(w, http.StatusBadRequest, "invalid limit", "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	items, err := a.History.List(r.Context(), userID, limit)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("history list failed")
		a.error(w, http.StatusInternalServerError, "failed to load history", "")
		return
	}
	if items == nil {
		items = []domain.HistoryItem{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// HistoryAppend stores one finished enhancement for later recall.
func (a *App) HistoryAppend(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	var req appendHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Original) == "" || strings.TrimSpace(req.Enhanced) == "" {
		a.error(w, http.StatusBadRequest, "original and enhanced are required", "")
		return
	}

	item, err := a.History.Append(r.Context(), userID, req.Original, req.Enhanced, req.Improvements)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("history append failed")
		a.error(w, http.StatusInternalServerError, "failed to save history item", "")
		return
	}
	a.json(w, http.StatusCreated, item)
}

// HistoryDelete removes one history item owned by the caller.
func (a *App) HistoryDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	itemID := chi.URLParam(r, "id")
	if itemID == "" {
		a.error(w, http.StatusBadRequest, "item id is required", "")
		return
	}

	if err := a.History.Delete(r.Context(), userID, itemID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "history item not found", "")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("history delete failed")
		a.error(w, http.StatusInternalServerError, "failed to delete history item", "")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"deleted": true})
}

// HistoryClear wipes the caller's entire history.
func (a *App) HistoryClear(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	if err := a.History.Clear(r.Context(), userID); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("history clear failed")
		a.error(w, http.StatusInternalServerError, "failed to clear history", "")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"cleared": true})
}

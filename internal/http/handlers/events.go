package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"server/internal/middleware"
	"server/internal/sqlinline"
)

// recordEvent appends one row to the usage audit trail. Failures are logged
// and swallowed: analytics must never affect the request outcome.
func (a *App) recordEvent(r *http.Request, userID, eventType string, success bool, started time.Time, props map[string]any) {
	if a.SQL == nil {
		return
	}
	if props == nil {
		props = map[string]any{}
	}
	if locale := middleware.LocaleFromContext(r.Context()); locale != "" {
		props["locale"] = locale
	}
	if country := middleware.CountryFromContext(r.Context()); country != "" {
		props["country"] = country
	}
	payload, err := json.Marshal(props)
	if err != nil {
		payload = []byte("{}")
	}
	latency := time.Since(started).Milliseconds()
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QInsertUsageEvent, userID, eventType, success, latency, string(payload)); err != nil {
		a.Logger.Warn().Err(err).Str("event_type", eventType).Msg("usage event insert failed")
	}
}

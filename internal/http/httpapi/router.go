package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
)

// NewRouter assembles the HTTP surface. Everything under the authenticated
// group requires a valid session token; the plans catalog, health check and
// sign-in stay public.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger, geo middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSOrigins),
		middleware.I18N("en", geo),
	)
	if cfg.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/plans", app.Plans)
	r.Post("/v1/auth/google", app.AuthGoogle)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))

		r.Get("/v1/me", app.Me)
		r.Post("/v1/enhance", app.Enhance)
		r.Get("/v1/usage", app.Usage)
		r.Post("/v1/access/redeem", app.AccessRedeem)

		r.Route("/v1/history", func(r chi.Router) {
			r.Get("/", app.HistoryList)
			r.Post("/", app.HistoryAppend)
			r.Delete("/", app.HistoryClear)
			r.Delete("/{id}", app.HistoryDelete)
		})
	})

	return r
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options carries the request pipeline settings.
type Options struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.RateLimit(opts.RateLimitPerMin, time.Minute),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Method(http.MethodGet, "/metrics", handlers.Metrics())
	r.Get("/v1/donations/recent", app.DonationsRecent)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Get("/v1/me", app.Me)
		r.Post("/v1/donations", app.DonationsCreate)
		r.Get("/v1/donations/mine", app.DonationsMine)
		r.Get("/v1/donations/{id}", app.DonationsGet)

		r.Route("/v1/intake", func(r chi.Router) {
			r.Post("/", app.IntakeStart)
			r.Get("/{id}", app.IntakeView)
			r.Delete("/{id}", app.IntakeDiscard)
			r.Patch("/{id}/fields", app.IntakeFields)
			r.Post("/{id}/next", app.IntakeNext)
			r.Post("/{id}/back", app.IntakeBack)
			r.Post("/{id}/submit", app.IntakeSubmit)
			r.Post("/{id}/qr/close", app.IntakeCloseQR)
			r.Get("/{id}/qr.png", app.IntakeQRImage)
		})

		// Staff only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)
			r.Get("/v1/donations", app.DonationsList)
			r.Get("/v1/donations/export.xlsx", app.DonationsExport)
			r.Patch("/v1/donations/{id}/status", app.DonationsSetStatus)
			r.Get("/v1/dashboard", app.Dashboard)
		})
	})

	return r
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"devevents/internal/delivery/http/controllers"
	"devevents/internal/delivery/http/middleware"
	"devevents/internal/domain"
)

// RouterConfig holds what NewRouter needs besides the controllers.
type RouterConfig struct {
	Logger         *slog.Logger
	Verifier       domain.TokenVerifier // nil leaves organizer routes open
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(events *controllers.EventController,
	bookings *controllers.BookingController,
	health *controllers.HealthController,
	cfg RouterConfig,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)

	// Events
	mux.HandleFunc("GET /events", events.ListEvents)
	mux.HandleFunc("GET /events/{slug}", events.GetEvent)
	mux.HandleFunc("GET /events/{slug}/similar", events.ListSimilarEvents)
	mux.HandleFunc("GET /events/{slug}/bookings/count", events.CountBookings)
	mux.HandleFunc("POST /events", requireAuth(events.CreateEvent))
	mux.HandleFunc("PATCH /events/{slug}", requireAuth(events.UpdateEvent))

	// Bookings
	mux.HandleFunc("POST /bookings", bookings.CreateBooking)

	// Operations
	mux.HandleFunc("GET /healthz", health.Healthz)
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps routes in the middleware chain: recovery, logging, then CORS.
func NewHandler(routes http.Handler, cfg RouterConfig) http.Handler {
	h := middleware.CORS(cfg.AllowedOrigins, routes)
	h = middleware.LoggingMiddleware(cfg.Logger, h)
	return middleware.Recovery(cfg.Logger, h)
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fjacquet/receipt-ledger/internal/journal"
	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/metrics"
)

// RequestTimeout bounds one request, including AI calls.
const RequestTimeout = 60 * time.Second

// NewRouter builds the HTTP routes.
func NewRouter(service EntryService, repo journal.Repository, logger logging.Logger) http.Handler {
	entries := NewEntriesHandler(service, repo, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(metrics.Middleware)

	r.Route("/entries", func(r chi.Router) {
		r.Post("/", entries.Create)
		r.Post("/command", entries.CreateFromCommand)
		r.Post("/receipt", entries.CreateFromReceipt)
		r.Post("/parse", entries.Parse)
		r.Get("/rows", entries.ListRows)
		r.Get("/{id}", entries.Get)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

// NewServer wraps the router in an http.Server listening on addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"capacitor/internal/capacitor/handler"
	"capacitor/internal/platform/metrics"
	"capacitor/pkg/platform/middleware/admin"
	request "capacitor/pkg/platform/middleware/request"
)

// Options configures the control-plane router.
type Options struct {
	AdminToken    string
	JWTSigningKey string
	Gatherer      prometheus.Gatherer
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// NewRouter wires health, metrics and the admin-guarded allowlist routes.
func NewRouter(h *handler.Handler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(opts.Logger))
	r.Use(request.Logger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	r.Get("/healthz", handleHealthz)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		r.Use(admin.RequireAdmin(opts.AdminToken, []byte(opts.JWTSigningKey), opts.Logger))
		h.Register(r)
	})
	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

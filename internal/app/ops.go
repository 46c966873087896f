package app

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/notes-backend/internal/pkg/log"
)

// Pinger — зависимость, доступность которой входит в readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readiness — флаг готовности и проверки зависимостей для /healthz.
type Readiness struct {
	ready  atomic.Bool
	checks map[string]Pinger
}

// NewReadiness создаёт Readiness в состоянии "не готов".
func NewReadiness(checks map[string]Pinger) *Readiness {
	return &Readiness{checks: checks}
}

// Set переключает флаг готовности.
func (r *Readiness) Set(ready bool) {
	r.ready.Store(ready)
}

// Check возвращает имя первой недоступной зависимости.
func (r *Readiness) Check(ctx context.Context) (string, error) {
	for name, p := range r.checks {
		if p == nil {
			continue
		}

		if err := p.Ping(ctx); err != nil {
			return name, err
		}
	}

	return "", nil
}

// OpsHandler — служебные маршруты: /livez, /healthz и /metrics.
func OpsHandler(r *Readiness, g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if !r.ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if name, err := r.Check(ctx); err != nil {
			log.From(ctx).Warn("readiness_check_failed",
				slog.String("dependency", name),
				slog.String("err", err.Error()),
			)
			http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	return mux
}

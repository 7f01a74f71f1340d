// Package metrics exposes store load outcomes and refresh activity to
// Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Recorder owns a private registry so tests and multiple dashboards in one
// process never collide on the default one.
type Recorder struct {
	registry *prometheus.Registry
	loads    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	triggers prometheus.Counter
}

// New registers the dashboard collectors plus the Go runtime collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crmdash_loads_total",
			Help: "Finished resource loads by outcome.",
		}, []string{"resource", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crmdash_load_duration_seconds",
			Help:    "Time spent loading a resource.",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource"}),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crmdash_refresh_triggers_total",
			Help: "Auto refresh ticks that triggered a reload.",
		}),
	}
	r.registry.MustRegister(
		r.loads,
		r.duration,
		r.triggers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveLoad records one finished load.
func (r *Recorder) ObserveLoad(resource string, elapsed time.Duration, err error) {
	if resource == "" {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	r.loads.WithLabelValues(resource, result).Inc()
	r.duration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// RefreshTriggered counts one auto refresh tick.
func (r *Recorder) RefreshTriggered() {
	r.triggers.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

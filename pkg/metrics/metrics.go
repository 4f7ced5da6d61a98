// Package metrics exports runner progress as Prometheus metrics.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/mumoshu/fmharness/pkg/runner"
)

// Observer counts runs and steps. It implements runner.Observer.
type Observer struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	steps         *prometheus.CounterVec
	stepDurations prometheus.Histogram
}

var _ runner.Observer = (*Observer)(nil)

func NewObserver() *Observer {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Observer{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fmharness_runs_total",
			Help: "Step runs that reached a terminal state, by state.",
		}, []string{"state"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fmharness_steps_total",
			Help: "Steps that finished, by result.",
		}, []string{"result"}),
		stepDurations: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fmharness_step_duration_seconds",
			Help:    "Time from entering a step to its advance.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

func (o *Observer) StepStarted(string, int) {}

func (o *Observer) StepFinished(_ string, _ int, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.steps.WithLabelValues(result).Inc()
	o.stepDurations.Observe(elapsed.Seconds())
}

func (o *Observer) RunFinished(_ string, state runner.State, _ time.Duration) {
	o.runs.WithLabelValues(state.String()).Inc()
}

func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves /metrics and /healthz.
func (o *Observer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{}))
	return mux
}

// Serve listens on addr until ctx is done. It returns the bound address
// right away and reports serve errors to the log.
func (o *Observer) Serve(ctx context.Context, addr string, logger *log.Entry) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "listening on %s", addr)
	}

	srv := &http.Server{Handler: o.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	go func() {
		logger.WithFields(log.Fields{"addr": ln.Addr().String()}).Info("serving metrics")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.WithFields(log.Fields{"addr": ln.Addr().String()}).Errorf("metrics server error: %v", err)
		}
	}()

	return ln.Addr().String(), nil
}

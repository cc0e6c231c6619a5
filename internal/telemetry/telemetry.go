// Package telemetry exposes report results as Prometheus gauges.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dorametrics"

// Recorder holds the gauges updated after every report run.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	uptime       *prometheus.GaugeVec
	availability *prometheus.GaugeVec
	longest      *prometheus.GaugeVec
	frequency    prometheus.Gauge
	leadTime     prometheus.Gauge
	failureRate  prometheus.Gauge
	runs         *prometheus.CounterVec
}

// NewRecorder registers all gauges on registry, or on a fresh registry when nil.
func NewRecorder(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	envLabels := []string{"application", "environment"}
	r := &Recorder{
		registry: registry,
		uptime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_percentage",
			Help:      "Share of healthy samples in the last reported day.",
		}, envLabels),
		availability: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "availability_percentage",
			Help:      "Share of healthy or degraded samples in the last reported day.",
		}, envLabels),
		longest: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "longest_outage_minutes",
			Help:      "Longest continuous unhealthy run in the last reported day.",
		}, envLabels),
		frequency: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deployment_frequency_per_day",
			Help:      "Successful deployments per day in the last delivery window.",
		}),
		leadTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lead_time_minutes",
			Help:      "Average lead time for changes in the last delivery window.",
		}),
		failureRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "change_failure_rate",
			Help:      "Percentage of failed builds in the last delivery window.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_runs_total",
			Help:      "Report runs by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	registry.MustRegister(r.uptime, r.availability, r.longest, r.frequency, r.leadTime, r.failureRate, r.runs)
	return r
}

// ObserveAvailability sets the per-environment gauges from a report.
func (r *Recorder) ObserveAvailability(report schema.AvailabilityReport) {
	if r == nil {
		return
	}
	labels := prometheus.Labels{"application": report.ApplicationName, "environment": report.EnvironmentName}
	r.uptime.With(labels).Set(report.Metrics.UptimePercentage)
	r.availability.With(labels).Set(report.Metrics.AvailabilityPercentage)
	r.longest.With(labels).Set(report.Metrics.LongestContinuousOutageMinutes)
}

// ObserveDelivery sets the delivery gauges from a report.
func (r *Recorder) ObserveDelivery(report schema.DeliveryReport) {
	if r == nil {
		return
	}
	r.frequency.Set(report.DeploymentFrequency)
	r.leadTime.Set(report.LeadTimeMinutes)
	r.failureRate.Set(report.ChangeFailureRate)
}

// CountRun records the outcome of one report run.
func (r *Recorder) CountRun(kind schema.ReportKind, err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.runs.WithLabelValues(string(kind), outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		contract.Logger().Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinit_ticks_total",
		Help: "Total poll ticks",
	})
	TickErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinit_tick_errors_total",
		Help: "Poll ticks with at least one failed publish stage or cut short by cancellation",
	})
	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coinit_tick_duration_seconds",
		Help:    "Poll tick duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	PostsFound = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinit_posts_found_total",
		Help: "Image posts returned by the feed as new",
	})
	PostsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinit_posts_processed_total",
		Help: "Posts forwarded to the publish stages",
	})
	Publishes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coinit_publishes_total",
		Help: "Publish attempts by stage and result",
	}, []string{"stage", "result"})
	Watermark = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coinit_watermark_seconds",
		Help: "Current feed watermark as unix seconds",
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coinit_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coinit_command_runs_total",
		Help: "CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coinit_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(Ticks, TickErrors, TickDuration, PostsFound, PostsProcessed,
		Publishes, Watermark, APIRetries, CommandRuns, CommandErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveTickDuration records a tick duration
func ObserveTickDuration(start time.Time) {
	TickDuration.Observe(time.Since(start).Seconds())
}

// IncPublish counts a publish attempt; result is "ok", "error" or "skipped".
func IncPublish(stage, result string) { Publishes.WithLabelValues(stage, result).Inc() }

// SetWatermark exports the feed watermark.
func SetWatermark(t time.Time) { Watermark.Set(float64(t.Unix())) }

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }

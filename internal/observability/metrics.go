// Package observability holds the planner's process metrics. Metrics are off
// unless METRICS_ENABLED is set; Current then returns nil and every recording
// method is a no-op.
package observability

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

type Metrics struct {
	plannerOps       *CounterVec
	plannerLatency   *HistogramVec
	overridesDropped *Counter
	superseded       *Counter
	saves            *CounterVec
	saveQueueDepth   *Gauge
	schemaFetches    *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Metrics enabled")
		}
	})
	return instance
}

// New builds an unregistered set; Init installs the process-wide one.
func New() *Metrics {
	return &Metrics{
		plannerOps: NewCounterVec("planner_operations_total", "Planner operations by kind and outcome.", []string{"op", "status"}),
		plannerLatency: NewHistogramVec(
			"planner_operation_duration_seconds",
			"Planner operation latency in seconds by kind.",
			[]string{"op"},
			[]float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		),
		overridesDropped: NewCounter("planner_overrides_dropped_total", "Overrides dropped during recompute."),
		superseded:       NewCounter("planner_superseded_total", "Planner results discarded because a newer edit landed first."),
		saves:            NewCounterVec("planner_saves_total", "Planner state writes by outcome.", []string{"status"}),
		saveQueueDepth:   NewGauge("planner_save_queue_depth", "Students with a save waiting."),
		schemaFetches:    NewCounterVec("planner_schema_fetches_total", "Plan schema lookups by cache outcome.", []string{"result"}),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.plannerOps,
		m.plannerLatency,
		m.overridesDropped,
		m.superseded,
		m.saves,
		m.saveQueueDepth,
		m.schemaFetches,
	}
	for _, x := range writers {
		if err := x.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// ObservePlannerOp records one planner mutation. status is "ok", "error" or
// "superseded".
func (m *Metrics) ObservePlannerOp(op string, dur time.Duration, status string) {
	if m == nil {
		return
	}
	m.plannerOps.Inc(op, status)
	m.plannerLatency.Observe(dur.Seconds(), op)
	if status == "superseded" {
		m.superseded.Inc()
	}
}

func (m *Metrics) IncOverrideDropped() {
	if m == nil {
		return
	}
	m.overridesDropped.Inc()
}

func (m *Metrics) IncSave(status string) {
	if m == nil {
		return
	}
	m.saves.Inc(status)
}

func (m *Metrics) SetSaveQueueDepth(n int) {
	if m == nil {
		return
	}
	m.saveQueueDepth.Set(float64(n))
}

func (m *Metrics) IncSchemaFetch(result string) {
	if m == nil {
		return
	}
	m.schemaFetches.Inc(result)
}

// PlannerOps returns the count for one op/status pair.
func (m *Metrics) PlannerOps(op, status string) float64 {
	if m == nil {
		return 0
	}
	return m.plannerOps.Value(op, status)
}

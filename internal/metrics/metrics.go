package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
)

type Registry struct {
	reg *prometheus.Registry

	Loads          *prometheus.CounterVec
	LoadLatencySec prometheus.Histogram
	Edits          prometheus.Counter
	Actions        *prometheus.CounterVec
	DatasetRecords prometheus.Gauge
	OverAllocated  prometheus.Gauge
	ExportsWritten *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "allocgrid_loads_total"}, []string{"result"})
	loadLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "allocgrid_load_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	edits := prometheus.NewCounter(prometheus.CounterOpts{Name: "allocgrid_edits_total"})
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "allocgrid_actions_total"}, []string{"action", "outcome"})
	records := prometheus.NewGauge(prometheus.GaugeOpts{Name: "allocgrid_dataset_records"})
	over := prometheus.NewGauge(prometheus.GaugeOpts{Name: "allocgrid_over_allocated_rows"})
	exports := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "allocgrid_exports_total"}, []string{"target"})

	r.MustRegister(loads, loadLatency, edits, actions, records, over, exports)
	return &Registry{
		reg:            r,
		Loads:          loads,
		LoadLatencySec: loadLatency,
		Edits:          edits,
		Actions:        actions,
		DatasetRecords: records,
		OverAllocated:  over,
		ExportsWritten: exports,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// ObserveLoad counts a dataset load and its duration.
func (r *Registry) ObserveLoad(ok bool, took time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.Loads.WithLabelValues(result).Inc()
	r.LoadLatencySec.Observe(took.Seconds())
}

func (r *Registry) ObserveEdit() { r.Edits.Inc() }

func (r *Registry) ObserveAction(action models.RunAction, outcome models.RunOutcome) {
	r.Actions.WithLabelValues(string(action), string(outcome)).Inc()
}

// SetDataset publishes the size of the held dataset and its over-allocated row count.
func (r *Registry) SetDataset(records, overAllocated int) {
	r.DatasetRecords.Set(float64(records))
	r.OverAllocated.Set(float64(overAllocated))
}

func (r *Registry) ObserveExport(target string) { r.ExportsWritten.WithLabelValues(target).Inc() }

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolveRuns counts engine runs by terminal status
	SolveRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solve_runs_total", Help: "Engine runs by status."},
		[]string{"status"},
	)
	// SolveRounds tracks accepted improvement rounds per run
	SolveRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_rounds", Help: "Accepted improvement rounds per run.", Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 200, 500}},
	)
	// SolverMoves counts applied moves by operator kind
	SolverMoves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solver_moves_total", Help: "Applied local-search moves by operator."},
		[]string{"operator"},
	)
	// SolveDuration records wall time per engine run in seconds
	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Engine run duration in seconds.", Buckets: prometheus.DefBuckets},
	)
	// UnassignedJobs records unassigned jobs at termination
	UnassignedJobs = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_unassigned_jobs", Help: "Unassigned jobs at local optimum.", Buckets: []float64{0, 1, 2, 5, 10, 20, 50}},
	)
)

// RegisterDefault registers the collectors on Registry, once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveRuns)
		Registry.MustRegister(SolveRounds)
		Registry.MustRegister(SolverMoves)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(UnassignedJobs)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

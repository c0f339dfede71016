package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/testops/uiledger/types"
)

const (
	MetricsNamespace = "uiledger"
)

var (
	Debug bool = true

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of UI test runs",
	}, []string{
		"environment",
		"run_id",
		"result",
	})

	runCasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_cases_total",
		Help:      "Total number of planned test cases per run",
	}, []string{
		"environment",
		"run_id",
	})

	runCasesPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_cases_passed",
		Help:      "Number of passed test cases per run",
	}, []string{
		"environment",
		"run_id",
	})

	runCasesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_cases_failed",
		Help:      "Number of failed test cases per run",
	}, []string{
		"environment",
		"run_id",
	})

	runCasesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_cases_skipped",
		Help:      "Number of skipped test cases per run",
	}, []string{
		"environment",
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall clock duration of UI test runs",
	}, []string{
		"environment",
		"run_id",
	})
)

// RecordError counts an internal error by label.
func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordRun emits the aggregate metrics for one completed run.
func RecordRun(
	environment string,
	runID string,
	result types.Outcome,
	total int,
	passed int,
	failed int,
	skipped int,
	duration time.Duration,
) {
	if Debug {
		log.Debug("metric record",
			"m", "run_results",
			"environment", environment,
			"run_id", runID,
			"result", result,
			"total", total,
			"passed", passed,
			"failed", failed,
			"skipped", skipped,
			"duration", duration)
	}
	runResults.WithLabelValues(environment, runID, string(result)).Set(1)
	runCasesTotal.WithLabelValues(environment, runID).Add(float64(total))
	runCasesPassed.WithLabelValues(environment, runID).Add(float64(passed))
	runCasesFailed.WithLabelValues(environment, runID).Add(float64(failed))
	runCasesSkipped.WithLabelValues(environment, runID).Add(float64(skipped))
	runDuration.WithLabelValues(environment, runID).Set(duration.Seconds())
}

package uiledger

import (
	"github.com/testops/uiledger/metrics"
	"github.com/testops/uiledger/runner"
)

// MetricsReporter is responsible for reporting metrics from run results.
type MetricsReporter interface {
	ReportResults(environment string, result *runner.RunResult)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults reports the run results to metrics systems.
func (r *DefaultMetricsReporter) ReportResults(environment string, result *runner.RunResult) {
	metrics.RecordRun(
		environment,
		result.RunID,
		result.Status,
		result.Stats.Total,
		result.Stats.Success,
		result.Stats.Fail,
		result.Stats.Skip,
		result.Duration,
	)
}

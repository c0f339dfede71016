// Package runner executes collected UI test cases and drives the run
// progress ledger through its lifecycle hooks.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/testops/uiledger/ledger"
	"github.com/testops/uiledger/types"
)

// ResultStats tracks aggregate counts for one run.
type ResultStats struct {
	Total     int
	Success   int
	Fail      int
	Skip      int
	StartTime time.Time
	EndTime   time.Time
}

// RunResult captures the complete outcome of one run. The runner's own
// result is authoritative for the exit code; the ledger is best-effort
// instrumentation on the side.
type RunResult struct {
	RunID    string
	Status   types.Outcome
	Stats    ResultStats
	Duration time.Duration
	// FailedCases holds the display names of failed cases in execution order.
	FailedCases []string
}

// TestRunner defines the interface for running a collected suite.
type TestRunner interface {
	RunAllTests(ctx context.Context) (*RunResult, error)
}

// Config contains runner configuration.
type Config struct {
	Cases  []types.TestCase
	Driver types.Driver
	Ledger *ledger.Ledger
	Log    log.Logger
	// DefaultTimeout bounds each case; zero means no per-case deadline.
	DefaultTimeout time.Duration
}

type testRunner struct {
	cases   []types.TestCase
	driver  types.Driver
	ledger  *ledger.Ledger
	log     log.Logger
	timeout time.Duration
}

// NewTestRunner creates a runner for an already-collected suite.
func NewTestRunner(cfg Config) (TestRunner, error) {
	if cfg.Driver == nil {
		return nil, errors.New("driver is required")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	return &testRunner{
		cases:   cfg.Cases,
		driver:  cfg.Driver,
		ledger:  cfg.Ledger,
		log:     cfg.Log,
		timeout: cfg.DefaultTimeout,
	}, nil
}

// RunAllTests executes every collected case in order, recording one ledger
// outcome per case. The ledger is reset and initialized up front and
// finalized on the way out, including on context cancellation.
func (r *testRunner) RunAllTests(ctx context.Context) (*RunResult, error) {
	runID := uuid.New().String()
	result := &RunResult{
		RunID:  runID,
		Status: types.OutcomeFail, // recalculated once all cases ran
		Stats:  ResultStats{Total: len(r.cases), StartTime: time.Now()},
	}

	r.log.Info("Starting test run", "run_id", runID, "cases", len(r.cases))
	r.ledger.Reset()
	r.ledger.Init(len(r.cases))
	defer r.ledger.Finalize()

	for _, tc := range r.cases {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("test run aborted: %w", err)
		}

		displayName := tc.DisplayName()
		r.log.Info("Running case", "case", tc.Name, "name", displayName)

		outcome, err := r.runCase(ctx, tc)
		switch outcome {
		case types.OutcomeSuccess:
			result.Stats.Success++
			r.log.Info("Case passed", "case", tc.Name)
		case types.OutcomeSkip:
			result.Stats.Skip++
			r.log.Info("Case skipped", "case", tc.Name, "reason", err)
		case types.OutcomeFail:
			result.Stats.Fail++
			result.FailedCases = append(result.FailedCases, displayName)
			r.log.Error("Case failed", "case", tc.Name, "err", err)
		}
		r.ledger.RecordOutcome(outcome, displayName)
	}

	result.Stats.EndTime = time.Now()
	result.Duration = result.Stats.EndTime.Sub(result.Stats.StartTime)
	result.Status = determineRunStatus(result.Stats)

	r.log.Info("Test run completed", "run_id", runID, "status", result.Status,
		"total", result.Stats.Total, "success", result.Stats.Success,
		"fail", result.Stats.Fail, "skip", result.Stats.Skip)
	return result, nil
}

// runCase executes one case, mapping its return into an outcome. A nil
// error is a success, a SkipError (or a manifest skip marker) is a skip,
// anything else including a panic is a failure.
func (r *testRunner) runCase(ctx context.Context, tc types.TestCase) (types.Outcome, error) {
	if tc.Skip {
		return types.OutcomeSkip, types.NewSkipError(tc.SkipReason)
	}

	caseCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		caseCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	err := safeRun(caseCtx, tc.Run, r.driver)
	if err == nil {
		return types.OutcomeSuccess, nil
	}
	var skipErr *types.SkipError
	if errors.As(err, &skipErr) {
		return types.OutcomeSkip, err
	}
	return types.OutcomeFail, err
}

// safeRun invokes the case function and converts a panic into an error so
// one broken case cannot take down the whole run.
func safeRun(ctx context.Context, fn types.CaseFunc, drv types.Driver) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("case panicked: %v", rec)
		}
	}()
	return fn(ctx, drv)
}

// determineRunStatus mirrors the counting rules of the ledger: any failure
// fails the run, an all-skip run is a skip, everything else is a success.
func determineRunStatus(stats ResultStats) types.Outcome {
	if stats.Fail > 0 {
		return types.OutcomeFail
	}
	if stats.Total > 0 && stats.Skip == stats.Total {
		return types.OutcomeSkip
	}
	return types.OutcomeSuccess
}

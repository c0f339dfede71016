// Package uiledger wires the suite registry, the run-progress ledger, the
// runner and the reporting sinks into a runnable service.
package uiledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/testops/uiledger/env"
	"github.com/testops/uiledger/exitcodes"
	"github.com/testops/uiledger/ledger"
	"github.com/testops/uiledger/notify"
	"github.com/testops/uiledger/registry"
	"github.com/testops/uiledger/reporting"
	"github.com/testops/uiledger/runner"
	"github.com/testops/uiledger/types"
)

// App runs UI test suites and keeps the run-progress ledger current.
type App struct {
	ctx         context.Context
	config      *Config
	version     string
	environment *env.Config
	registry    *registry.Registry
	ledger      *ledger.Ledger
	runner      runner.TestRunner
	notifier    notify.Notifier
	sink        *reporting.TextSummarySink
	reporter    MetricsReporter
	result      *runner.RunResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	// Guards the terminal summary so one run emits it exactly once even
	// when the run path and the shutdown path race.
	summaryMu        sync.Mutex
	summarizedRunIDs map[string]bool
}

// New assembles the application from config: environment, registry, ledger,
// runner, sinks and notifier.
func New(ctx context.Context, config *Config, version string) (*App, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("creating app",
		"manifest", config.Manifest,
		"environment", config.Environment,
		"logDir", config.LogDir,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"worker", config.Worker)

	environment, err := env.Load(config.EnvDir, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	reg, err := registry.NewRegistry(registry.Config{
		Log:          config.Log,
		ManifestFile: config.Manifest,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}
	for name, fn := range config.CaseFuncs {
		if err := reg.RegisterFunc(name, fn); err != nil {
			return nil, fmt.Errorf("failed to register case %q: %w", name, err)
		}
	}

	led := ledger.New(ledger.Config{
		Dir:         config.LogDir,
		Coordinator: !config.Worker,
		Log:         config.Log,
	})

	driver := config.Driver
	if driver == nil {
		driver = types.NewNoopDriver()
	}

	testRunner, err := runner.NewTestRunner(runner.Config{
		Cases:          reg.Collect(),
		Driver:         driver,
		Ledger:         led,
		Log:            config.Log,
		DefaultTimeout: config.DefaultTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}

	var notifier notify.Notifier
	if dt := environment.DingTalk(); dt.Enabled {
		notifier = notify.NewDingTalk(dt.Webhook, dt.Secret, config.Log)
	}

	config.Log.Info("app assembled",
		"suite", reg.Suite(),
		"environment", environment.Name(),
		"coordinator", led.Coordinator())

	return &App{
		ctx:              ctx,
		config:           config,
		version:          version,
		environment:      environment,
		registry:         reg,
		ledger:           led,
		runner:           testRunner,
		notifier:         notifier,
		sink:             reporting.NewTextSummarySink(config.LogDir),
		reporter:         NewDefaultMetricsReporter(),
		done:             make(chan struct{}),
		summarizedRunIDs: make(map[string]bool),
	}, nil
}

// Ledger exposes the run-progress ledger, e.g. for the progress server.
func (a *App) Ledger() *ledger.Ledger {
	return a.ledger
}

// Start runs the suite once, then either returns (run-once mode) or keeps
// running it at the configured interval until Stop is called.
func (a *App) Start(ctx context.Context) error {
	// Panics anywhere below are runtime errors, not test failures.
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	a.ctx = ctx
	a.done = make(chan struct{})
	a.running.Store(true)

	if a.config.RunOnce {
		a.config.Log.Info("starting in run-once mode")
	} else {
		a.config.Log.Info("starting in continuous mode", "interval", a.config.RunInterval)
	}

	// Run the suite immediately on startup.
	if err := a.runSuite(); err != nil {
		a.config.Log.Error("runtime error running suite", "error", err)
		return err
	}

	if a.config.RunOnce {
		a.config.Log.Info("run completed, exiting (run-once mode)")
		a.running.Store(false)

		if a.result != nil && a.result.Status == types.OutcomeFail {
			a.config.Log.Warn("run completed with failures, returning exit code 1")
			return NewTestFailureError(fmt.Sprintf("%d of %d cases failed",
				a.result.Stats.Fail, a.result.Stats.Total))
		}
		return nil
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.config.Log.Debug("starting periodic runner goroutine", "interval", a.config.RunInterval)

		for {
			select {
			case <-time.After(a.config.RunInterval):
				if !a.running.Load() {
					a.config.Log.Debug("service stopped, exiting periodic runner")
					return
				}
				a.config.Log.Info("running periodic suite")
				if err := a.runSuite(); err != nil {
					a.config.Log.Error("error running periodic suite", "error", err)
				}

			case <-a.done:
				a.config.Log.Debug("done signal received, stopping periodic runner")
				return

			case <-ctx.Done():
				a.config.Log.Debug("context canceled, stopping periodic runner")
				a.running.Store(false)
				return
			}
		}
	}()
	a.config.Log.Debug("app started successfully")
	return nil
}

// runSuite runs the whole suite once and emits the terminal summary.
func (a *App) runSuite() error {
	a.config.Log.Info("running suite", "suite", a.registry.Suite())
	result, err := a.runner.RunAllTests(a.ctx)
	if err != nil {
		return NewRuntimeError(err)
	}
	a.result = result

	a.emitTerminalSummary(result)
	a.config.Log.Info("run completed", "run_id", result.RunID, "status", result.Status)
	return nil
}

// emitTerminalSummary prints the results table and summary block, persists
// them through the sink, notifies, and reports metrics. Exactly once per run.
func (a *App) emitTerminalSummary(result *runner.RunResult) {
	a.summaryMu.Lock()
	if a.summarizedRunIDs[result.RunID] {
		a.summaryMu.Unlock()
		a.config.Log.Debug("terminal summary already emitted", "run_id", result.RunID)
		return
	}
	a.summarizedRunIDs[result.RunID] = true
	a.summaryMu.Unlock()

	data := reporting.CollectSummaryData(a.ledger, a.registry.Suite(), a.environment.Name())

	table := reporting.BuildResultsTable(data)
	summary := reporting.BuildSummaryText(data)
	fmt.Println(table)
	fmt.Println(summary)

	if err := a.sink.Complete(result.RunID, table+"\n"+summary); err != nil {
		a.config.Log.Error("error persisting run summary", "run_id", result.RunID, "error", err)
	}

	if a.notifier != nil {
		payload := notify.Payload{
			Total:       data.Summary.Total,
			Passed:      data.Summary.Success,
			Failed:      data.Summary.Fail,
			Skipped:     data.Summary.Skip,
			Duration:    data.Duration,
			FailedCases: data.FailedNames,
			Environment: data.Environment,
		}
		if err := a.notifier.Send(a.ctx, payload); err != nil {
			a.config.Log.Error("error sending run notification", "run_id", result.RunID, "error", err)
		}
	}

	a.reporter.ReportResults(a.environment.Name(), result)
}

// Stop stops the service.
func (a *App) Stop(ctx context.Context) error {
	a.config.Log.Info("stopping")

	if !a.running.Load() {
		a.config.Log.Debug("service already stopped, nothing to do")
		return nil
	}

	// Update running state first to prevent new runs.
	a.running.Store(false)

	a.config.Log.Debug("sending done signal to goroutines")
	close(a.done)
	a.wg.Wait()

	a.config.Log.Info("stopped successfully")
	return nil
}

// Stopped returns true if the service is stopped.
func (a *App) Stopped() bool {
	return !a.running.Load()
}

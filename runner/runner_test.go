package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testops/uiledger/ledger"
	"github.com/testops/uiledger/types"
)

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	return ledger.New(ledger.Config{
		Dir:         t.TempDir(),
		Coordinator: true,
		Log:         log.NewLogger(log.DiscardHandler()),
	})
}

func newRunner(t *testing.T, l *ledger.Ledger, cases []types.TestCase) TestRunner {
	t.Helper()
	r, err := NewTestRunner(Config{
		Cases:  cases,
		Driver: types.NewNoopDriver(),
		Ledger: l,
		Log:    log.NewLogger(log.DiscardHandler()),
	})
	require.NoError(t, err)
	return r
}

func passCase(ctx context.Context, drv types.Driver) error { return nil }

func failCase(ctx context.Context, drv types.Driver) error { return errors.New("element not found") }

func skipCase(ctx context.Context, drv types.Driver) error {
	return types.NewSkipError("environment not supported")
}

func panicCase(ctx context.Context, drv types.Driver) error { panic("boom") }

func TestNewTestRunnerValidation(t *testing.T) {
	l := newTestLedger(t)

	_, err := NewTestRunner(Config{Ledger: l})
	assert.ErrorContains(t, err, "driver is required")

	_, err = NewTestRunner(Config{Driver: types.NewNoopDriver()})
	assert.ErrorContains(t, err, "ledger is required")
}

func TestRunAllTestsDrivesLedger(t *testing.T) {
	l := newTestLedger(t)
	r := newRunner(t, l, []types.TestCase{
		{Name: "login", Description: "User can log in", Run: passCase},
		{Name: "search", Description: "Search returns results", Run: failCase},
		{Name: "export", Run: skipCase},
	})

	result, err := r.RunAllTests(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeFail, result.Status)
	assert.Equal(t, 3, result.Stats.Total)
	assert.Equal(t, 1, result.Stats.Success)
	assert.Equal(t, 1, result.Stats.Fail)
	assert.Equal(t, 1, result.Stats.Skip)
	assert.Equal(t, []string{"Search returns results"}, result.FailedCases)
	assert.NotEmpty(t, result.RunID)

	sum := l.Summary()
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Success)
	assert.Equal(t, 1, sum.Fail)
	assert.Equal(t, 1, sum.Skip)
	assert.Equal(t, []string{"User can log in"}, l.Names(types.OutcomeSuccess))
	assert.Equal(t, []string{"Search returns results"}, l.Names(types.OutcomeFail))
	assert.Equal(t, []string{"export"}, l.Names(types.OutcomeSkip), "cases without a description record their identifier")
	assert.False(t, l.Running(), "run must be finalized")
	assert.Equal(t, "100.0%", l.ProgressPercent())
}

func TestRunAllTestsAllPass(t *testing.T) {
	l := newTestLedger(t)
	r := newRunner(t, l, []types.TestCase{
		{Name: "a", Run: passCase},
		{Name: "b", Run: passCase},
	})

	result, err := r.RunAllTests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeSuccess, result.Status)
	assert.Empty(t, result.FailedCases)
}

func TestRunAllTestsAllSkipped(t *testing.T) {
	l := newTestLedger(t)
	r := newRunner(t, l, []types.TestCase{
		{Name: "a", Skip: true, SkipReason: "wip"},
		{Name: "b", Run: skipCase},
	})

	result, err := r.RunAllTests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeSkip, result.Status)
	assert.Equal(t, 2, result.Stats.Skip)
}

func TestRunAllTestsEmptySuite(t *testing.T) {
	l := newTestLedger(t)
	r := newRunner(t, l, nil)

	result, err := r.RunAllTests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeSuccess, result.Status)
	assert.Equal(t, 0, result.Stats.Total)
	assert.Equal(t, "0%", l.ProgressPercent())
}

func TestPanickingCaseIsAFailure(t *testing.T) {
	l := newTestLedger(t)
	r := newRunner(t, l, []types.TestCase{
		{Name: "explode", Run: panicCase},
		{Name: "after", Run: passCase},
	})

	result, err := r.RunAllTests(context.Background())
	require.NoError(t, err, "a panicking case must not abort the run")
	assert.Equal(t, 1, result.Stats.Fail)
	assert.Equal(t, 1, result.Stats.Success, "cases after the panic still run")
}

func TestManifestSkipDoesNotExecuteCase(t *testing.T) {
	executed := false
	l := newTestLedger(t)
	r := newRunner(t, l, []types.TestCase{
		{Name: "skipped", Skip: true, SkipReason: "broken", Run: func(ctx context.Context, drv types.Driver) error {
			executed = true
			return nil
		}},
	})

	result, err := r.RunAllTests(context.Background())
	require.NoError(t, err)
	assert.False(t, executed)
	assert.Equal(t, 1, result.Stats.Skip)
}

func TestCancelledContextAbortsRun(t *testing.T) {
	l := newTestLedger(t)
	r := newRunner(t, l, []types.TestCase{{Name: "a", Run: passCase}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RunAllTests(ctx)
	require.Error(t, err)
	assert.False(t, l.Running(), "ledger is finalized even on abort")
}

func TestPerCaseTimeout(t *testing.T) {
	l := newTestLedger(t)
	r, err := NewTestRunner(Config{
		Cases: []types.TestCase{{Name: "slow", Run: func(ctx context.Context, drv types.Driver) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		}}},
		Driver:         types.NewNoopDriver(),
		Ledger:         l,
		Log:            log.NewLogger(log.DiscardHandler()),
		DefaultTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	result, err := r.RunAllTests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Fail)
}

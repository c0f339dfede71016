package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testops/uiledger/ledger"
	"github.com/testops/uiledger/types"
)

func sampleData() SummaryData {
	return SummaryData{
		Suite:       "demo",
		Environment: "prod",
		Summary: ledger.Summary{
			Total:     4,
			Success:   2,
			Fail:      1,
			Skip:      1,
			StartedAt: "2026-01-01 10:00:00",
		},
		Duration: "2m 5s",
		Progress: "100.0%",
		// Most-recent-first, as the ledger returns them.
		SuccessNames: []string{"second pass", "first pass"},
		FailedNames:  []string{"broken search"},
		SkippedNames: []string{"wip export"},
	}
}

func TestSummaryDataDerivations(t *testing.T) {
	data := sampleData()
	assert.Equal(t, 3, data.Executed())
	assert.Equal(t, types.OutcomeFail, data.Status())

	data.Summary.Fail = 0
	data.FailedNames = nil
	assert.Equal(t, types.OutcomeSuccess, data.Status())

	data.Summary.Success = 0
	assert.Equal(t, types.OutcomeSkip, data.Status(), "nothing executed reads as a skip")
}

func TestBuildSummaryTextContents(t *testing.T) {
	out := BuildSummaryText(sampleData())

	assert.Contains(t, out, "Test Run Summary")
	assert.Contains(t, out, "Suite:        demo")
	assert.Contains(t, out, "Environment:  prod")
	assert.Regexp(t, `Planned cases:\s+4`, out)
	assert.Regexp(t, `Executed cases:\s+3`, out)
	assert.Regexp(t, `Duration:\s+2m 5s`, out)
	assert.Contains(t, out, "pass rate:  66.67%")
	assert.Contains(t, out, "fail rate:  33.33%")
	assert.Contains(t, out, "1 case(s) failed")
}

func TestBuildSummaryTextChronologicalOrder(t *testing.T) {
	out := BuildSummaryText(sampleData())

	// The ledger stores names most-recent-first; the summary flips them
	// back into execution order.
	first := strings.Index(out, "first pass")
	second := strings.Index(out, "second pass")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)

	assert.Contains(t, out, "+   1. first pass")
	assert.Contains(t, out, "+   2. second pass")
	assert.Contains(t, out, "x   1. broken search")
	assert.Contains(t, out, "-   1. wip export")
}

func TestBuildSummaryTextNoFailures(t *testing.T) {
	data := sampleData()
	data.Summary.Fail = 0
	data.FailedNames = nil

	out := BuildSummaryText(data)
	assert.Contains(t, out, "All executed cases passed.")
	assert.NotContains(t, out, "Failed cases:")
}

func TestBuildSummaryTextNothingExecuted(t *testing.T) {
	out := BuildSummaryText(SummaryData{Suite: "demo", Environment: "prod", Progress: "0%", Duration: "unknown"})
	assert.Contains(t, out, "No cases were executed.")
}

func TestBuildResultsTable(t *testing.T) {
	out := BuildResultsTable(sampleData())

	assert.Contains(t, out, "UI Test Results: demo (2m 5s)")
	assert.Contains(t, out, "first pass")
	assert.Contains(t, out, "broken search")
	assert.Contains(t, out, "✗ fail")
	assert.Contains(t, out, "4 planned / 3 executed")
}

func TestCollectSummaryData(t *testing.T) {
	l := ledger.New(ledger.Config{Dir: t.TempDir(), Coordinator: true})
	l.Reset()
	l.Init(2)
	l.RecordOutcome(types.OutcomeSuccess, "a")
	l.RecordOutcome(types.OutcomeFail, "b")
	l.Finalize()

	data := CollectSummaryData(l, "demo", "test")
	assert.Equal(t, 2, data.Summary.Total)
	assert.Equal(t, []string{"a"}, data.SuccessNames)
	assert.Equal(t, []string{"b"}, data.FailedNames)
	assert.Equal(t, "100.0%", data.Progress)
}

func TestTextSummarySinkWritesStrippedFile(t *testing.T) {
	dir := t.TempDir()
	sink := NewTextSummarySink(dir)

	require.NoError(t, sink.Complete("run-1", "\x1b[32mall good\x1b[0m\n"))

	data, err := os.ReadFile(filepath.Join(dir, "testrun-run-1", "summary.log"))
	require.NoError(t, err)
	assert.Equal(t, "all good\n", string(data))
}

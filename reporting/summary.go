// Package reporting assembles human-readable run summaries from ledger
// reads: a flat text block for the terminal and log file, and a colored
// results table for the console.
package reporting

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/testops/uiledger/ledger"
	"github.com/testops/uiledger/types"
)

// SummaryData bundles everything the sinks need, read once from the ledger
// at terminal-summary time.
type SummaryData struct {
	Suite       string
	Environment string
	Summary     ledger.Summary
	Duration    string
	Progress    string
	// Name lists as the ledger returns them: most-recent-first.
	SuccessNames []string
	FailedNames  []string
	SkippedNames []string
}

// Executed returns the number of cases that actually ran.
func (d SummaryData) Executed() int {
	return d.Summary.Success + d.Summary.Fail
}

// Status derives the overall outcome from the counters.
func (d SummaryData) Status() types.Outcome {
	switch {
	case d.Summary.Fail > 0:
		return types.OutcomeFail
	case d.Executed() == 0:
		return types.OutcomeSkip
	default:
		return types.OutcomeSuccess
	}
}

// BuildSummaryText renders the flat terminal-summary block: aggregate
// counters, rates and the chronological case name lists.
func BuildSummaryText(data SummaryData) string {
	var successRate, failRate float64
	if executed := data.Executed(); executed > 0 {
		successRate = float64(data.Summary.Success) / float64(executed) * 100
		failRate = float64(data.Summary.Fail) / float64(executed) * 100
	}

	divider := strings.Repeat("=", 80)
	rule := strings.Repeat("-", 80)

	var b strings.Builder
	b.WriteString("\n" + divider + "\n")
	fmt.Fprintf(&b, "%30sTest Run Summary\n", "")
	b.WriteString(divider + "\n\n")

	fmt.Fprintf(&b, "  Suite:        %s\n", data.Suite)
	fmt.Fprintf(&b, "  Environment:  %s\n", data.Environment)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "  Planned cases:   %6d\n", data.Summary.Total)
	fmt.Fprintf(&b, "  Executed cases:  %6d\n", data.Executed())
	fmt.Fprintf(&b, "  Skipped cases:   %6d\n", data.Summary.Skip)
	fmt.Fprintf(&b, "  Progress:        %9s\n", data.Progress)
	fmt.Fprintf(&b, "  Duration:        %9s\n", data.Duration)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "  Passed:  %6d  |  pass rate: %6.2f%%\n", data.Summary.Success, successRate)
	fmt.Fprintf(&b, "  Failed:  %6d  |  fail rate: %6.2f%%\n", data.Summary.Fail, failRate)
	b.WriteString(rule + "\n")

	writeNameList(&b, "Passed cases", "+", data.SuccessNames)
	writeNameList(&b, "Failed cases", "x", data.FailedNames)
	writeNameList(&b, "Skipped cases", "-", data.SkippedNames)

	b.WriteString("\n")
	switch {
	case data.Summary.Fail > 0:
		fmt.Fprintf(&b, "  %d case(s) failed, check the failure details above.\n", data.Summary.Fail)
	case data.Executed() == 0:
		b.WriteString("  No cases were executed.\n")
	default:
		b.WriteString("  All executed cases passed.\n")
	}
	b.WriteString(divider + "\n")
	return b.String()
}

// writeNameList prints a name list in chronological order, reversing the
// ledger's most-recent-first ordering.
func writeNameList(b *strings.Builder, title, marker string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(b, "\n  %s:\n", title)
	for i := len(names) - 1; i >= 0; i-- {
		fmt.Fprintf(b, "  %s %3d. %s\n", marker, len(names)-i, names[i])
	}
}

// BuildResultsTable renders the per-case results table shown on the
// console, colored by the overall run status.
func BuildResultsTable(data SummaryData) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("UI Test Results: %s (%s)", data.Suite, data.Duration))
	t.AppendHeader(table.Row{"#", "Test Case", "Result"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Test Case", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	row := 0
	appendNames := func(names []string, result string) {
		for i := len(names) - 1; i >= 0; i-- {
			row++
			t.AppendRow(table.Row{row, names[i], result})
		}
	}
	appendNames(data.SuccessNames, resultString(types.OutcomeSuccess))
	appendNames(data.FailedNames, resultString(types.OutcomeFail))
	appendNames(data.SkippedNames, resultString(types.OutcomeSkip))

	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d planned / %d executed", data.Summary.Total, data.Executed()),
		resultString(data.Status()),
	})

	switch data.Status() {
	case types.OutcomeSuccess:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.OutcomeSkip:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	return t.Render()
}

// resultString returns a marked string for an outcome.
func resultString(o types.Outcome) string {
	switch o {
	case types.OutcomeSuccess:
		return "✓ pass"
	case types.OutcomeSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}

// CollectSummaryData snapshots the ledger into a SummaryData.
func CollectSummaryData(l *ledger.Ledger, suite, environment string) SummaryData {
	return SummaryData{
		Suite:        suite,
		Environment:  environment,
		Summary:      l.Summary(),
		Duration:     l.Duration(),
		Progress:     l.ProgressPercent(),
		SuccessNames: l.Names(types.OutcomeSuccess),
		FailedNames:  l.Names(types.OutcomeFail),
		SkippedNames: l.Names(types.OutcomeSkip),
	}
}

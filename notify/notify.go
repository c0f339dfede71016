// Package notify pushes the final run summary to an external chat webhook.
package notify

import "context"

// Payload is the flat summary tuple assembled for a notifier at
// terminal-summary time.
type Payload struct {
	Total       int
	Passed      int
	Failed      int
	Skipped     int
	Duration    string
	FailedCases []string
	Environment string
}

// PassRate formats the pass share of planned cases, e.g. "66.67%".
// Returns "0%" when nothing was planned.
func (p Payload) PassRate() string {
	if p.Total == 0 {
		return "0%"
	}
	return percent(p.Passed, p.Total)
}

// Notifier delivers a run summary. Implementations own their transport and
// signing; delivery failures must be reported as errors, never panics;
// the caller logs and moves on.
type Notifier interface {
	Send(ctx context.Context, payload Payload) error
}

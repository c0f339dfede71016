package types

import (
	"context"
	"fmt"
	"strings"
)

// Outcome represents the recorded result of a single UI test case.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFail    Outcome = "fail"
	OutcomeSkip    Outcome = "skip"
)

// Valid reports whether o is one of the three recordable outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFail, OutcomeSkip:
		return true
	}
	return false
}

// Outcomes lists every recordable outcome, in display order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeSuccess, OutcomeFail, OutcomeSkip}
}

// Driver is the opaque browser-automation handle passed to test cases.
// The framework never drives the browser itself; cases may type-assert
// richer capabilities from their concrete driver.
type Driver interface {
	// Navigate opens the given URL in the browser under test.
	Navigate(ctx context.Context, url string) error
}

// CaseFunc is the body of a UI test case.
type CaseFunc func(ctx context.Context, drv Driver) error

// TestCase is a runnable, collected test case.
type TestCase struct {
	Name        string
	Description string
	Order       int
	Skip        bool
	SkipReason  string
	Run         CaseFunc
}

// DisplayName returns the human-readable name used in ledger records and
// summaries: the first line of the description when present, else the
// case identifier.
func (tc TestCase) DisplayName() string {
	return DisplayName(tc.Name, tc.Description)
}

// DisplayName derives a display name from a case identifier and its
// free-form description.
func DisplayName(name, description string) string {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return name
	}
	if idx := strings.IndexByte(desc, '\n'); idx != -1 {
		desc = strings.TrimSpace(desc[:idx])
	}
	if desc == "" {
		return name
	}
	return desc
}

// SkipError signals that a test case skipped itself at runtime.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	if e.Reason == "" {
		return "test skipped"
	}
	return fmt.Sprintf("test skipped: %s", e.Reason)
}

// NewSkipError creates a SkipError with the given reason.
func NewSkipError(reason string) *SkipError {
	return &SkipError{Reason: reason}
}

// NoopDriver is a Driver that does nothing. It stands in for a real
// browser when exercising the run machinery.
type NoopDriver struct{}

// NewNoopDriver creates a driver whose operations all succeed immediately.
func NewNoopDriver() *NoopDriver { return &NoopDriver{} }

func (d *NoopDriver) Navigate(ctx context.Context, url string) error { return nil }

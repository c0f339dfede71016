// Package ledger tracks a UI test run's aggregate counters and per-case
// outcomes across two JSON documents on disk. The documents survive the
// process and are the cross-process view of run progress when tests execute
// in multiple workers: only the coordinator process writes, any process may
// read.
package ledger

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testops/uiledger/types"
)

// TimeLayout is the timestamp format persisted in the counters document.
const TimeLayout = "2006-01-02 15:04:05"

// Sentinels returned by Duration when the elapsed time cannot be computed.
const (
	DurationUnknown = "unknown"
	DurationFailed  = "calculation failed"
)

// Summary is the aggregate view of the counters document.
type Summary struct {
	Total     int
	Success   int
	Fail      int
	Skip      int
	StartedAt string
}

// Config configures a Ledger.
type Config struct {
	// Dir is the logs directory holding both documents.
	Dir string
	// Coordinator gates all mutating operations. Worker processes construct
	// their ledger with Coordinator=false and every mutating call becomes a
	// no-op; the storage layer has no cross-process locking, so lost updates
	// are prevented by convention, not by merging.
	Coordinator bool
	Log         log.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Ledger is the durable run-progress record. One instance per process;
// a process-local mutex serializes every read-modify-write sequence.
// File I/O failures are logged and dropped; a broken progress ledger must
// never fail or abort actual tests.
type Ledger struct {
	mu          sync.Mutex
	store       *documentStore
	processPath string
	recordsPath string
	coordinator bool
	log         log.Logger
	now         func() time.Time
}

// New creates a Ledger rooted at cfg.Dir. The directory is created lazily
// on first write.
func New(cfg Config) *Ledger {
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		store:       newDocumentStore(logger),
		processPath: filepath.Join(cfg.Dir, ProcessFile),
		recordsPath: filepath.Join(cfg.Dir, RecordsFile),
		coordinator: cfg.Coordinator,
		log:         logger,
		now:         now,
	}
}

// ProcessPath returns the path of the counters document.
func (l *Ledger) ProcessPath() string { return l.processPath }

// RecordsPath returns the path of the per-case outcome document.
func (l *Ledger) RecordsPath() string { return l.recordsPath }

// Coordinator reports whether this instance is allowed to mutate the
// documents.
func (l *Ledger) Coordinator() bool { return l.coordinator }

// Reset truncates both documents to their zeroed state. Name-list clearing
// is Reset's sole responsibility; Init leaves the lists alone.
func (l *Ledger) Reset() {
	if !l.coordinator {
		l.log.Debug("Skipping ledger reset on non-coordinator process")
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.store.write(l.processPath, processState{})
	l.store.write(l.recordsPath, recordState{
		SuccessTestcases: []string{},
		FailedTestcases:  []string{},
		SkippedTestcases: []string{},
	})
}

// Init stamps the start of a run: sets the planned total, zeroes the three
// counters and marks the run as in progress. A negative total is a caller
// bug.
func (l *Ledger) Init(total int) {
	if total < 0 {
		panic(fmt.Sprintf("ledger: negative total %d", total))
	}
	if !l.coordinator {
		l.log.Debug("Skipping ledger init on non-coordinator process")
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.store.write(l.processPath, processState{
		Total:         total,
		StartTime:     l.now().Format(TimeLayout),
		RunningStatus: 1,
	})
}

// RecordOutcome bumps the counter matching kind and prepends testName to
// the matching name list. Safe to call before Init; an unknown kind is a
// caller bug.
func (l *Ledger) RecordOutcome(kind types.Outcome, testName string) {
	if !kind.Valid() {
		panic(fmt.Sprintf("ledger: unknown outcome %q", kind))
	}
	if !l.coordinator {
		l.log.Debug("Skipping outcome record on non-coordinator process", "outcome", kind, "test", testName)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	process := l.store.readProcess(l.processPath)
	records := l.store.readRecords(l.recordsPath)

	switch kind {
	case types.OutcomeSuccess:
		process.Success++
		records.SuccessTestcases = prepend(records.SuccessTestcases, testName)
	case types.OutcomeFail:
		process.Fail++
		records.FailedTestcases = prepend(records.FailedTestcases, testName)
	case types.OutcomeSkip:
		process.Skip++
		records.SkippedTestcases = prepend(records.SkippedTestcases, testName)
	}

	// Reruns or double-reporting runners can push the recorded count past
	// the planned total. Tolerated, but worth a trace in the logs.
	if recorded := process.Success + process.Fail + process.Skip; process.Total > 0 && recorded > process.Total {
		l.log.Warn("Recorded outcomes exceed planned total", "recorded", recorded, "total", process.Total, "test", testName)
	}

	l.store.write(l.processPath, process)
	l.store.write(l.recordsPath, records)
}

// Finalize stamps the end of the run and clears the in-progress flag.
// Idempotent; a repeated call overwrites the end timestamp.
func (l *Ledger) Finalize() {
	if !l.coordinator {
		l.log.Debug("Skipping ledger finalize on non-coordinator process")
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	process := l.store.readProcess(l.processPath)
	process.EndTime = l.now().Format(TimeLayout)
	process.RunningStatus = 0
	l.store.write(l.processPath, process)
}

// Summary returns the current aggregate counters. Pure read.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	process := l.store.readProcess(l.processPath)
	return Summary{
		Total:     process.Total,
		Success:   process.Success,
		Fail:      process.Fail,
		Skip:      process.Skip,
		StartedAt: process.StartTime,
	}
}

// Running reports whether a run is currently marked in progress.
func (l *Ledger) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.readProcess(l.processPath).RunningStatus == 1
}

// ProgressPercent formats the completed share of the run to one decimal
// place, e.g. "60.0%". Returns "0%" when no total has been planned.
func (l *Ledger) ProgressPercent() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	process := l.store.readProcess(l.processPath)
	if process.Total == 0 {
		return "0%"
	}
	done := process.Success + process.Fail + process.Skip
	return fmt.Sprintf("%.1f%%", float64(done)/float64(process.Total)*100)
}

// Duration formats the elapsed time between the start and end timestamps
// using the largest applicable units, e.g. "1h 2m 5s", "2m 5s" or "45s".
// Returns "unknown" when either timestamp is missing and "calculation
// failed" when a timestamp does not parse. Never panics; this runs inside
// the runner's teardown path.
func (l *Ledger) Duration() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	process := l.store.readProcess(l.processPath)
	return formatElapsed(process.StartTime, process.EndTime)
}

// Names returns the most-recent-first name list for kind. Readers wanting
// chronological order must reverse the slice. An unknown kind is a caller
// bug.
func (l *Ledger) Names(kind types.Outcome) []string {
	if !kind.Valid() {
		panic(fmt.Sprintf("ledger: unknown outcome %q", kind))
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.store.readRecords(l.recordsPath)
	switch kind {
	case types.OutcomeSuccess:
		return records.SuccessTestcases
	case types.OutcomeFail:
		return records.FailedTestcases
	default:
		return records.SkippedTestcases
	}
}

func formatElapsed(start, end string) string {
	if start == "" || end == "" {
		return DurationUnknown
	}
	startTime, err := time.Parse(TimeLayout, start)
	if err != nil {
		return DurationFailed
	}
	endTime, err := time.Parse(TimeLayout, end)
	if err != nil {
		return DurationFailed
	}
	seconds := int(endTime.Sub(startTime).Seconds())
	if seconds < 0 {
		return DurationFailed
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	seconds = seconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func prepend(names []string, name string) []string {
	out := make([]string, 0, len(names)+1)
	out = append(out, name)
	return append(out, names...)
}

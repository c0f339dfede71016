package ledger

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
)

// ProcessFile is the counters document written under the logs directory.
const ProcessFile = "test_process.json"

// RecordsFile is the per-case outcome document written next to ProcessFile.
const RecordsFile = "testcase_records.json"

// processState mirrors the on-disk counters document. running_status is 1
// between Init and Finalize, 0 otherwise.
type processState struct {
	Total         int    `json:"total"`
	Success       int    `json:"success"`
	Fail          int    `json:"fail"`
	Skip          int    `json:"skip"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	RunningStatus int    `json:"running_status"`
}

// recordState mirrors the on-disk per-case outcome document. Name lists are
// most-recent-first: new entries are prepended.
type recordState struct {
	SuccessTestcases []string `json:"success_testcases"`
	FailedTestcases  []string `json:"failed_testcases"`
	SkippedTestcases []string `json:"skipped_testcases"`
}

// documentStore performs the raw JSON file I/O for the ledger. Reads of
// missing or corrupt files yield a zero document; failed writes are logged
// and dropped. Progress tracking is best-effort instrumentation and must
// never fail the test run, so no method returns an error.
type documentStore struct {
	log log.Logger
}

func newDocumentStore(logger log.Logger) *documentStore {
	return &documentStore{log: logger}
}

// readProcess loads the counters document at path, returning a zero
// document when the file is missing or unreadable.
func (s *documentStore) readProcess(path string) processState {
	var state processState
	data, ok := s.read(path)
	if !ok {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn("Progress document is malformed, treating as empty", "path", path, "err", err)
		return processState{}
	}
	return state
}

// readRecords loads the outcome document at path, returning a zero
// document when the file is missing or unreadable.
func (s *documentStore) readRecords(path string) recordState {
	var state recordState
	data, ok := s.read(path)
	if !ok {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn("Records document is malformed, treating as empty", "path", path, "err", err)
		return recordState{}
	}
	return state
}

func (s *documentStore) read(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("Failed to read progress document, treating as empty", "path", path, "err", err)
		}
		return nil, false
	}
	return data, true
}

// write serializes v as indented JSON and overwrites path. Errors are
// logged and swallowed.
func (s *documentStore) write(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.log.Error("Failed to encode progress document", "path", path, "err", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		s.log.Error("Failed to create logs directory", "path", path, "err", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		s.log.Error("Failed to write progress document", "path", path, "err", err)
	}
}

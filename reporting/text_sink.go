package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/acarl005/stripansi"
)

// TextSummarySink persists the terminal summary to a per-run log file so
// the result survives the console scrollback.
type TextSummarySink struct {
	baseDir string
}

// NewTextSummarySink creates a sink writing under baseDir.
func NewTextSummarySink(baseDir string) *TextSummarySink {
	return &TextSummarySink{baseDir: baseDir}
}

// Complete writes the rendered summary for runID. Terminal color codes are
// stripped so the file stays grep-able.
func (s *TextSummarySink) Complete(runID, content string) error {
	outputDir := filepath.Join(s.baseDir, "testrun-"+runID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	summaryFile := filepath.Join(outputDir, "summary.log")
	if err := os.WriteFile(summaryFile, []byte(stripansi.Strip(content)), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

package uiledger

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testops/uiledger/flags"
	"github.com/testops/uiledger/types"
)

// Config holds the application configuration
type Config struct {
	Manifest       string        // Path to the suite manifest file
	Environment    string        // Environment name, resolved by the env package when empty
	EnvDir         string        // Directory holding per-environment config files
	LogDir         string        // Directory for progress documents and run summaries
	RunInterval    time.Duration // Interval between runs
	RunOnce        bool          // Indicates if the service should exit after one run
	Worker         bool          // Worker processes never write to the ledger
	DefaultTimeout time.Duration // Per-case timeout, zero means no deadline

	// Driver is the browser handle handed to each case. Defaults to the
	// no-op driver when nil.
	Driver types.Driver
	// CaseFuncs binds case identifiers from the manifest to their bodies.
	CaseFuncs map[string]types.CaseFunc

	Log log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	manifest := ctx.String(flags.Manifest.Name)
	if manifest == "" {
		return nil, errors.New("suite manifest is required")
	}
	absManifest, err := filepath.Abs(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for manifest '%s': %w", manifest, err)
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)

	return &Config{
		Manifest:       absManifest,
		Environment:    ctx.String(flags.Environment.Name),
		EnvDir:         ctx.String(flags.EnvDir.Name),
		LogDir:         logDir,
		RunInterval:    runInterval,
		RunOnce:        runInterval == 0,
		Worker:         ctx.Bool(flags.Worker.Name),
		DefaultTimeout: ctx.Duration(flags.DefaultTimeout.Name),
		Log:            logger,
	}, nil
}

package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "UILEDGER"

// prefixEnvVar derives the environment variable for a flag,
// e.g. UILEDGER_MANIFEST for "MANIFEST".
func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Manifest = &cli.StringFlag{
		Name:     "manifest",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVar("MANIFEST"),
		Usage:    "Path to suite manifest file (eg. 'suite.yaml')",
	}
	Environment = &cli.StringFlag{
		Name:    "env",
		Value:   "",
		EnvVars: prefixEnvVar("ENV"),
		Usage:   "Environment to run against (eg. 'prod'). Falls back to $ENV, then 'prod'.",
	}
	EnvDir = &cli.StringFlag{
		Name:    "env-dir",
		Value:   "config/environments",
		EnvVars: prefixEnvVar("ENV_DIR"),
		Usage:   "Directory holding per-environment config files",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: prefixEnvVar("LOGDIR"),
		Usage:   "Directory to store progress documents and run summaries",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVar("RUN_INTERVAL"),
		Usage:   "Interval between runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	DefaultTimeout = &cli.DurationFlag{
		Name:    "default-timeout",
		Value:   0,
		EnvVars: prefixEnvVar("DEFAULT_TIMEOUT"),
		Usage:   "Per-case timeout. Set to 0 or omit for no deadline.",
	}
	Worker = &cli.BoolFlag{
		Name:    "worker",
		Value:   false,
		EnvVars: prefixEnvVar("WORKER"),
		Usage:   "Mark this process as a worker; all ledger writes become no-ops",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVar("LOG_LEVEL"),
		Usage:   "Log level (trace, debug, info, warn, error, crit)",
	}
)

var requiredFlags = []cli.Flag{
	Manifest,
}

var optionalFlags = []cli.Flag{
	Environment,
	EnvDir,
	LogDir,
	RunInterval,
	DefaultTimeout,
	Worker,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

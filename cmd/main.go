package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	uiledger "github.com/testops/uiledger"
	"github.com/testops/uiledger/flags"
	"github.com/testops/uiledger/service"
)

var (
	Version   = "v0.3.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "uiledger"
	app.Usage = "UI test runner with a durable run-progress ledger"
	app.Description = "uiledger runs UI test suites, tracks progress across processes and reports results"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if uiledger.IsRuntimeError(err) {
				// Runtime errors exit with code 2
				cli.HandleExitCoder(cli.Exit(err.Error(), 2))
			} else if uiledger.IsTestFailureError(err) {
				// Test failures exit with code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), 1))
			} else {
				// Other unspecified errors default to exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), 1))
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("application failed", "message", err)
	}
}

func run(cliCtx *cli.Context) error {
	logger, err := setupLogger(cliCtx.String(flags.LogLevel.Name))
	if err != nil {
		return uiledger.NewRuntimeError(fmt.Errorf("failed to set up logging: %w", err))
	}

	cfg, err := uiledger.NewConfig(cliCtx, logger)
	if err != nil {
		return uiledger.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	app, err := uiledger.New(cliCtx.Context, cfg, Version)
	if err != nil {
		return uiledger.NewRuntimeError(fmt.Errorf("failed to create app: %w", err))
	}

	// Side-car servers: healthz, metrics and the live progress endpoint.
	svc := service.New(app.Ledger().ProcessPath(), app.Ledger().RecordsPath())
	svc.Start(cliCtx.Context)
	defer svc.Shutdown()

	if err := app.Start(cliCtx.Context); err != nil {
		return err
	}
	if cfg.RunOnce {
		return nil
	}

	<-cliCtx.Context.Done()
	return app.Stop(context.Background())
}

func setupLogger(level string) (log.Logger, error) {
	lvl, err := log.LvlFromString(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)
	logger := log.NewLogger(handler)
	log.SetDefault(logger)
	return logger, nil
}

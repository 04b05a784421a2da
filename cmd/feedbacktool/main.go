// Command feedbacktool is a terminal client for the feedback survey service: sign in,
// build and publish surveys, answer them, and export results.
//
// Usage:
//
//	feedbacktool [-config file] [-v] <command> [flags]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/soaringjerry/feedbacktool/internal/config"
	"github.com/soaringjerry/feedbacktool/internal/logging"
	"github.com/soaringjerry/feedbacktool/internal/utils"
)

const stopTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("feedbacktool", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", utils.SafeEnv("FEEDBACKTOOL_CONFIG", ""), "path to a YAML config file")
	verbose := fs.Bool("v", false, "log at debug level to stderr")
	fs.Usage = func() { usage(fs.Output()) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return 2
	}
	cmd, ok := lookup(fs.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		usage(stderr)
		return 2
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Console = true
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var a *App
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger { return &fxevent.SlogLogger{Logger: logger.Logger} }),
		fx.Supply(cfg, logger.Logger),
		fx.Provide(func() io.Writer { return stdout }),
		storeModule,
		clientModule,
		serviceModule,
		fx.Populate(&a),
	)
	if err := app.Start(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			logger.Warn("shutdown failed", "error", err)
		}
	}()

	if err := a.execute(ctx, cmd, fs.Args()[1:]); err != nil {
		fmt.Fprintln(stderr, a.describe(err))
		return exitCode(err)
	}
	return 0
}

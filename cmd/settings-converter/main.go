package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"settings-converter/internal/apply"
	"settings-converter/internal/config"
	"settings-converter/internal/history"
	"settings-converter/internal/logger"
	"settings-converter/internal/profile"
	"settings-converter/internal/report"
	"settings-converter/internal/scerrors"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var log = logger.Named("main")

func main() {
	restore := enableANSI(os.Stdout)
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	restore()
	os.Exit(code)
}

// enableANSI turns on escape sequence handling for Windows consoles. It is a
// no-op for writers that are not files and on other platforms.
func enableANSI(w io.Writer) func() {
	f, ok := w.(*os.File)
	if !ok {
		return func() {}
	}
	restoreConsole, err := termenv.EnableVirtualTerminalProcessing(termenv.NewOutput(f))
	if err != nil {
		log.Debugf("enable virtual terminal processing: %v", err)
		return func() {}
	}
	return func() {
		if err := restoreConsole(); err != nil {
			log.Debugf("restore console mode: %v", err)
		}
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	cli, err := parseArgs(args, stderr, profile.Default().Usage())
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	if err := logger.Configure(cfg.LogLevel); err != nil {
		fmt.Fprintf(stderr, "error: log_level: %v\n", err)
		return exitUsage
	}
	if cli.showLast {
		return printLast(cfg, stdout, stderr)
	}

	rules := profile.Default()
	if cfg.RulesFile != "" {
		if rules, err = profile.LoadFile(cfg.RulesFile); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		}
	}
	target, err := rules.Resolve(cli.target)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	mode, err := report.ParseColorMode(cfg.Color)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	if cfg.LogFile != "" {
		closer, err := logger.SetupFile(cfg.LogFile)
		if err != nil {
			log.Warnf("failed to initialize log file (%s): %v", cfg.LogFile, err)
		} else {
			defer closer.Close()
		}
	}

	if cli.saveConfig {
		if err := config.Save(cfg.Source, cfg); err != nil {
			log.Warnf("save config (%s): %v", cfg.Source, err)
		}
	}

	runID := uuid.NewString()
	runLog := logger.Named("apply").WithField("run_id", runID)
	applier := &apply.Applier{
		Rules:     rules,
		Roots:     cfg.InstallRoots,
		Report:    stdout,
		Highlight: report.NewHighlighter(stdout, mode),
		Strict:    cfg.StrictParse,
		Log:       runLog,
	}
	var transcript bytes.Buffer
	if cli.copyReport {
		applier.Transcript = &transcript
	}

	res, runErr := applier.Run(target)
	runLog.WithFields(logger.Fields{
		"processed": len(res.Processed),
		"skipped":   len(res.Skipped),
		"changed":   res.ChangedFields,
		"failed":    len(res.Failures),
	}).Info("run complete")

	recordRun(cfg, history.Entry{
		RunID:   runID,
		Target:  target.String(),
		Changed: res.ChangedFields,
		Failed:  len(res.Failures),
	})

	if cli.copyReport {
		if err := clipboard.WriteAll(transcript.String()); err != nil {
			log.Warnf("copy report to clipboard: %v", err)
		}
	}
	if runErr != nil {
		for _, f := range res.Failures {
			fmt.Fprintf(stderr, "error: %s: %v\n", f.Path, f.Err)
		}
		return exitFailure
	}
	return exitOK
}

func loadConfig(cli cliArgs) (config.Config, error) {
	cfg, err := config.Load(cli.cfgPath)
	if err != nil {
		return cfg, scerrors.New(scerrors.KindConfig, fmt.Errorf("load config: %w", err))
	}
	cfg, err = config.ApplyKVOverrides(cfg, cli.overrides)
	if err != nil {
		return cfg, scerrors.New(scerrors.KindUsage, err)
	}
	if cli.color != "" {
		cfg.Color = cli.color
	}
	if cli.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func recordRun(cfg config.Config, e history.Entry) {
	store, err := history.New(cfg.HistoryFile)
	if err == nil {
		err = store.Append(e)
	}
	if err != nil {
		log.Warnf("record run history: %v", err)
	}
}

func printLast(cfg config.Config, stdout, stderr io.Writer) int {
	store, err := history.New(cfg.HistoryFile)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	last, ok, err := store.Last()
	if err != nil {
		fmt.Fprintf(stderr, "error: read history: %v\n", err)
		return exitFailure
	}
	if !ok {
		fmt.Fprintln(stdout, "no conversions recorded")
		return exitOK
	}
	fmt.Fprintf(stdout, "last target: %s (%d field(s) changed, %d failure(s), %s)\n",
		last.Target, last.Changed, last.Failed, last.TS.Local().Format(time.RFC3339))
	return exitOK
}

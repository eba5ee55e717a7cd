package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/profwatch/profwatch/pkg/baseline"
	"github.com/profwatch/profwatch/pkg/config"
	"github.com/profwatch/profwatch/pkg/metrics"
	"github.com/profwatch/profwatch/pkg/overhead"
	"github.com/profwatch/profwatch/pkg/profiler"
	"github.com/profwatch/profwatch/pkg/report"
	"github.com/profwatch/profwatch/pkg/sampler"
)

type runOptions struct {
	configPath   string
	interval     time.Duration
	dense        bool
	format       string
	sourceRoot   string
	useProcfs    bool
	showOverhead bool
	saveBaseline string
	compareWith  string
	baselineDir  string
	logLevel     string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Spawn a command and profile its resource usage",
		Long: `Run spawns the target command as a subprocess and samples its CPU and
resident memory on every tick. Function-level attribution comes from the
instrumentation hook, which is available to programs embedding the profwatch
library; a plain subprocess is reported against the <main> sentinel.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTarget(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ~/.profwatch.yaml)")
	cmd.Flags().DurationVar(&opts.interval, "interval", sampler.DefaultInterval, "sampling interval")
	cmd.Flags().BoolVar(&opts.dense, "dense", false, "sample every 50ms for finer granularity")
	cmd.Flags().StringVar(&opts.format, "format", string(report.FormatTable), "output format: table, json, tsv")
	cmd.Flags().StringVar(&opts.sourceRoot, "source-root", "", "target source tree for function filtering (default cwd)")
	cmd.Flags().BoolVar(&opts.useProcfs, "procfs", false, "read metrics from /proc directly (linux only)")
	cmd.Flags().BoolVar(&opts.showOverhead, "show-overhead", false, "report the profiler's own cost after the run")
	cmd.Flags().StringVar(&opts.saveBaseline, "save-baseline", "", "save the run's summaries under this baseline name")
	cmd.Flags().StringVar(&opts.compareWith, "compare", "", "compare the run against a saved baseline")
	cmd.Flags().StringVar(&opts.baselineDir, "baseline-dir", "", "baseline storage directory")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	return cmd
}

// mergeConfig fills in options the user did not set on the command line from
// the config file.
func mergeConfig(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("interval") && cfg.Interval > 0 {
		opts.interval = time.Duration(cfg.Interval)
	}
	if !flags.Changed("dense") && cfg.Dense {
		opts.dense = true
	}
	if !flags.Changed("format") && cfg.Format != "" {
		opts.format = cfg.Format
	}
	if !flags.Changed("source-root") && cfg.SourceRoot != "" {
		opts.sourceRoot = cfg.SourceRoot
	}
	if !flags.Changed("baseline-dir") && cfg.BaselineDir != "" {
		opts.baselineDir = cfg.BaselineDir
	}
	if !flags.Changed("log-level") && cfg.LogLevel != "" {
		opts.logLevel = cfg.LogLevel
	}
	return nil
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.WarnLevel
	}
	logger.SetLevel(parsed)
	return logger
}

func runTarget(cmd *cobra.Command, args []string, opts runOptions) error {
	if err := mergeConfig(cmd, &opts); err != nil {
		return err
	}

	logger := newLogger(opts.logLevel)

	interval := opts.interval
	if opts.dense {
		interval = sampler.DenseInterval
	}

	sourceRoot := opts.sourceRoot
	if sourceRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("cannot determine source root: %w", err)
		}
		sourceRoot = wd
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := exec.Command(args[0], args[1:]...)
	target.Stdin = os.Stdin
	target.Stdout = os.Stdout
	target.Stderr = os.Stderr
	if err := target.Start(); err != nil {
		return fmt.Errorf("cannot start target %q: %w", args[0], err)
	}

	var (
		source metrics.Source
		err    error
	)
	if opts.useProcfs {
		source, err = metrics.NewProcfsSource(target.Process.Pid, "")
	} else {
		source, err = metrics.NewProcessSource(int32(target.Process.Pid))
	}
	if err != nil {
		return err
	}

	reporter, err := report.New(report.Format(opts.format), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	prof, err := profiler.New(profiler.Options{
		SourceRoot: sourceRoot,
		Source:     source,
		Reporter:   reporter,
		Interval:   interval,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	if err := prof.Start(); err != nil {
		return err
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- target.Wait() }()

	var targetErr error
	select {
	case targetErr = <-waitErr:
	case <-ctx.Done():
		logger.Info("interrupted, stopping target")
		_ = target.Process.Signal(syscall.SIGTERM)
		targetErr = <-waitErr
	}

	prof.Stop()

	if opts.showOverhead && report.Format(opts.format) == report.FormatTable {
		usage, ticks := prof.Overhead()
		overhead.Render(cmd.OutOrStdout(), usage, ticks)
	}

	if opts.saveBaseline != "" {
		b := baseline.NewBaseline(opts.saveBaseline, interval, prof.Summaries())
		if err := b.Save(opts.baselineDir); err != nil {
			return err
		}
		logger.WithField("baseline", opts.saveBaseline).Info("baseline saved")
	}

	if opts.compareWith != "" {
		base, err := baseline.Load(opts.compareWith, opts.baselineDir)
		if err != nil {
			return err
		}
		baseline.RenderComparison(cmd.OutOrStdout(), base, baseline.Compare(base, prof.Summaries()))
	}

	if targetErr != nil {
		return fmt.Errorf("target exited with error: %w", targetErr)
	}
	return nil
}

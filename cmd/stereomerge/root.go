package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Skryldev/stereomerge"
	"github.com/Skryldev/stereomerge/infrastructure/storage"
	"github.com/Skryldev/stereomerge/internal/config"
	"github.com/Skryldev/stereomerge/pkg/logger"
	"github.com/Skryldev/stereomerge/pkg/progress"
)

// errPairsFailed makes the process exit non-zero after the summary has
// already been printed.
var errPairsFailed = errors.New("one or more pairs failed")

var errInterrupted = errors.New("interrupted before every pair was merged")

type runFlags struct {
	configPath    string
	extensions    []string
	deleteSources bool
	workers       int
	logLevel      string
	devLog        bool
	noProgress    bool
}

func newRootCommand() *cobra.Command {
	var flags runFlags

	rootCmd := &cobra.Command{
		Use:           "stereomerge <dir>",
		Short:         "Merge .L/.R mono WAV pairs into stereo WAV files",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runMerge(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], cfg, flags.noProgress)
		},
	}

	f := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	f.StringSliceVarP(&flags.extensions, "ext", "e", nil, "Recognized extensions (default from config: .wav)")
	f.BoolVarP(&flags.deleteSources, "delete-sources", "d", true, "Delete the .L/.R files after a successful merge")
	f.IntVarP(&flags.workers, "workers", "w", 0, "Pairs merged concurrently")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.BoolVar(&flags.devLog, "dev-log", false, "Human readable development logging")
	f.BoolVar(&flags.noProgress, "no-progress", false, "Disable the progress bar")

	rootCmd.AddCommand(newConfigCommand(&flags))
	return rootCmd
}

func newConfigCommand(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			out, err := cfg.Sample()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}

// loadConfig reads the config file and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command, flags *runFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("ext") {
		cfg.Extensions = flags.extensions
	}
	if f.Changed("delete-sources") {
		cfg.DeleteSources = flags.deleteSources
	}
	if f.Changed("workers") {
		cfg.Workers = flags.workers
	}
	if f.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if f.Changed("dev-log") {
		cfg.Log.Development = flags.devLog
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runMerge(ctx context.Context, stdout, stderr io.Writer, dir string, cfg config.Config, noProgress bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("source folder not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", abs)
	}

	log, err := logger.NewWithLevel(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	lock, err := storage.LockDir(abs)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	retryCfg := cfg.Retry()
	m, err := stereomerge.New(stereomerge.Config{
		Logger:        log,
		Reporter:      newProgressReporter(stdout, stderr, noProgress),
		Workers:       cfg.Workers,
		Extensions:    cfg.Extensions,
		DeleteSources: cfg.DeleteSources,
		DeleteRetry:   &retryCfg,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	report, err := m.MergeDirectory(ctx, abs)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, renderReport(report))
	if report.Failed > 0 {
		return errPairsFailed
	}
	if report.Skipped > 0 {
		return errInterrupted
	}
	return nil
}

// newProgressReporter draws a bar on an interactive stderr and falls back to
// one line per pair otherwise.
func newProgressReporter(stdout, stderr io.Writer, disabled bool) progress.Reporter {
	if f, ok := stderr.(*os.File); ok && !disabled && isTerminal(f) {
		var bar *progressbar.ProgressBar
		return progress.FuncReporter(func(u progress.Update) {
			if bar == nil {
				bar = progressbar.NewOptions(u.Total,
					progressbar.OptionSetWriter(stderr),
					progressbar.OptionSetDescription("merging"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(u.Processed)
			if u.Processed == u.Total {
				_ = bar.Finish()
			}
		})
	}
	return progress.FuncReporter(func(u progress.Update) {
		fmt.Fprintf(stdout, "[%d/%d] %s\n", u.Processed, u.Total, u.Message)
	})
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

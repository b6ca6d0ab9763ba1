// Package main provides the specgate binary entry point.
// Specgate is a cross-artifact consistency gate: it loads the
// specification, plan, task list, and constitution for a change,
// cross-references them, and reports a PASS/FAIL verdict.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/specgate/config"
	"github.com/c360studio/specgate/gate"
	"github.com/c360studio/specgate/report"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "specgate"
)

// Exit codes: 0 analysis ran and passed, 1 analysis ran and failed,
// 2 analysis could not run (malformed artifact, bad config, panic).
const (
	exitFail      = 1
	exitNoVerdict = 2
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(exitNoVerdict)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var failed *gateFailed
		if errors.As(err, &failed) {
			os.Exit(exitFail)
		}
		os.Exit(exitNoVerdict)
	}
}

// gateFailed signals a completed analysis whose verdict was FAIL. It exists
// so main can distinguish a failed gate (exit 1) from a run that never
// produced a verdict (exit 2).
type gateFailed struct{}

func (*gateFailed) Error() string { return "gate verdict: FAIL" }

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Cross-artifact consistency gate",
		Long: `Specgate analyzes the four artifacts of a spec-driven change —
specification, plan, task list, and constitution — for duplication,
ambiguity, conflicts, coverage gaps, constitution violations, and
dependency cycles, then reports a severity-ranked issue list and a
PASS/FAIL verdict.

A malformed artifact aborts the run; every analysis finding is
reported, never fatal.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(analyzeCmd(&configPath, &logLevel))
	cmd.AddCommand(serveCmd(&configPath, &logLevel))
	cmd.AddCommand(watchCmd(&configPath, &logLevel))
	cmd.AddCommand(initCmd(&logLevel))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func analyzeCmd(configPath, logLevel *string) *cobra.Command {
	var (
		threshold int
		format    string
	)

	cmd := &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Analyze the artifacts in a directory and print the report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			cfg, logger, err := setup(*configPath, *logLevel)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Rules.CoverageThreshold = threshold
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			absDir, err := resolveDir(dir)
			if err != nil {
				return err
			}

			rep, err := gate.NewRunner(cfg, logger).Run(cmd.Context(), absDir)
			if err != nil {
				return err
			}

			switch format {
			case "table":
				fmt.Print(rep.RenderTable())
			case "json":
				out, err := rep.RenderJSON()
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			default:
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}

			if rep.Verdict == report.VerdictFail {
				return &gateFailed{}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&threshold, "threshold", 0, "Coverage threshold override (0-100)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")

	return cmd
}

func serveCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gate as a NATS request/reply service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath, *logLevel)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			svc := gate.NewService(cfg, logger)
			if err := svc.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			logger.Info("Received shutdown signal")

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			return svc.Stop(stopCtx)
		},
	}
}

func watchCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-run the analysis whenever an artifact changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			cfg, logger, err := setup(*configPath, *logLevel)
			if err != nil {
				return err
			}

			absDir, err := resolveDir(dir)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			w, err := gate.NewWatcher(cfg, absDir, logger)
			if err != nil {
				return err
			}
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func initCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default user config file if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.NewLoader(newLogger(*logLevel)).EnsureUserConfig()
		},
	}
}

// newLogger builds the process logger at the requested level and installs it
// as the slog default.
func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// setup configures logging and loads configuration: explicit file if given,
// otherwise project config, user config, defaults.
func setup(configPath, logLevel string) (*config.Config, *slog.Logger, error) {
	logger := newLogger(logLevel)

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.NewLoader(logger).Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, logger, nil
}

func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

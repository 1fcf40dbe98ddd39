// Package main is the docbuild command: validate, render and preview GitBook
// documentation trees.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/docbuild/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docbuild",
	Short: "Validate and render GitBook documentation",
	Long: "docbuild checks a GitBook tree (SUMMARY.md, pages, {% %} directives, links) " +
		"and renders it to a static site.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var flagLogLevel string

// errValidationFailed signals exit code 1 after the report was printed.
var errValidationFailed = errors.New("validation reported errors")

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errValidationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// loadConfig reads the configuration for root and applies global flags.
func loadConfig(root string) (config.Config, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return cfg, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// newLogger builds the process logger. fallback picks the handler when the
// configuration leaves the format unset.
func newLogger(w io.Writer, cfg config.Config, fallback string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	format := cfg.LogFormat
	if format == "" {
		format = fallback
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

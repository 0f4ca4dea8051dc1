// Package cmd implements the viewtree CLI commands.
//
// The root command carries the logging flags. Subcommands load a fixture,
// reconcile it into an in-memory HTML document, and print the result.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-drift/viewtree/pkg/config"
	"github.com/go-drift/viewtree/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "viewtree",
	Short: "Reconcile record fixtures into view trees",
	Long: `viewtree renders a collection view described by a viewtree.yaml
fixture into an HTML document and prints the markup.

Use "viewtree <command> --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
}

// newLogger builds the logger from the global flags and routes engine
// errors through it.
func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid --log-format %q (use text or json)", logFormat)
	}

	logger := slog.New(handler)
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: level <= slog.LevelDebug})
	return logger, nil
}

// fixturePath returns the fixture named in args, or the nearest
// viewtree.yaml.
func fixturePath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	path, err := config.FindFixture()
	if err != nil {
		return "", fmt.Errorf("no fixture given and %w", err)
	}
	return path, nil
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/updatekit/updatekit/internal/issue"
	"github.com/updatekit/updatekit/internal/logging"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	verbose         bool
	configFile      string
	logLevel        string
	logFormat       string
	manifestDirs    []string
	metricsTextfile string
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "updatekit",
		Short: "Inspect and resolve pluggable service providers",
		Long: TitleStyle.Render("updatekit") + SubtitleStyle.Render(" - Inspect and resolve pluggable service providers") + `

updatekit resolves a capability to exactly one provider. Candidates come
from the manifest layer (directories of provider manifests) followed by
the providers compiled into this binary. An override selects a provider
by name; otherwise the provider with the highest version wins.

` + SubtitleStyle.Render("Examples:") + `
  updatekit providers                       List every capability and its candidates
  updatekit resolve <capability>            Select a provider by version
  updatekit resolve <capability> --override console.Handler
  updatekit manifest validate ./manifests   Check a manifest directory
  updatekit config show                     Show current configuration`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.prepare(cmd.Context(), opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output (debug logging and full error chains)")
	flags.StringVar(&opts.configFile, "config", "", "config file (default is $HOME/.config/updatekit/config.cue)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text, json, logfmt")
	flags.StringArrayVar(&opts.manifestDirs, "manifest-dir", nil, "provider manifest directory (repeatable, searched before configured directories)")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after resolving")

	rootCmd.AddCommand(newProvidersCommand(app))
	rootCmd.AddCommand(newResolveCommand(app))
	rootCmd.AddCommand(newManifestCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the CLI against the providers registered in the default
// realm and exits the process with the resulting code.
func Execute() {
	app, err := NewApp(Dependencies{InstallLogger: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInternal)
	}

	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(exitCode(err))
	}
}

// loggingOptions merges flags over configuration; --verbose forces debug.
func loggingOptions(opts *rootOptions, cfgLevel logging.Level, cfgFormat logging.Format) logging.Options {
	out := logging.Options{
		Level:  cfgLevel,
		Format: cfgFormat,
		Prefix: "updatekit",
	}
	if opts.logLevel != "" {
		out.Level = logging.Level(opts.logLevel)
	}
	if opts.logFormat != "" {
		out.Format = logging.Format(opts.logFormat)
	}
	if opts.verbose {
		out.Level = logging.LevelDebug
	}
	return out
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

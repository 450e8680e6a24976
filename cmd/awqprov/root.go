// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"awqprov/internal/config"
	"awqprov/internal/issue"

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

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCfg is the configuration resolved by initRootConfig. Commands
	// should access it through rootConfig().
	rootCfg *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "awqprov",
		Short: "Provision AutoAWQ into CUDA container images",
		Long: TitleStyle.Render("awqprov") + SubtitleStyle.Render(" - AutoAWQ image provisioner") + `

awqprov installs the AutoAWQ quantization library into a CUDA-enabled
base image and commits the result as a reusable tagged image. A prebuilt
wheel install is attempted first; when the wheels do not match the
platform, it falls back to building the library and its CUDA kernels
from source inside the container. Only when both paths fail does the
run fail, and then nothing is tagged.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Make sure podman or docker is available (awqprov doctor)
  2. Provision on top of your inference base image
  3. Use the committed tag in place of the base image

` + SubtitleStyle.Render("Examples:") + `
  awqprov provision --base-image nvcr.io/nvidia/l4t-pytorch:r36.2.0-pth2.1-py3
  awqprov provision --base-image cuda-base:latest --force-build
  awqprov bake --base-image cuda-base:latest --print
  awqprov doctor
  awqprov config show`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/awqprov/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(bakeCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(selfupdateCmd)
	rootCmd.AddCommand(completionCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	cfg, _, err := config.LoadResolved(context.Background(), config.LoadOptions{
		ConfigFilePath: cfgFile,
	})
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	rootCfg = cfg

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}
}

// rootConfig returns the resolved configuration, falling back to defaults
// when loading failed.
func rootConfig() *config.Config {
	if rootCfg != nil {
		return rootCfg
	}
	return config.DefaultConfig()
}

// glamourStyle maps the configured color scheme to a glamour style path.
func glamourStyle(cfg *config.Config) string {
	switch cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}

// printIssue renders a well-known issue card to stderr. Rendering failures
// fall back to the raw markdown so help text is never lost.
func printIssue(id issue.Id) {
	is := issue.Lookup(id)
	if is == nil {
		return
	}
	rendered, err := is.Render(glamourStyle(rootConfig()))
	if err != nil {
		rendered = string(is.MarkdownMsg())
	}
	fmt.Fprint(os.Stderr, rendered)
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

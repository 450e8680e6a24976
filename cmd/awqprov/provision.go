// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"awqprov/internal/config"
	"awqprov/internal/container"
	"awqprov/internal/issue"
	"awqprov/internal/provision"
	"awqprov/pkg/platform"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	provisionFlags             buildFlags
	provisionEngineFlag        string
	provisionForceRebuild      bool
	provisionDryRun            bool
	provisionSkipPlatformCheck bool

	provisionCmd = &cobra.Command{
		Use:   "provision",
		Short: "Install AutoAWQ into a base image and commit the result",
		Long: `Install AutoAWQ into a base image and commit the result.

The prebuilt wheel install is attempted first. If it exits non-zero,
the run falls back to building AutoAWQ and its CUDA kernels from
source inside the container. When both paths fail, nothing is tagged.

Provisioned images are cached: re-running with the same base image,
versions, and compute capabilities reuses the committed tag without
running anything.

Examples:
  awqprov provision --base-image nvcr.io/nvidia/l4t-pytorch:r36.2.0-pth2.1-py3
  awqprov provision --base-image cuda-base:latest --version 0.2.4 --force-build
  awqprov provision --base-image cuda-base:latest --compute-capabilities "8.0;8.6" --dry-run`,
		RunE: runProvision,
	}
)

func init() {
	provisionFlags.register(provisionCmd)
	provisionCmd.Flags().StringVar(&provisionEngineFlag, "engine", "", "container engine to use (podman or docker, default from config)")
	provisionCmd.Flags().BoolVar(&provisionForceRebuild, "force-rebuild", false, "ignore a cached provisioned image and provision again")
	provisionCmd.Flags().BoolVar(&provisionDryRun, "dry-run", false, "print the provisioning plan without running anything")
	provisionCmd.Flags().BoolVar(&provisionSkipPlatformCheck, "skip-platform-check", false, "skip the platform release gate")
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg := rootConfig()

	buildCfg := mergeBuildConfig(cfg.Defaults, provisionFlags)
	buildCfg.ForceRebuild = provisionForceRebuild

	opts := provisionerOptions(cfg)

	if provisionDryRun {
		// The plan never touches the engine, so none is constructed.
		p := provision.NewFallbackProvisioner(nil, opts...)
		plan, err := p.Plan(buildCfg)
		if err != nil {
			return err
		}
		fmt.Print(plan.Render())
		return nil
	}

	if err := checkPlatform(cfg, provisionSkipPlatformCheck); err != nil {
		return err
	}

	engine, err := resolveEngine(provisionEngineFlag, cfg)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	p := provision.NewFallbackProvisioner(engine, opts...)
	result, err := p.Provision(cmd.Context(), buildCfg)
	if err != nil {
		return provisionError(err)
	}

	if result.Cached {
		fmt.Printf("%s Reusing cached image %s\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(string(result.ImageTag)))
		return nil
	}

	fmt.Printf("%s Provisioned %s via %s path\n",
		SuccessStyle.Render("✓"), CmdStyle.Render(string(result.ImageTag)), result.Path)
	return nil
}

// provisionerOptions builds provisioner options from configuration. Verbose
// mode lowers the progress logger to debug level.
func provisionerOptions(cfg *config.Config) []provision.Option {
	opts := []provision.Option{
		provision.WithTagPrefix(string(cfg.Provision.TagPrefix)),
	}
	if cfg.Provision.CacheDir != "" {
		opts = append(opts, provision.WithCacheDir(string(cfg.Provision.CacheDir)))
	}
	if verbose {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "provision",
			Level:  log.DebugLevel,
		})
		opts = append(opts, provision.WithLogger(logger))
	}
	return opts
}

// provisionError maps provisioning failures to user-facing output and exit
// codes. A both-paths failure exits with the build path's script exit code
// when one is available.
func provisionError(err error) error {
	var failed *provision.ProvisionFailedError
	if errors.As(err, &failed) {
		printIssue(issue.ProvisionFailedId)

		code := container.ExitCode(1)
		var pathErr *provision.PathError
		if errors.As(failed.BuildErr, &pathErr) && pathErr.ExitCode != 0 {
			code = pathErr.ExitCode
		}
		return &ExitError{Code: code, Err: err}
	}

	if errors.Is(err, provision.ErrBaseImageUnresolvable) {
		printIssue(issue.BaseImageUnresolvableId)
		return &ExitError{Code: 1, Err: err}
	}

	if errors.Is(err, provision.ErrScriptStaging) {
		printIssue(issue.ScriptStagingFailedId)
		return &ExitError{Code: 1, Err: err}
	}

	return err
}

// checkPlatform runs the platform release gate. The gate belongs to the
// surrounding pipeline, so failures only warn unless provision.strict is set.
func checkPlatform(cfg *config.Config, skip bool) error {
	if skip {
		return nil
	}

	release, err := platform.DetectRelease(cfg.Platform.ReleaseFile)
	if err == nil {
		err = platform.CheckRelease(release, cfg.Platform.MinRelease)
	}
	if err == nil {
		return nil
	}

	if cfg.Provision.Strict {
		if errors.Is(err, platform.ErrReleaseUnsupported) {
			printIssue(issue.PlatformUnsupportedId)
		}
		return issue.NewErrorContext().
			WithOperation("check platform release").
			WithSuggestion("Re-run with --skip-platform-check to bypass the gate").
			WithSuggestion("Set " + platform.ReleaseEnvVar + " when provisioning for a different target").
			Wrap(err).
			BuildError()
	}

	fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error()+" (continuing; set provision.strict to make this fatal)")
	return nil
}

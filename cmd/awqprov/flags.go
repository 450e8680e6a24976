// SPDX-License-Identifier: MPL-2.0

package main

import (
	"awqprov/internal/config"
	"awqprov/internal/container"
	"awqprov/internal/issue"
	"awqprov/internal/provision"

	"github.com/spf13/cobra"
)

// buildFlags holds the per-run build parameters shared by the provision and
// bake commands. Unset flags fall back to configured defaults.
type buildFlags struct {
	baseImage           string
	version             string
	kernelsVersion      string
	computeCapabilities string
	tag                 string
	forceBuild          bool
}

// register binds the build parameter flags onto a command.
func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.baseImage, "base-image", "", "base image to provision on top of (required)")
	cmd.Flags().StringVar(&f.version, "version", "", "AutoAWQ version tag (default from config)")
	cmd.Flags().StringVar(&f.kernelsVersion, "kernels-version", "", "AutoAWQ kernels version tag (default from config)")
	cmd.Flags().StringVar(&f.computeCapabilities, "compute-capabilities", "", "target GPU compute capabilities, e.g. \"8.7\" or \"8.0;8.6\"")
	cmd.Flags().StringVar(&f.tag, "tag", "", "tag for the provisioned image (default derived from the cache key)")
	cmd.Flags().BoolVar(&f.forceBuild, "force-build", false, "skip the prebuilt install and build from source")

	_ = cmd.MarkFlagRequired("base-image") //nolint:errcheck // flag is registered above
}

// mergeBuildConfig combines flag values with configured defaults into a
// per-run build configuration. Flags win over defaults.
func mergeBuildConfig(defaults config.DefaultsConfig, f buildFlags) provision.BuildConfig {
	cfg := provision.BuildConfig{
		BaseImage:           container.ImageTag(f.baseImage),
		Version:             f.version,
		KernelsVersion:      f.kernelsVersion,
		ComputeCapabilities: defaults.ComputeCapabilities,
		ForceBuild:          f.forceBuild,
		TagOverride:         container.ImageTag(f.tag),
	}
	if cfg.Version == "" {
		cfg.Version = defaults.AutoAWQVersion
	}
	if cfg.KernelsVersion == "" {
		cfg.KernelsVersion = defaults.KernelsVersion
	}
	if f.computeCapabilities != "" {
		cfg.ComputeCapabilities = provision.ParseComputeCapabilities(f.computeCapabilities)
	}
	return cfg
}

// resolveEngine picks the container engine: an explicit --engine flag wins,
// otherwise the configured preference is used with cross-engine fallback.
func resolveEngine(engineFlag string, cfg *config.Config) (container.Engine, error) {
	preferred := container.EngineType(cfg.ContainerEngine)
	if engineFlag != "" {
		preferred = container.EngineType(engineFlag)
	}

	engine, err := container.NewEngine(preferred)
	if err != nil {
		printIssue(issue.EngineNotFoundId)
		return nil, err
	}
	return engine, nil
}

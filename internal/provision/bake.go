// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"awqprov/internal/container"
)

// BakeOptions configures a bake run.
type BakeOptions struct {
	// Tag is the tag for the baked image. When empty, the cache-derived
	// provisioned tag is used.
	Tag container.ImageTag
	// NoCache disables the engine's build cache.
	NoCache bool
}

// GenerateDockerfile renders the provisioning recipe as a standalone
// Dockerfile whose single RUN instruction carries the install-or-build
// fallback. Version parameters arrive as build args so a baked context can be
// rebuilt with different pins.
func GenerateDockerfile(cfg BuildConfig) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "FROM %s\n\n", cfg.BaseImage)

	forceBuild := "off"
	if cfg.ForceBuild {
		forceBuild = "on"
	}

	fmt.Fprintf(&sb, "ARG AUTOAWQ_VERSION=%q\n", cfg.Version)
	fmt.Fprintf(&sb, "ARG AUTOAWQ_KERNELS_VERSION=%q\n", cfg.KernelsVersion)
	fmt.Fprintf(&sb, "ARG TORCH_CUDA_ARCH_LIST=%q\n", TorchCUDAArchList(cfg.ComputeCapabilities))
	fmt.Fprintf(&sb, "ARG FORCE_BUILD=%q\n\n", forceBuild)

	sb.WriteString("ENV AUTOAWQ_VERSION=${AUTOAWQ_VERSION} \\\n")
	sb.WriteString("    AUTOAWQ_KERNELS_VERSION=${AUTOAWQ_KERNELS_VERSION} \\\n")
	sb.WriteString("    TORCH_CUDA_ARCH_LIST=${TORCH_CUDA_ARCH_LIST}\n\n")

	mount := string(ScriptMountPath)
	fmt.Fprintf(&sb, "COPY %s %s %s/\n\n", InstallScriptName, BuildScriptName, mount)

	fmt.Fprintf(&sb, "RUN chmod +x %s/%s %s/%s \\\n", mount, InstallScriptName, mount, BuildScriptName)
	fmt.Fprintf(&sb, " && (%s/%s || %s/%s)\n", mount, InstallScriptName, mount, BuildScriptName)

	return sb.String()
}

// Bake builds the provisioning recipe as a regular container image build:
// staged scripts plus a generated Dockerfile, handed to engine.Build. Unlike
// Provision, the fallback runs inside the image build, so only the combined
// outcome is observable.
func (p *FallbackProvisioner) Bake(ctx context.Context, cfg BuildConfig, opts BakeOptions) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tag := opts.Tag
	if tag == "" {
		var err error
		tag, err = p.ProvisionedTag(cfg)
		if err != nil {
			return nil, err
		}
	}

	contextDir, cleanup, err := StageScripts(p.cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	dockerfilePath := filepath.Join(contextDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(GenerateDockerfile(cfg)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	p.cfg.Logger.Info("baking provisioned image", "base", cfg.BaseImage, "tag", tag)

	err = p.engine.Build(ctx, container.BuildOptions{
		ContextDir: container.HostFilesystemPath(contextDir),
		Dockerfile: "Dockerfile",
		Tag:        tag,
		NoCache:    opts.NoCache,
		BuildArgs: map[string]string{
			"AUTOAWQ_VERSION":         cfg.Version,
			"AUTOAWQ_KERNELS_VERSION": cfg.KernelsVersion,
			"TORCH_CUDA_ARCH_LIST":    TorchCUDAArchList(cfg.ComputeCapabilities),
		},
		Stdout: p.cfg.Output,
		Stderr: p.cfg.Output,
	})
	if err != nil {
		return nil, &ProvisionFailedError{BuildErr: err}
	}

	return &Result{ImageTag: tag, Path: PathBuild}, nil
}

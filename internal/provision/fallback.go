// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"

	"awqprov/internal/container"
	"awqprov/internal/issue"
)

// Compile-time interface check
var _ Provisioner = (*FallbackProvisioner)(nil)

// FallbackProvisioner runs the install-or-build state machine against a
// container engine:
//
//	Start → TryInstall → Success
//	                   ↘ TryBuild → Success
//	                              ↘ Fail
//
// Each path is attempted at most once. An install failure is swallowed and
// logged; a build failure after it surfaces as ProvisionFailedError. With
// ForceBuild the install path is never attempted.
type FallbackProvisioner struct {
	engine container.Engine
	cfg    *Config
}

// NewFallbackProvisioner creates a FallbackProvisioner on the given engine.
func NewFallbackProvisioner(engine container.Engine, opts ...Option) *FallbackProvisioner {
	cfg := DefaultProvisionerConfig()
	cfg.Apply(opts...)
	return &FallbackProvisioner{
		engine: engine,
		cfg:    cfg,
	}
}

// Config returns the provisioner's configuration.
func (p *FallbackProvisioner) Config() *Config {
	return p.cfg
}

// Provision runs the fallback state machine for the given build
// configuration. On success the committed image tag is returned; on failure
// nothing is tagged and intermediate containers are removed.
func (p *FallbackProvisioner) Provision(ctx context.Context, cfg BuildConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The base image must be resolvable before any install/build step runs.
	if err := p.resolveBaseImage(ctx, cfg.BaseImage); err != nil {
		return nil, err
	}

	tag, err := p.ProvisionedTag(cfg)
	if err != nil {
		return nil, err
	}

	if !cfg.ForceRebuild {
		exists, _ := p.engine.ImageExists(ctx, tag) //nolint:errcheck // Error treated as "not found"
		if exists {
			p.cfg.Logger.Info("reusing cached provisioned image", "tag", tag)
			return &Result{ImageTag: tag, Path: PathCached, Cached: true}, nil
		}
	}

	stagingDir, cleanup, err := StageScripts(p.cfg.CacheDir)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("stage provisioning scripts").
			WithResource(stagingDir).
			WithSuggestion("Check that the home or temp directory is writable").
			Wrap(fmt.Errorf("%w: %v", ErrScriptStaging, err)).
			BuildError()
	}
	defer cleanup()

	env := scriptEnv(cfg)

	var installErr error
	if cfg.ForceBuild {
		p.cfg.Logger.Info("force-build set, skipping prebuilt install path")
	} else {
		result, err := p.runPath(ctx, PathInstall, cfg.BaseImage, stagingDir, env)
		switch {
		case err != nil:
			installErr = &PathError{Path: PathInstall, Cause: err}
		case result.ExitCode.IsSuccess():
			return p.commit(ctx, result.ContainerID, tag, cfg, PathInstall)
		default:
			installErr = &PathError{Path: PathInstall, ExitCode: result.ExitCode}
			p.removeContainer(ctx, result.ContainerID)
		}
		p.cfg.Logger.Warn("install path failed, falling back to source build",
			"base", cfg.BaseImage, "version", cfg.Version, "err", installErr)
	}

	result, err := p.runPath(ctx, PathBuild, cfg.BaseImage, stagingDir, env)
	switch {
	case err != nil:
		return nil, &ProvisionFailedError{
			InstallErr: installErr,
			BuildErr:   &PathError{Path: PathBuild, Cause: err},
		}
	case result.ExitCode.IsSuccess():
		return p.commit(ctx, result.ContainerID, tag, cfg, PathBuild)
	default:
		p.removeContainer(ctx, result.ContainerID)
		return nil, &ProvisionFailedError{
			InstallErr: installErr,
			BuildErr:   &PathError{Path: PathBuild, ExitCode: result.ExitCode},
		}
	}
}

// ProvisionedTag returns the tag a provisioning run with this configuration
// would commit, without running anything. Useful for cache inspection.
func (p *FallbackProvisioner) ProvisionedTag(cfg BuildConfig) (container.ImageTag, error) {
	if cfg.TagOverride != "" {
		return cfg.TagOverride, nil
	}

	key, err := p.cacheKey(cfg)
	if err != nil {
		return "", err
	}

	if p.cfg.TagSuffix != "" {
		return container.ImageTag(fmt.Sprintf("%s:%s-%s", p.cfg.TagPrefix, key[:12], p.cfg.TagSuffix)), nil
	}
	return container.ImageTag(fmt.Sprintf("%s:%s", p.cfg.TagPrefix, key[:12])), nil
}

// IsImageProvisioned checks whether a provisioned image for this
// configuration already exists in the engine's local store.
func (p *FallbackProvisioner) IsImageProvisioned(ctx context.Context, cfg BuildConfig) (bool, error) {
	tag, err := p.ProvisionedTag(cfg)
	if err != nil {
		return false, err
	}
	return p.engine.ImageExists(ctx, tag)
}

// resolveBaseImage makes the base image locally available, pulling it when
// absent.
func (p *FallbackProvisioner) resolveBaseImage(ctx context.Context, base container.ImageTag) error {
	exists, err := p.engine.ImageExists(ctx, base)
	if err == nil && exists {
		return nil
	}

	p.cfg.Logger.Info("pulling base image", "image", base)
	if err := p.engine.Pull(ctx, base, p.cfg.Output); err != nil {
		return issue.NewErrorContext().
			WithOperation("resolve base image").
			WithResource(string(base)).
			WithSuggestion("Check the image reference for typos").
			WithSuggestion("Verify the image exists in the registry and credentials are configured").
			Wrap(fmt.Errorf("%w: %v", ErrBaseImageUnresolvable, err)).
			BuildError()
	}
	return nil
}

// cacheKey derives the content key for a provisioning run: base image
// reference (normalized), version parameters, target architectures, and the
// embedded helper scripts.
func (p *FallbackProvisioner) cacheKey(cfg BuildConfig) (string, error) {
	baseRef, err := cfg.NormalizedBaseRef()
	if err != nil {
		return "", fmt.Errorf("failed to normalize base image reference: %w", err)
	}

	scriptDigest, err := combinedScriptDigest()
	if err != nil {
		return "", err
	}

	h := sha256.New()
	fmt.Fprintf(h, "image:%s\n", baseRef)
	fmt.Fprintf(h, "version:%s\n", cfg.Version)
	fmt.Fprintf(h, "kernels:%s\n", cfg.KernelsVersion)
	fmt.Fprintf(h, "arch:%s\n", TorchCUDAArchList(cfg.ComputeCapabilities))
	fmt.Fprintf(h, "scripts:%s\n", scriptDigest)

	return digest.NewDigest(digest.SHA256, h).Encoded(), nil
}

// scriptEnv builds the environment the helper scripts consume.
func scriptEnv(cfg BuildConfig) map[string]string {
	env := map[string]string{
		"AUTOAWQ_VERSION": cfg.Version,
	}
	if cfg.KernelsVersion != "" {
		env["AUTOAWQ_KERNELS_VERSION"] = cfg.KernelsVersion
	}
	if len(cfg.ComputeCapabilities) > 0 {
		env["TORCH_CUDA_ARCH_LIST"] = TorchCUDAArchList(cfg.ComputeCapabilities)
	}
	if cfg.ForceBuild {
		env["FORCE_BUILD"] = "on"
	}
	return env
}

// runPath runs one provisioning path's helper script in a container from the
// base image. The container is kept (not --rm) so a successful run can be
// committed; failure paths remove it explicitly.
func (p *FallbackProvisioner) runPath(
	ctx context.Context,
	path Path,
	base container.ImageTag,
	stagingDir string,
	env map[string]string,
) (*container.RunResult, error) {
	script := InstallScriptName
	if path == PathBuild {
		script = BuildScriptName
	}

	containerName := container.ContainerID(fmt.Sprintf("awqprov-%s-%s", path, uuid.NewString()[:8]))

	p.cfg.Logger.Info("running provisioning path", "path", path, "base", base, "container", containerName)

	result, err := p.engine.Run(ctx, container.RunOptions{
		Image:   base,
		Command: []string{"/bin/bash", string(ScriptMountPath) + "/" + script},
		Name:    containerName,
		Env:     env,
		Volumes: []container.VolumeMount{
			{
				HostPath:      container.HostFilesystemPath(stagingDir),
				ContainerPath: ScriptMountPath,
				ReadOnly:      true,
			},
		},
		Stdout: p.cfg.Output,
		Stderr: p.cfg.Output,
	})
	if err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return result, nil
}

// commit snapshots the succeeded container into the provisioned tag and
// removes the container.
func (p *FallbackProvisioner) commit(
	ctx context.Context,
	containerID container.ContainerID,
	tag container.ImageTag,
	cfg BuildConfig,
	path Path,
) (*Result, error) {
	err := p.engine.Commit(ctx, container.CommitOptions{
		Container: containerID,
		Tag:       tag,
		Message:   fmt.Sprintf("autoawq %s via %s path", cfg.Version, path),
		Changes: []string{
			fmt.Sprintf("LABEL org.awqprov.version=%q", cfg.Version),
			fmt.Sprintf("LABEL org.awqprov.path=%q", path),
		},
	})
	if err != nil {
		p.removeContainer(ctx, containerID)
		return nil, err
	}

	p.removeContainer(ctx, containerID)
	p.cfg.Logger.Info("provisioned image committed", "tag", tag, "path", path)

	return &Result{ImageTag: tag, Path: path}, nil
}

// removeContainer force-removes an intermediate container, logging failures
// instead of surfacing them.
func (p *FallbackProvisioner) removeContainer(ctx context.Context, id container.ContainerID) {
	if id == "" {
		return
	}
	if err := p.engine.Remove(ctx, id, true); err != nil {
		p.cfg.Logger.Debug("failed to remove intermediate container", "container", id, "err", err)
	}
}

// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"testing"

	"awqprov/internal/config"
	"awqprov/internal/provision"
	"awqprov/pkg/platform"
)

func TestProvisionErrorUsesBuildExitCode(t *testing.T) {
	failure := &provision.ProvisionFailedError{
		InstallErr: &provision.PathError{Path: provision.PathInstall, ExitCode: 1},
		BuildErr:   &provision.PathError{Path: provision.PathBuild, ExitCode: 42},
	}

	err := provisionError(failure)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %T, want *ExitError", err)
	}
	if exitErr.Code != 42 {
		t.Errorf("Code = %d, want the build path's exit code 42", exitErr.Code)
	}
	if !errors.Is(err, provision.ErrProvisionFailed) {
		t.Error("error should still match ErrProvisionFailed")
	}
}

func TestProvisionErrorDefaultsToOne(t *testing.T) {
	failure := &provision.ProvisionFailedError{
		BuildErr: &provision.PathError{Path: provision.PathBuild, Cause: errors.New("engine gone")},
	}

	err := provisionError(failure)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %T, want *ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("Code = %d, want 1 when no script exit code is available", exitErr.Code)
	}
}

func TestProvisionErrorMapsStagingFailure(t *testing.T) {
	staging := fmt.Errorf("%w: permission denied", provision.ErrScriptStaging)

	err := provisionError(staging)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %T, want *ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("Code = %d, want 1", exitErr.Code)
	}
	if !errors.Is(err, provision.ErrScriptStaging) {
		t.Error("error should still match ErrScriptStaging")
	}
}

func TestProvisionErrorPassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("validation failed")
	if got := provisionError(plain); got != plain {
		t.Errorf("provisionError() = %v, want the error unchanged", got)
	}
}

func TestProvisionerOptionsWireCacheDir(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provision.CacheDir = "/var/cache/awqprov"

	p := provision.NewFallbackProvisioner(nil, provisionerOptions(cfg)...)
	if p.Config().CacheDir != "/var/cache/awqprov" {
		t.Errorf("CacheDir = %q, want the configured cache dir", p.Config().CacheDir)
	}
}

func TestCheckPlatformSkip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Platform.ReleaseFile = "/nonexistent/nv_tegra_release"
	cfg.Provision.Strict = true

	if err := checkPlatform(cfg, true); err != nil {
		t.Errorf("checkPlatform() with skip should pass: %v", err)
	}
}

func TestCheckPlatformWarnsWhenNotStrict(t *testing.T) {
	t.Setenv(platform.ReleaseEnvVar, "35.4.1")

	cfg := config.DefaultConfig()
	cfg.Provision.Strict = false

	if err := checkPlatform(cfg, false); err != nil {
		t.Errorf("non-strict gate should only warn: %v", err)
	}
}

func TestCheckPlatformStrictFailsOnOldRelease(t *testing.T) {
	t.Setenv(platform.ReleaseEnvVar, "35.4.1")

	cfg := config.DefaultConfig()
	cfg.Provision.Strict = true

	err := checkPlatform(cfg, false)
	if !errors.Is(err, platform.ErrReleaseUnsupported) {
		t.Errorf("error = %v, want ErrReleaseUnsupported", err)
	}
}

func TestCheckPlatformStrictPassesOnSupportedRelease(t *testing.T) {
	t.Setenv(platform.ReleaseEnvVar, "36.4.3")

	cfg := config.DefaultConfig()
	cfg.Provision.Strict = true

	if err := checkPlatform(cfg, false); err != nil {
		t.Errorf("supported release should pass the gate: %v", err)
	}
}

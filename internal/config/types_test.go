// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestContainerEngineIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		engine ContainerEngine
		want   bool
	}{
		{name: "podman", engine: ContainerEnginePodman, want: true},
		{name: "docker", engine: ContainerEngineDocker, want: true},
		{name: "empty", engine: "", want: false},
		{name: "unknown", engine: "containerd", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			valid, errs := tt.engine.IsValid()
			if valid != tt.want {
				t.Errorf("IsValid() = %v, want %v", valid, tt.want)
			}
			if !tt.want && !errors.Is(errs[0], ErrInvalidContainerEngine) {
				t.Errorf("error should wrap ErrInvalidContainerEngine, got %v", errs[0])
			}
		})
	}
}

func TestTagPrefixIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix TagPrefix
		want   bool
	}{
		{name: "simple", prefix: "awqprov-autoawq", want: true},
		{name: "with registry path", prefix: "ghcr.io/org/awq", want: true},
		{name: "empty", prefix: "", want: false},
		{name: "contains colon", prefix: "awq:latest", want: false},
		{name: "contains space", prefix: "awq prov", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			valid, errs := tt.prefix.IsValid()
			if valid != tt.want {
				t.Errorf("IsValid() = %v, want %v", valid, tt.want)
			}
			if !tt.want && !errors.Is(errs[0], ErrInvalidTagPrefix) {
				t.Errorf("error should wrap ErrInvalidTagPrefix, got %v", errs[0])
			}
		})
	}
}

func TestCacheDirPathIsValid(t *testing.T) {
	t.Parallel()

	if valid, _ := CacheDirPath("").IsValid(); !valid {
		t.Error("zero value should be valid (means default cache dir)")
	}
	if valid, _ := CacheDirPath("/var/cache/awqprov").IsValid(); !valid {
		t.Error("absolute path should be valid")
	}
	if valid, errs := CacheDirPath("   ").IsValid(); valid {
		t.Error("whitespace-only path should be invalid")
	} else if !errors.Is(errs[0], ErrInvalidCacheDirPath) {
		t.Errorf("error should wrap ErrInvalidCacheDirPath, got %v", errs[0])
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if valid, errs := cfg.IsValid(); !valid {
		t.Fatalf("DefaultConfig() must be valid, got %v", errs)
	}
	if cfg.ContainerEngine != ContainerEnginePodman {
		t.Errorf("ContainerEngine = %q, want podman", cfg.ContainerEngine)
	}
	if cfg.Platform.MinRelease != ">=36" {
		t.Errorf("Platform.MinRelease = %q, want >=36", cfg.Platform.MinRelease)
	}
	if cfg.Provision.Strict {
		t.Error("Provision.Strict should default to false")
	}
}

func TestConfigIsValidCollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ContainerEngine = "lxc"
	cfg.Provision.TagPrefix = ""
	cfg.Platform.MinRelease = ""

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("IsValid() = true for broken config")
	}

	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("error should be *InvalidConfigError, got %T", errs[0])
	}
	if len(cfgErr.FieldErrors) != 3 {
		t.Errorf("FieldErrors = %d, want 3", len(cfgErr.FieldErrors))
	}
	if !errors.Is(errs[0], ErrInvalidConfig) {
		t.Error("error should wrap ErrInvalidConfig")
	}
}

func TestDefaultsConfigRejectsEmptyCapability(t *testing.T) {
	t.Parallel()

	d := DefaultsConfig{ComputeCapabilities: []string{"8.7", " "}}
	valid, errs := d.IsValid()
	if valid {
		t.Fatal("IsValid() = true for blank capability entry")
	}
	if !errors.Is(errs[0], ErrInvalidDefaultsConfig) {
		t.Errorf("error should wrap ErrInvalidDefaultsConfig, got %v", errs[0])
	}
}

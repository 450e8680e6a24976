// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfigFile writes content as config.cue in a temp config dir and
// returns the directory path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return dir
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, resolvedPath, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigDirPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if resolvedPath != "" {
		t.Errorf("resolvedPath = %q, want empty (no file)", resolvedPath)
	}
	if cfg.ContainerEngine != ContainerEnginePodman {
		t.Errorf("ContainerEngine = %q, want default podman", cfg.ContainerEngine)
	}
	if cfg.Provision.TagPrefix != "awqprov-autoawq" {
		t.Errorf("TagPrefix = %q, want default awqprov-autoawq", cfg.Provision.TagPrefix)
	}
}

func TestLoadMergesConfigFile(t *testing.T) {
	dir := writeConfigFile(t, `
container_engine: "docker"
defaults: {
	autoawq_version: "0.2.6"
	compute_capabilities: ["8.0", "8.6"]
}
provision: {
	strict: true
}
`)

	cfg, resolvedPath, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if resolvedPath == "" {
		t.Error("resolvedPath should name the loaded file")
	}
	if cfg.ContainerEngine != ContainerEngineDocker {
		t.Errorf("ContainerEngine = %q, want docker", cfg.ContainerEngine)
	}
	if cfg.Defaults.AutoAWQVersion != "0.2.6" {
		t.Errorf("AutoAWQVersion = %q, want 0.2.6", cfg.Defaults.AutoAWQVersion)
	}
	if len(cfg.Defaults.ComputeCapabilities) != 2 {
		t.Errorf("ComputeCapabilities = %v, want 2 entries", cfg.Defaults.ComputeCapabilities)
	}
	if !cfg.Provision.Strict {
		t.Error("Provision.Strict = false, want true from file")
	}
	// Fields the file does not set keep their defaults.
	if cfg.Defaults.KernelsVersion != "0.0.9" {
		t.Errorf("KernelsVersion = %q, want default 0.0.9", cfg.Defaults.KernelsVersion)
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	dir := writeConfigFile(t, `container_engine: "lxc"`)

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err == nil {
		t.Fatal("loadWithOptions() expected error for engine outside schema")
	}
	if !strings.Contains(err.Error(), "container_engine") {
		t.Errorf("error should name the invalid field: %v", err)
	}
}

func TestLoadRejectsMalformedCUE(t *testing.T) {
	dir := writeConfigFile(t, `container_engine: "`)

	if _, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir}); err == nil {
		t.Fatal("loadWithOptions() expected error for malformed CUE")
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.cue")
	if err := os.WriteFile(path, []byte(`ui: verbose: true`), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, resolvedPath, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if resolvedPath != path {
		t.Errorf("resolvedPath = %q, want %q", resolvedPath, path)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true from file")
	}
}

func TestLoadExplicitConfigFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.cue")

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: missing})
	if err == nil {
		t.Fatal("loadWithOptions() expected error for missing explicit file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want config file not found", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AWQPROV_CONTAINER_ENGINE", "docker")

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if cfg.ContainerEngine != ContainerEngineDocker {
		t.Errorf("ContainerEngine = %q, want docker from env", cfg.ContainerEngine)
	}
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := loadWithOptions(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); err == nil {
		t.Fatal("loadWithOptions() expected error for canceled context")
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContainerEngine = ContainerEngineDocker
	cfg.Provision.Strict = true

	dir := writeConfigFile(t, GenerateCUE(cfg))

	loaded, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated CUE failed to load: %v", err)
	}
	if loaded.ContainerEngine != ContainerEngineDocker {
		t.Errorf("ContainerEngine = %q, want docker", loaded.ContainerEngine)
	}
	if !loaded.Provision.Strict {
		t.Error("Provision.Strict = false, want true")
	}
}

func TestConfigDirOverride(t *testing.T) {
	t.Cleanup(Reset)

	SetConfigDirOverride("/custom/config/dir")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != "/custom/config/dir" {
		t.Errorf("ConfigDir() = %q, want override", dir)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride(filepath.Join(t.TempDir(), "awqprov"))

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}

	// Second call is a no-op on the existing file.
	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() second call error = %v", err)
	}

	dir, _ := ConfigDir()
	if _, err := os.Stat(filepath.Join(dir, "config.cue")); err != nil {
		t.Errorf("config.cue not created: %v", err)
	}
}

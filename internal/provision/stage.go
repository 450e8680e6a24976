// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
	"mvdan.cc/sh/v3/syntax"

	"awqprov/internal/container"
	"awqprov/pkg/platform"
)

const (
	// InstallScriptName is the convention name of the prebuilt install helper.
	InstallScriptName = "install.sh"
	// BuildScriptName is the convention name of the source build helper.
	BuildScriptName = "build.sh"

	// ScriptMountPath is where staged helper scripts appear inside the
	// container.
	ScriptMountPath container.MountTargetPath = "/opt/awqprov"
)

//go:embed scripts/install.sh scripts/build.sh
var scriptsFS embed.FS

// scriptNames returns the helper script names in deterministic order.
func scriptNames() []string {
	return []string{InstallScriptName, BuildScriptName}
}

// readScript returns the embedded content of the named helper script.
func readScript(name string) ([]byte, error) {
	data, err := scriptsFS.ReadFile("scripts/" + name)
	if err != nil {
		return nil, fmt.Errorf("internal error: embedded script %s: %w", name, err)
	}
	return data, nil
}

// ValidateScripts syntax-checks the embedded helper scripts with the bash
// grammar. A parse failure is a packaging bug, caught before any container
// runs.
func ValidateScripts() error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	for _, name := range scriptNames() {
		data, err := readScript(name)
		if err != nil {
			return err
		}
		if _, err := parser.Parse(strings.NewReader(string(data)), name); err != nil {
			return fmt.Errorf("internal error: embedded script %s has invalid syntax: %w", name, err)
		}
	}
	return nil
}

// ScriptDigests returns a digest per embedded helper script, keyed by script
// name. The digests feed the provisioned-image cache key so that script
// changes invalidate cached layers.
func ScriptDigests() (map[string]digest.Digest, error) {
	digests := make(map[string]digest.Digest, len(scriptNames()))
	for _, name := range scriptNames() {
		data, err := readScript(name)
		if err != nil {
			return nil, err
		}
		digests[name] = digest.FromBytes(data)
	}
	return digests, nil
}

// combinedScriptDigest folds the per-script digests into one stable string.
func combinedScriptDigest() (string, error) {
	digests, err := ScriptDigests()
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(digests))
	for name := range digests {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name + "=" + digests[name].String() + ";")
	}
	return sb.String(), nil
}

// StageScripts validates the embedded helper scripts and writes them,
// executable, into a fresh staging directory under root. An empty root
// selects the default staging root. The returned cleanup removes the
// directory.
func StageScripts(root string) (dir string, cleanup func(), err error) {
	if err := ValidateScripts(); err != nil {
		return "", nil, err
	}

	parent, err := StagingRoot(root)
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create staging parent directory: %w", err)
	}

	tmpDir, err := os.MkdirTemp(parent, "stage-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	cleanup = func() {
		_ = os.RemoveAll(tmpDir) // Cleanup temp dir; error non-critical
	}

	for _, name := range scriptNames() {
		data, err := readScript(name)
		if err != nil {
			cleanup()
			return "", nil, err
		}
		if err := os.WriteFile(filepath.Join(tmpDir, name), data, 0o755); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("failed to stage script %s: %w", name, err)
		}
	}

	return tmpDir, cleanup, nil
}

// StagingRoot resolves where staging directories are created. A non-empty
// override (the configured provision.cache_dir) wins; otherwise the
// sandbox-aware default is used.
func StagingRoot(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return stagingParent()
}

// stagingParent picks where staging directories are created by default.
//
// Docker installed via Snap has limited filesystem access: it cannot read
// /tmp (different namespace) or hidden directories under $HOME, but CAN read
// visible directories like ~/awqprov-build. A visible home directory is
// therefore preferred whenever the process runs inside a sandbox or $HOME is
// usable; /tmp is the last resort.
func stagingParent() (string, error) {
	if home, err := os.UserHomeDir(); err == nil {
		if _, statErr := os.Stat(home); statErr == nil {
			return filepath.Join(home, "awqprov-build"), nil
		}
	}

	if platform.DetectSandbox() == platform.SandboxNone {
		if cwd, err := os.Getwd(); err == nil {
			return filepath.Join(cwd, ".awqprov-build"), nil
		}
	}

	return filepath.Join(os.TempDir(), "awqprov-build"), nil
}

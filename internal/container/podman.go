// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"awqprov/pkg/platform"
)

// PodmanEngine implements the Engine interface using the Podman CLI.
// It embeds BaseCLIEngine for common CLI operations.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a new Podman engine.
// On Linux, volume mounts are labeled with :z for SELinux-enforcing hosts,
// and rootless runs get --userns=keep-id so committed layers keep sane
// ownership.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	path, _ := exec.LookPath("podman")

	allOpts := append([]BaseCLIEngineOption{
		WithName(string(EngineTypePodman)),
		WithVolumeFormatter(addSELinuxLabel),
		WithRunArgsTransformer(addUserNSKeepID),
	}, opts...)

	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(HostFilesystemPath(path), allOpts...),
	}
}

// Name returns the engine name.
func (e *PodmanEngine) Name() string {
	return string(EngineTypePodman)
}

// Available checks if Podman is available.
func (e *PodmanEngine) Available() bool {
	if e.BinaryPath() == "" {
		return false
	}
	cmd := e.CreateCommand(context.Background(), "version", "--format", "{{.Client.Version}}")
	return cmd.Run() == nil
}

// Version returns the Podman version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Client.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get podman version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ImageExists checks if an image exists locally.
// Podman has a dedicated subcommand: exit status 1 means "not found", any
// other failure (binary gone, engine broken) is an error.
func (e *PodmanEngine) ImageExists(ctx context.Context, image ImageTag) (bool, error) {
	cmd := e.CreateCommand(ctx, "image", "exists", string(image))
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("failed to check for image %s: %w", image, err)
}

// addSELinuxLabel appends :z to volume mounts on Linux when the mount does
// not already carry a label.
func addSELinuxLabel(v VolumeMount) string {
	if runtime.GOOS == platform.Linux && v.SELinux == SELinuxLabelNone {
		v.SELinux = SELinuxLabelShared
	}
	return v.String()
}

// addUserNSKeepID injects --userns=keep-id right after "run" on Linux.
// Rootless Podman otherwise maps the container root to the user's subuid
// range, which breaks file ownership in committed layers.
func addUserNSKeepID(args []string) []string {
	if runtime.GOOS != platform.Linux {
		return args
	}
	if len(args) == 0 || args[0] != "run" {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0], "--userns=keep-id")
	out = append(out, args[1:]...)
	return out
}

// SPDX-License-Identifier: MPL-2.0

// Integration tests for the container engine abstraction. These run real
// containers and require Docker or Podman to be available; they are skipped
// in short mode and when no engine is found.

package container

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"

	"awqprov/internal/testutil"
)

// acquireContainerSlot limits concurrent container runs so constrained CI
// runners do not exhaust the engine.
func acquireContainerSlot(t *testing.T) {
	t.Helper()
	sem := testutil.ContainerSemaphore()
	sem <- struct{}{}
	t.Cleanup(func() { <-sem })
}

// checkTestcontainersAvailable safely checks if testcontainers can be used.
// Returns true if containers are available, false otherwise.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func TestEngine_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	engine, err := AutoDetectEngine()
	if err != nil {
		t.Skipf("skipping container integration tests: no container engine available: %v", err)
	}
	if !engine.Available() {
		t.Skip("skipping container integration tests: container engine not available")
	}

	// Double-check via testcontainers; its provider detection catches daemon
	// misconfigurations that a plain binary probe misses.
	if !checkTestcontainersAvailable() {
		t.Skip("skipping container integration tests: testcontainers provider not available")
	}

	t.Run("Version", func(t *testing.T) { testEngineVersion(t, engine) })
	t.Run("RunExitCode", func(t *testing.T) { testEngineRunExitCode(t, engine) })
	t.Run("RunOutput", func(t *testing.T) { testEngineRunOutput(t, engine) })
	t.Run("CommitAndImageExists", func(t *testing.T) { testEngineCommit(t, engine) })
}

func testEngineVersion(t *testing.T, engine Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	version, err := engine.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if strings.TrimSpace(version) == "" {
		t.Error("Version() returned empty string")
	}
}

func testEngineRunExitCode(t *testing.T, engine Engine) {
	acquireContainerSlot(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := engine.Run(ctx, RunOptions{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "exit 7"},
		Remove:  true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", result.ExitCode)
	}
}

func testEngineRunOutput(t *testing.T, engine Engine) {
	acquireContainerSlot(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var stdout bytes.Buffer
	result, err := engine.Run(ctx, RunOptions{
		Image:   "alpine:latest",
		Command: []string{"echo", "provisioned"},
		Remove:  true,
		Stdout:  &stdout,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.ExitCode.IsSuccess() {
		t.Fatalf("ExitCode = %d, want 0", result.ExitCode)
	}
	if got := strings.TrimSpace(stdout.String()); got != "provisioned" {
		t.Errorf("stdout = %q, want %q", got, "provisioned")
	}
}

func testEngineCommit(t *testing.T, engine Engine) {
	acquireContainerSlot(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	const (
		containerName = ContainerID("awqprov-inttest-commit")
		committedTag  = ImageTag("awqprov-inttest:committed")
	)

	// The container must survive its run to be committable, so Remove is off
	// and cleanup is explicit.
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cleanupCancel()
		_ = engine.Remove(cleanupCtx, containerName, true)
		_ = engine.RemoveImage(cleanupCtx, committedTag, true)
	})

	result, err := engine.Run(ctx, RunOptions{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "echo marker > /provisioned"},
		Name:    containerName,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.ExitCode.IsSuccess() {
		t.Fatalf("ExitCode = %d, want 0", result.ExitCode)
	}

	if err := engine.Commit(ctx, CommitOptions{
		Container: containerName,
		Tag:       committedTag,
		Message:   "integration test layer",
	}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	exists, err := engine.ImageExists(ctx, committedTag)
	if err != nil {
		t.Fatalf("ImageExists() error = %v", err)
	}
	if !exists {
		t.Error("committed image not found locally")
	}
}

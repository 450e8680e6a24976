// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// fakeExec returns an ExecCommandFunc that ignores the requested binary and
// runs the given shell snippet instead, recording every invocation's args.
func fakeExec(script string, calls *[][]string) ExecCommandFunc {
	return func(ctx context.Context, _ string, arg ...string) *exec.Cmd {
		if calls != nil {
			recorded := make([]string, len(arg))
			copy(recorded, arg)
			*calls = append(*calls, recorded)
		}
		return exec.CommandContext(ctx, "/bin/sh", "-c", script)
	}
}

func TestRunCapturesExitCode(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/testengine", WithExecCommand(fakeExec("exit 7", nil)))

	result, err := e.Run(context.Background(), RunOptions{Image: "img", Name: "c1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", result.ExitCode)
	}
	if result.Error != nil {
		t.Errorf("non-zero exit should not set Error, got %v", result.Error)
	}
	if result.ContainerID != "c1" {
		t.Errorf("ContainerID = %q, want c1", result.ContainerID)
	}
}

func TestRunSuccess(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/testengine", WithExecCommand(fakeExec("exit 0", nil)))

	result, err := e.Run(context.Background(), RunOptions{Image: "img"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.ExitCode.IsSuccess() {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
}

func TestRunRejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/testengine", WithExecCommand(fakeExec("exit 0", nil)))

	if _, err := e.Run(context.Background(), RunOptions{Image: ""}); err == nil {
		t.Error("Run() with empty image should fail validation")
	}
}

func TestCommitRunsCommitCommand(t *testing.T) {
	t.Parallel()

	var calls [][]string
	e := NewBaseCLIEngine("/usr/bin/testengine", WithExecCommand(fakeExec("exit 0", &calls)))

	err := e.Commit(context.Background(), CommitOptions{Container: "c1", Tag: "img:tag"})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 engine invocation, got %d", len(calls))
	}
	if calls[0][0] != "commit" {
		t.Errorf("first arg = %q, want commit", calls[0][0])
	}
}

func TestCommitFailureIsActionable(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/testengine",
		WithName("testengine"),
		WithExecCommand(fakeExec("exit 1", nil)))

	err := e.Commit(context.Background(), CommitOptions{Container: "c1", Tag: "img:tag"})
	if err == nil {
		t.Fatal("Commit() expected error")
	}
	if !strings.Contains(err.Error(), "commit container layer") {
		t.Errorf("error missing operation context: %v", err)
	}
}

func TestPullRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	// Exit 125 is a transient engine failure; the pull should be retried
	// until attempts are exhausted.
	var calls [][]string
	e := NewBaseCLIEngine("/usr/bin/testengine",
		WithExecCommand(fakeExec("exit 125", &calls)),
		WithPullRetry(3, time.Millisecond))

	err := e.Pull(context.Background(), "img:tag", nil)
	if err == nil {
		t.Fatal("Pull() expected error after exhausted retries")
	}
	if len(calls) != 3 {
		t.Errorf("expected 3 pull attempts, got %d", len(calls))
	}
}

func TestPullDoesNotRetryPermanentFailures(t *testing.T) {
	t.Parallel()

	var calls [][]string
	e := NewBaseCLIEngine("/usr/bin/testengine",
		WithExecCommand(fakeExec("exit 1", &calls)),
		WithPullRetry(3, time.Millisecond))

	err := e.Pull(context.Background(), "img:tag", nil)
	if err == nil {
		t.Fatal("Pull() expected error")
	}
	if len(calls) != 1 {
		t.Errorf("expected 1 pull attempt for permanent failure, got %d", len(calls))
	}
}

// brokenExec returns an ExecCommandFunc whose commands cannot be started,
// simulating the engine binary disappearing mid-run.
func brokenExec() ExecCommandFunc {
	return func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "/nonexistent/awqprov-test-engine")
	}
}

func TestImageExistsDistinguishesNotFoundFromFailure(t *testing.T) {
	t.Parallel()

	engines := map[string]func(...BaseCLIEngineOption) Engine{
		"podman": func(opts ...BaseCLIEngineOption) Engine { return NewPodmanEngine(opts...) },
		"docker": func(opts ...BaseCLIEngineOption) Engine { return NewDockerEngine(opts...) },
	}

	for name, newEngine := range engines {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			exists, err := newEngine(WithExecCommand(fakeExec("exit 0", nil))).
				ImageExists(context.Background(), "img:tag")
			if err != nil || !exists {
				t.Errorf("exit 0: got (%v, %v), want (true, nil)", exists, err)
			}

			exists, err = newEngine(WithExecCommand(fakeExec("exit 1", nil))).
				ImageExists(context.Background(), "img:tag")
			if err != nil || exists {
				t.Errorf("exit 1: got (%v, %v), want (false, nil)", exists, err)
			}

			// Exit codes other than 1 mean the engine itself failed, not that
			// the image is absent.
			if _, err = newEngine(WithExecCommand(fakeExec("exit 125", nil))).
				ImageExists(context.Background(), "img:tag"); err == nil {
				t.Error("exit 125 should surface as an error")
			}

			if _, err = newEngine(WithExecCommand(brokenExec())).
				ImageExists(context.Background(), "img:tag"); err == nil {
				t.Error("unrunnable command should surface as an error, not \"not found\"")
			}
		})
	}
}

func TestCmdEnvOverridesApplied(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/testengine",
		WithCmdEnvOverride("AWQPROV_TEST_OVERRIDE", "1"))

	cmd := e.CreateCommand(context.Background(), "version")
	found := false
	for _, kv := range cmd.Env {
		if kv == "AWQPROV_TEST_OVERRIDE=1" {
			found = true
			break
		}
	}
	if !found {
		t.Error("env override not applied to created command")
	}
}

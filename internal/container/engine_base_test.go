// SPDX-License-Identifier: MPL-2.0

package container

import (
	"slices"
	"testing"
)

func newTestBase() *BaseCLIEngine {
	return NewBaseCLIEngine("/usr/bin/testengine", WithName("testengine"))
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts BuildOptions
		want []string
	}{
		{
			name: "context only",
			opts: BuildOptions{ContextDir: "/ctx"},
			want: []string{"build", "/ctx"},
		},
		{
			name: "tag and no-cache",
			opts: BuildOptions{ContextDir: "/ctx", Tag: "awqprov-autoawq:abc", NoCache: true},
			want: []string{"build", "-t", "awqprov-autoawq:abc", "--no-cache", "/ctx"},
		},
		{
			name: "relative dockerfile resolved against context",
			opts: BuildOptions{ContextDir: "/ctx", Dockerfile: "Dockerfile"},
			want: []string{"build", "-f", "/ctx/Dockerfile", "/ctx"},
		},
	}

	e := newTestBase()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := e.BuildArgs(tt.opts)
			if !slices.Equal(got, tt.want) {
				t.Errorf("BuildArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildArgsBuildArgsFlag(t *testing.T) {
	t.Parallel()

	e := newTestBase()
	got := e.BuildArgs(BuildOptions{
		ContextDir: "/ctx",
		BuildArgs:  map[string]string{"AUTOAWQ_VERSION": "0.2.4"},
	})

	if !slices.Contains(got, "--build-arg") {
		t.Fatalf("BuildArgs() missing --build-arg: %v", got)
	}
	if !slices.Contains(got, "AUTOAWQ_VERSION=0.2.4") {
		t.Errorf("BuildArgs() missing build arg value: %v", got)
	}
}

func TestRunArgs(t *testing.T) {
	t.Parallel()

	e := newTestBase()
	opts := RunOptions{
		Image:   "cuda-base:latest",
		Command: []string{"/tmp/awqprov/install.sh"},
		Name:    "awqprov-1234",
		WorkDir: "/workspace",
		Volumes: []VolumeMount{
			{HostPath: "/host/scripts", ContainerPath: "/tmp/awqprov", ReadOnly: true},
		},
	}

	got := e.RunArgs(opts)
	want := []string{
		"run",
		"--name", "awqprov-1234",
		"-w", "/workspace",
		"-v", "/host/scripts:/tmp/awqprov:ro",
		"cuda-base:latest",
		"/tmp/awqprov/install.sh",
	}
	if !slices.Equal(got, want) {
		t.Errorf("RunArgs() = %v, want %v", got, want)
	}
}

func TestRunArgsRemoveAndEnv(t *testing.T) {
	t.Parallel()

	e := newTestBase()
	got := e.RunArgs(RunOptions{
		Image:  "cuda-base:latest",
		Remove: true,
		Env:    map[string]string{"AUTOAWQ_VERSION": "0.2.4"},
	})

	if got[1] != "--rm" {
		t.Errorf("RunArgs() = %v, expected --rm after run", got)
	}
	if !slices.Contains(got, "-e") || !slices.Contains(got, "AUTOAWQ_VERSION=0.2.4") {
		t.Errorf("RunArgs() missing env flag: %v", got)
	}
}

func TestCommitArgs(t *testing.T) {
	t.Parallel()

	e := newTestBase()
	got := e.CommitArgs(CommitOptions{
		Container: "awqprov-1234",
		Tag:       "awqprov-autoawq:abc",
		Message:   "install autoawq 0.2.4",
		Changes:   []string{`ENV AWQPROV_PATH=install`},
	})
	want := []string{
		"commit",
		"--message", "install autoawq 0.2.4",
		"--change", `ENV AWQPROV_PATH=install`,
		"awqprov-1234", "awqprov-autoawq:abc",
	}
	if !slices.Equal(got, want) {
		t.Errorf("CommitArgs() = %v, want %v", got, want)
	}
}

func TestPullArgs(t *testing.T) {
	t.Parallel()

	e := newTestBase()
	got := e.PullArgs("cuda-base:latest")
	want := []string{"pull", "cuda-base:latest"}
	if !slices.Equal(got, want) {
		t.Errorf("PullArgs() = %v, want %v", got, want)
	}
}

func TestRemoveArgs(t *testing.T) {
	t.Parallel()

	e := newTestBase()

	if got := e.RemoveArgs("c1", false); !slices.Equal(got, []string{"rm", "c1"}) {
		t.Errorf("RemoveArgs(force=false) = %v", got)
	}
	if got := e.RemoveArgs("c1", true); !slices.Equal(got, []string{"rm", "-f", "c1"}) {
		t.Errorf("RemoveArgs(force=true) = %v", got)
	}
	if got := e.RemoveImageArgs("img:tag", true); !slices.Equal(got, []string{"rmi", "-f", "img:tag"}) {
		t.Errorf("RemoveImageArgs(force=true) = %v", got)
	}
}

func TestRunArgsVolumeFormatter(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/testengine",
		WithVolumeFormatter(func(v VolumeMount) string { return v.String() + ":Z" }))

	got := e.RunArgs(RunOptions{
		Image:   "img",
		Volumes: []VolumeMount{{HostPath: "/a", ContainerPath: "/b"}},
	})
	if !slices.Contains(got, "/a:/b:Z") {
		t.Errorf("custom volume formatter not applied: %v", got)
	}
}

func TestRunArgsTransformer(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/testengine",
		WithRunArgsTransformer(func(args []string) []string {
			return append([]string{args[0], "--userns=keep-id"}, args[1:]...)
		}))

	got := e.RunArgs(RunOptions{Image: "img"})
	if got[1] != "--userns=keep-id" {
		t.Errorf("run args transformer not applied: %v", got)
	}
}

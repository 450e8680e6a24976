// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerateDockerfile(t *testing.T) {
	t.Parallel()

	cfg := testBuildConfig()
	dockerfile := GenerateDockerfile(cfg)

	wantLines := []string{
		"FROM cuda-base:latest",
		`ARG AUTOAWQ_VERSION="0.2.4"`,
		`ARG AUTOAWQ_KERNELS_VERSION="0.0.9"`,
		`ARG TORCH_CUDA_ARCH_LIST="8.7"`,
		`ARG FORCE_BUILD="off"`,
		"COPY install.sh build.sh /opt/awqprov/",
		"(/opt/awqprov/install.sh || /opt/awqprov/build.sh)",
	}
	for _, want := range wantLines {
		if !strings.Contains(dockerfile, want) {
			t.Errorf("Dockerfile missing %q:\n%s", want, dockerfile)
		}
	}
}

func TestGenerateDockerfileForceBuild(t *testing.T) {
	t.Parallel()

	cfg := testBuildConfig()
	cfg.ForceBuild = true

	if !strings.Contains(GenerateDockerfile(cfg), `ARG FORCE_BUILD="on"`) {
		t.Error("Dockerfile should default FORCE_BUILD=on when force-build is set")
	}
}

func TestBakeBuildsImage(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	p := newTestProvisioner(engine)

	result, err := p.Bake(context.Background(), testBuildConfig(), BakeOptions{Tag: "awq:baked"})
	if err != nil {
		t.Fatalf("Bake() error = %v", err)
	}
	if result.ImageTag != "awq:baked" {
		t.Errorf("ImageTag = %q, want awq:baked", result.ImageTag)
	}
	if len(engine.buildCalls) != 1 {
		t.Fatalf("build calls = %d, want 1", len(engine.buildCalls))
	}

	opts := engine.buildCalls[0]
	if opts.Tag != "awq:baked" {
		t.Errorf("build tag = %q, want awq:baked", opts.Tag)
	}
	if opts.BuildArgs["AUTOAWQ_VERSION"] != "0.2.4" {
		t.Errorf("build args = %v, want AUTOAWQ_VERSION=0.2.4", opts.BuildArgs)
	}
	if opts.Dockerfile != "Dockerfile" {
		t.Errorf("Dockerfile = %q, want Dockerfile", opts.Dockerfile)
	}
}

func TestBakeDefaultsToDerivedTag(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{}
	p := newTestProvisioner(engine)

	result, err := p.Bake(context.Background(), testBuildConfig(), BakeOptions{})
	if err != nil {
		t.Fatalf("Bake() error = %v", err)
	}
	want, _ := p.ProvisionedTag(testBuildConfig())
	if result.ImageTag != want {
		t.Errorf("ImageTag = %q, want derived %q", result.ImageTag, want)
	}
}

func TestBakeBuildFailure(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{buildErr: errors.New("compiler blew up")}
	p := newTestProvisioner(engine)

	_, err := p.Bake(context.Background(), testBuildConfig(), BakeOptions{})
	if !errors.Is(err, ErrProvisionFailed) {
		t.Fatalf("error = %v, want ErrProvisionFailed", err)
	}
}

// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"awqprov/internal/container"
)

func TestBuildConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     BuildConfig
		wantErr error
	}{
		{
			name: "valid minimal",
			cfg:  BuildConfig{BaseImage: "cuda-base:latest"},
		},
		{
			name: "valid fully qualified",
			cfg:  BuildConfig{BaseImage: "nvcr.io/nvidia/l4t-pytorch:r36.2.0-pth2.1-py3"},
		},
		{
			name:    "missing base image",
			cfg:     BuildConfig{Version: "0.2.4"},
			wantErr: ErrBaseImageRequired,
		},
		{
			name:    "whitespace base image",
			cfg:     BuildConfig{BaseImage: "   "},
			wantErr: ErrBaseImageRequired,
		},
		{
			name:    "unparsable reference",
			cfg:     BuildConfig{BaseImage: "UPPER:::bad"},
			wantErr: container.ErrInvalidImageTag,
		},
		{
			name:    "invalid tag override",
			cfg:     BuildConfig{BaseImage: "cuda-base:latest", TagOverride: "has space"},
			wantErr: container.ErrInvalidImageTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizedBaseRef(t *testing.T) {
	t.Parallel()

	cfg := BuildConfig{BaseImage: "alpine"}
	ref, err := cfg.NormalizedBaseRef()
	if err != nil {
		t.Fatalf("NormalizedBaseRef() error = %v", err)
	}
	// Short names are qualified with the default registry and tag.
	if !strings.Contains(ref, "index.docker.io/library/alpine") {
		t.Errorf("ref = %q, want docker.io-qualified reference", ref)
	}
	if !strings.HasSuffix(ref, ":latest") {
		t.Errorf("ref = %q, want :latest default tag", ref)
	}
}

func TestParseComputeCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "semicolons", input: "8.0;8.6;8.7", want: []string{"8.0", "8.6", "8.7"}},
		{name: "commas", input: "8.0,8.6", want: []string{"8.0", "8.6"}},
		{name: "mixed with blanks", input: "8.0; ;8.7,", want: []string{"8.0", "8.7"}},
		{name: "empty", input: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseComputeCapabilities(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseComputeCapabilities(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTorchCUDAArchList(t *testing.T) {
	t.Parallel()

	if got := TorchCUDAArchList([]string{"8.0", "8.7"}); got != "8.0;8.7" {
		t.Errorf("TorchCUDAArchList() = %q, want 8.0;8.7", got)
	}
	if got := TorchCUDAArchList(nil); got != "" {
		t.Errorf("TorchCUDAArchList(nil) = %q, want empty", got)
	}
}

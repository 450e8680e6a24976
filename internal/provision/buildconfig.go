// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"strings"

	"github.com/google/go-containerregistry/pkg/name"

	"awqprov/internal/container"
)

// BuildConfig holds the named build parameters for one provisioning run.
// BaseImage is the only required field; the rest default to values from the
// resolved configuration when unset.
type BuildConfig struct {
	// BaseImage is the parent image the AutoAWQ layer is committed on top of.
	// It must be resolvable before any install/build step runs.
	BaseImage container.ImageTag

	// Version is the AutoAWQ version tag to install or build.
	Version string

	// KernelsVersion is the AutoAWQ kernels package version tag.
	KernelsVersion string

	// ComputeCapabilities are the target GPU architectures (e.g. "8.7").
	// They feed TORCH_CUDA_ARCH_LIST during a source build.
	ComputeCapabilities []string

	// ForceBuild skips the prebuilt install path entirely and goes straight
	// to building from source.
	ForceBuild bool

	// ForceRebuild bypasses the cached provisioned image.
	ForceRebuild bool

	// TagOverride replaces the derived cache tag for the committed image.
	TagOverride container.ImageTag
}

// Validate checks the config for use. Only BaseImage is mandatory; it must
// also parse as a valid image reference.
func (c BuildConfig) Validate() error {
	if strings.TrimSpace(string(c.BaseImage)) == "" {
		return ErrBaseImageRequired
	}
	if err := c.BaseImage.Validate(); err != nil {
		return err
	}
	if _, err := name.ParseReference(string(c.BaseImage)); err != nil {
		return &container.InvalidImageTagError{Value: c.BaseImage}
	}
	if c.TagOverride != "" {
		if err := c.TagOverride.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NormalizedBaseRef returns the fully qualified form of the base image
// reference (registry, repository and tag made explicit) for stable cache
// keys. The config must have passed Validate() first.
func (c BuildConfig) NormalizedBaseRef() (string, error) {
	ref, err := name.ParseReference(string(c.BaseImage))
	if err != nil {
		return "", err
	}
	return ref.Name(), nil
}

// ParseComputeCapabilities splits a capability list given on the command
// line. Both ";" and "," separate entries; blanks are dropped.
func ParseComputeCapabilities(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ','
	})
	caps := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			caps = append(caps, trimmed)
		}
	}
	return caps
}

// TorchCUDAArchList renders capabilities in the semicolon form consumed by
// TORCH_CUDA_ARCH_LIST (e.g. "8.0;8.6;8.7").
func TorchCUDAArchList(caps []string) string {
	return strings.Join(caps, ";")
}

// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"

	"awqprov/internal/container"
)

const (
	// PathInstall means the prebuilt install path produced the image.
	PathInstall Path = "install"
	// PathBuild means the source build path produced the image.
	PathBuild Path = "build"
	// PathCached means a previously provisioned image was reused; neither
	// path ran.
	PathCached Path = "cached"
)

type (
	// Path identifies which provisioning path produced a Result.
	Path string

	// Provisioner produces container images with a working AutoAWQ
	// installation on top of a base image. Implementations cache
	// provisioned images by content key for fast reuse.
	Provisioner interface {
		// Provision runs the install-or-build fallback for the given
		// configuration and returns the tag of the committed image.
		// On failure no image is tagged.
		Provision(ctx context.Context, cfg BuildConfig) (*Result, error)
	}

	// Result contains the output of a provisioning operation.
	Result struct {
		// ImageTag is the tag of the provisioned image
		// (e.g. "awqprov-autoawq:3f9c2a1b04de").
		ImageTag container.ImageTag

		// Path reports which path produced the image.
		Path Path

		// Cached is true when the image was reused from a previous run.
		Cached bool
	}
)

// String returns the string representation of the Path.
func (p Path) String() string { return string(p) }

// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"strings"

	"awqprov/internal/container"
)

// Plan describes what a provisioning run would do, without side effects.
type Plan struct {
	// BaseImage is the resolved base image reference.
	BaseImage container.ImageTag
	// ImageTag is the tag the run would commit.
	ImageTag container.ImageTag
	// Steps are the operations in execution order.
	Steps []string
}

// Plan computes the dry-run plan for a build configuration. No engine
// operations are performed, so cache state is reported as a conditional step.
func (p *FallbackProvisioner) Plan(cfg BuildConfig) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tag, err := p.ProvisionedTag(cfg)
	if err != nil {
		return nil, err
	}

	steps := []string{
		fmt.Sprintf("resolve base image %s (pull if absent)", cfg.BaseImage),
	}
	if cfg.ForceRebuild {
		steps = append(steps, fmt.Sprintf("ignore cached image %s (force-rebuild)", tag))
	} else {
		steps = append(steps, fmt.Sprintf("reuse %s if already provisioned", tag))
	}
	steps = append(steps, fmt.Sprintf("stage helper scripts at %s", ScriptMountPath))

	if cfg.ForceBuild {
		steps = append(steps, "skip prebuilt install path (force-build)")
	} else {
		steps = append(steps,
			fmt.Sprintf("try prebuilt install of autoawq %s; commit %s on success", cfg.Version, tag))
	}
	steps = append(steps,
		fmt.Sprintf("fall back to source build (TORCH_CUDA_ARCH_LIST=%s); commit %s on success",
			TorchCUDAArchList(cfg.ComputeCapabilities), tag),
		"fail without tagging if both paths exit non-zero",
	)

	return &Plan{
		BaseImage: cfg.BaseImage,
		ImageTag:  tag,
		Steps:     steps,
	}, nil
}

// Render returns the plan as numbered lines for display.
func (pl *Plan) Render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "base image: %s\n", pl.BaseImage)
	fmt.Fprintf(&sb, "output tag: %s\n", pl.ImageTag)
	for i, step := range pl.Steps {
		fmt.Fprintf(&sb, "%2d. %s\n", i+1, step)
	}
	return sb.String()
}

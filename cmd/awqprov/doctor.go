// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"

	"awqprov/internal/container"
	"awqprov/internal/issue"
	"awqprov/pkg/platform"

	"github.com/spf13/cobra"
)

var (
	doctorBaseImage string

	doctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Check that the host can provision images",
		Long: `Check that the host can provision images.

Verifies that a container engine is reachable, that the platform
release satisfies the configured minimum, and (when --base-image is
given) that the base image is present in the engine's local store.

Examples:
  awqprov doctor
  awqprov doctor --base-image cuda-base:latest`,
		RunE: runDoctor,
	}
)

func init() {
	doctorCmd.Flags().StringVar(&doctorBaseImage, "base-image", "", "also check that this base image is available locally")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := rootConfig()
	healthy := true

	fmt.Println(TitleStyle.Render("awqprov doctor"))
	fmt.Println()

	engine := checkEngineHealth(ctx, &healthy)
	checkPlatformHealth(cfg.Platform.ReleaseFile, cfg.Platform.MinRelease, &healthy)

	if doctorBaseImage != "" {
		checkBaseImageHealth(ctx, engine, &healthy)
	}

	fmt.Println()
	if !healthy {
		fmt.Println(ErrorStyle.Render("✗") + " Some checks failed")
		return &ExitError{Code: 1, Err: fmt.Errorf("doctor found problems")}
	}
	fmt.Println(SuccessStyle.Render("✓") + " All checks passed")
	return nil
}

// checkEngineHealth reports container engine availability and returns the
// detected engine (nil when none is available).
func checkEngineHealth(ctx context.Context, healthy *bool) container.Engine {
	engine, err := container.AutoDetectEngine()
	if err != nil {
		fmt.Printf("%s container engine: %s\n", ErrorStyle.Render("✗"), err.Error())
		printIssue(issue.EngineNotFoundId)
		*healthy = false
		return nil
	}

	version, err := engine.Version(ctx)
	if err != nil {
		fmt.Printf("%s container engine: %s available, version unknown (%v)\n",
			WarningStyle.Render("!"), engine.Name(), err)
		return engine
	}

	fmt.Printf("%s container engine: %s %s\n",
		SuccessStyle.Render("✓"), engine.Name(), VerboseStyle.Render(version))
	return engine
}

// checkPlatformHealth reports the platform release gate result. An
// undetectable release is a warning, not a failure: provisioning commonly
// runs on build hosts that are not the target device.
func checkPlatformHealth(releaseFile, minRelease string, healthy *bool) {
	release, err := platform.DetectRelease(releaseFile)
	if err != nil {
		fmt.Printf("%s platform release: not detected (%v)\n", WarningStyle.Render("!"), err)
		return
	}

	if err := platform.CheckRelease(release, minRelease); err != nil {
		fmt.Printf("%s platform release: %s does not satisfy %s\n",
			ErrorStyle.Render("✗"), release, minRelease)
		printIssue(issue.PlatformUnsupportedId)
		*healthy = false
		return
	}

	fmt.Printf("%s platform release: %s (satisfies %s)\n",
		SuccessStyle.Render("✓"), release, minRelease)
}

// checkBaseImageHealth reports whether the requested base image is present
// in the engine's local store.
func checkBaseImageHealth(ctx context.Context, engine container.Engine, healthy *bool) {
	if engine == nil {
		fmt.Printf("%s base image: skipped (no container engine)\n", WarningStyle.Render("!"))
		return
	}

	exists, err := engine.ImageExists(ctx, container.ImageTag(doctorBaseImage))
	switch {
	case err != nil:
		fmt.Printf("%s base image: check failed (%v)\n", ErrorStyle.Render("✗"), err)
		*healthy = false
	case exists:
		fmt.Printf("%s base image: %s present locally\n", SuccessStyle.Render("✓"), doctorBaseImage)
	default:
		fmt.Printf("%s base image: %s not present locally (will be pulled)\n",
			WarningStyle.Render("!"), doctorBaseImage)
	}
}

// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"awqprov/internal/container"
	"awqprov/internal/provision"

	"github.com/spf13/cobra"
)

var (
	bakeFlags      buildFlags
	bakeEngineFlag string
	bakePrint      bool
	bakeNoCache    bool

	bakeCmd = &cobra.Command{
		Use:   "bake",
		Short: "Build the provisioned image with a generated Dockerfile",
		Long: `Build the provisioned image with a generated Dockerfile.

Unlike provision, the install-or-build fallback runs inside the image
build as a single RUN instruction, so only the combined outcome is
observable. Use --print to inspect the Dockerfile without building.

Examples:
  awqprov bake --base-image cuda-base:latest
  awqprov bake --base-image cuda-base:latest --print
  awqprov bake --base-image cuda-base:latest --tag myorg/awq:latest --no-cache`,
		RunE: runBake,
	}
)

func init() {
	bakeFlags.register(bakeCmd)
	bakeCmd.Flags().StringVar(&bakeEngineFlag, "engine", "", "container engine to use (podman or docker, default from config)")
	bakeCmd.Flags().BoolVar(&bakePrint, "print", false, "print the generated Dockerfile instead of building")
	bakeCmd.Flags().BoolVar(&bakeNoCache, "no-cache", false, "disable the engine's build cache")
}

func runBake(cmd *cobra.Command, args []string) error {
	cfg := rootConfig()

	buildCfg := mergeBuildConfig(cfg.Defaults, bakeFlags)

	if bakePrint {
		if err := buildCfg.Validate(); err != nil {
			return err
		}
		fmt.Print(provision.GenerateDockerfile(buildCfg))
		return nil
	}

	engine, err := resolveEngine(bakeEngineFlag, cfg)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	p := provision.NewFallbackProvisioner(engine, provisionerOptions(cfg)...)
	result, err := p.Bake(cmd.Context(), buildCfg, provision.BakeOptions{
		Tag:     container.ImageTag(bakeFlags.tag),
		NoCache: bakeNoCache,
	})
	if err != nil {
		return provisionError(err)
	}

	fmt.Printf("%s Baked %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(string(result.ImageTag)))
	return nil
}

// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"awqprov/internal/config"
	"awqprov/internal/provision"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var (
	configShowFormat string

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage awqprov configuration",
		Long: `Manage awqprov configuration.

Configuration is stored in:
  - Linux: ~/.config/awqprov/config.cue
  - macOS: ~/Library/Application Support/awqprov/config.cue
  - Windows: %APPDATA%\awqprov\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	}
)

func init() {
	configShowCmd.Flags().StringVar(&configShowFormat, "format", "text", "output format: text, toml, or json")
	configCmd.AddCommand(configShowCmd)

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(config.GenerateCUE(rootConfig()))
			return nil
		},
	})
}

func showConfig() error {
	cfg := rootConfig()

	switch configShowFormat {
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config as TOML: %w", err)
		}
		fmt.Print(string(data))
		return nil
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode config as JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	case "text":
		// Styled output below.
	default:
		return fmt.Errorf("unknown format %q: must be text, toml, or json", configShowFormat)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	cfgDir, dirErr := config.ConfigDir()
	if dirErr == nil && fileExistsCheck(filepath.Join(cfgDir, "config.cue")) {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), filepath.Join(cfgDir, "config.cue"))
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", keyStyle.Render("container_engine"), valueStyle.Render(string(cfg.ContainerEngine)))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("defaults"))
	fmt.Printf("  autoawq_version: %s\n", valueStyle.Render(cfg.Defaults.AutoAWQVersion))
	fmt.Printf("  kernels_version: %s\n", valueStyle.Render(cfg.Defaults.KernelsVersion))
	fmt.Printf("  compute_capabilities: %s\n", valueStyle.Render(strings.Join(cfg.Defaults.ComputeCapabilities, ";")))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("provision"))
	if cfg.Provision.CacheDir != "" {
		fmt.Printf("  cache_dir: %s\n", valueStyle.Render(string(cfg.Provision.CacheDir)))
	} else {
		fmt.Printf("  cache_dir: %s\n", SubtitleStyle.Render("(default staging root)"))
	}
	fmt.Printf("  tag_prefix: %s\n", valueStyle.Render(string(cfg.Provision.TagPrefix)))
	fmt.Printf("  strict: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Provision.Strict)))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("platform"))
	fmt.Printf("  min_release: %s\n", valueStyle.Render(cfg.Platform.MinRelease))
	fmt.Printf("  release_file: %s\n", valueStyle.Render(cfg.Platform.ReleaseFile))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Printf("  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func initConfigFile() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	if err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("%s Created default configuration at %s\n",
		SuccessStyle.Render("✓"), filepath.Join(cfgDir, "config.cue"))
	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s\n", filepath.Join(cfgDir, "config.cue"))

	stagingRoot, err := provision.StagingRoot(string(rootConfig().Provision.CacheDir))
	if err == nil {
		fmt.Printf("Staging root: %s\n", stagingRoot)
	}

	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

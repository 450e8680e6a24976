// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidCacheDirPath is returned when a CacheDirPath value is whitespace-only.
	ErrInvalidCacheDirPath = errors.New("invalid cache dir path")
	// ErrInvalidTagPrefix is the sentinel error wrapped by InvalidTagPrefixError.
	ErrInvalidTagPrefix = errors.New("invalid tag prefix")
	// ErrInvalidDefaultsConfig is the sentinel error wrapped by InvalidDefaultsConfigError.
	ErrInvalidDefaultsConfig = errors.New("invalid defaults config")
	// ErrInvalidProvisionConfig is the sentinel error wrapped by InvalidProvisionConfigError.
	ErrInvalidProvisionConfig = errors.New("invalid provision config")
	// ErrInvalidPlatformConfig is the sentinel error wrapped by InvalidPlatformConfigError.
	ErrInvalidPlatformConfig = errors.New("invalid platform config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// CacheDirPath represents the filesystem root under which provisioning
	// work directories (staged scripts, bake contexts) are created. The zero
	// value ("") is valid and means "use the sandbox-aware default root".
	// Non-zero values must not be whitespace-only.
	CacheDirPath string

	// InvalidCacheDirPathError is returned when a CacheDirPath value is
	// non-empty but whitespace-only.
	InvalidCacheDirPathError struct {
		Value CacheDirPath
	}

	// TagPrefix is the repository part of provisioned image tags
	// (e.g. "awqprov-autoawq" in "awqprov-autoawq:3f9c2a1b04de").
	// A valid prefix is non-empty and contains no whitespace or colons.
	TagPrefix string

	// InvalidTagPrefixError is returned when a TagPrefix value is malformed.
	InvalidTagPrefixError struct {
		Value TagPrefix
	}

	// InvalidDefaultsConfigError is returned when a DefaultsConfig has invalid fields.
	InvalidDefaultsConfigError struct {
		FieldErrors []error
	}

	// InvalidProvisionConfigError is returned when a ProvisionConfig has invalid fields.
	InvalidProvisionConfigError struct {
		FieldErrors []error
	}

	// InvalidPlatformConfigError is returned when a PlatformConfig has invalid fields.
	InvalidPlatformConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ContainerEngine specifies whether to use "podman" or "docker".
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// Defaults supplies build parameters used when flags leave them unset.
		Defaults DefaultsConfig `json:"defaults" mapstructure:"defaults"`
		// Provision configures provisioning behavior.
		Provision ProvisionConfig `json:"provision" mapstructure:"provision"`
		// Platform configures the platform release gate.
		Platform PlatformConfig `json:"platform" mapstructure:"platform"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// DefaultsConfig supplies build parameters used when flags leave them unset.
	DefaultsConfig struct {
		// AutoAWQVersion is the library version tag to install or build.
		AutoAWQVersion string `json:"autoawq_version" mapstructure:"autoawq_version"`
		// KernelsVersion is the CUDA kernels package version tag.
		KernelsVersion string `json:"kernels_version" mapstructure:"kernels_version"`
		// ComputeCapabilities are the target GPU architectures (e.g. "8.7").
		ComputeCapabilities []string `json:"compute_capabilities" mapstructure:"compute_capabilities"`
	}

	// ProvisionConfig configures provisioning behavior.
	ProvisionConfig struct {
		// CacheDir overrides the root under which provisioning work
		// directories (staged scripts, bake contexts) are created.
		CacheDir CacheDirPath `json:"cache_dir" mapstructure:"cache_dir"`
		// TagPrefix is the repository part of generated image tags.
		TagPrefix TagPrefix `json:"tag_prefix" mapstructure:"tag_prefix"`
		// Strict makes a failed platform release gate a hard error instead of
		// a warning. The gate belongs to the surrounding pipeline, so by
		// default an undetectable or unsupported release only warns.
		Strict bool `json:"strict" mapstructure:"strict"`
	}

	// PlatformConfig configures the platform release gate.
	PlatformConfig struct {
		// MinRelease is a version constraint the platform release must satisfy.
		MinRelease string `json:"min_release" mapstructure:"min_release"`
		// ReleaseFile is the file the platform release is detected from.
		ReleaseFile string `json:"release_file" mapstructure:"release_file"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme.
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is one of the defined engine
// types, and a list of validation errors if it is not.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEnginePodman, ContainerEngineDocker:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

// Error implements the error interface for InvalidContainerEngineError.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: podman, docker)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color
// schemes, and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the CacheDirPath.
func (p CacheDirPath) String() string { return string(p) }

// IsValid returns whether the CacheDirPath is valid.
// The zero value ("") is valid (means "use the default staging root").
// Non-zero values must not be whitespace-only.
func (p CacheDirPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidCacheDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCacheDirPathError.
func (e *InvalidCacheDirPathError) Error() string {
	return fmt.Sprintf("invalid cache dir path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidCacheDirPath for errors.Is() compatibility.
func (e *InvalidCacheDirPathError) Unwrap() error { return ErrInvalidCacheDirPath }

// String returns the string representation of the TagPrefix.
func (p TagPrefix) String() string { return string(p) }

// IsValid returns whether the TagPrefix is valid: non-empty with no
// whitespace or colons (the colon separates prefix from the cache key).
func (p TagPrefix) IsValid() (bool, []error) {
	s := string(p)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, " \t\n:") {
		return false, []error{&InvalidTagPrefixError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidTagPrefixError.
func (e *InvalidTagPrefixError) Error() string {
	return fmt.Sprintf("invalid tag prefix %q: must be non-empty without whitespace or colons", e.Value)
}

// Unwrap returns ErrInvalidTagPrefix for errors.Is() compatibility.
func (e *InvalidTagPrefixError) Unwrap() error { return ErrInvalidTagPrefix }

// IsValid returns whether the DefaultsConfig has valid fields.
// Version strings are free-form tags; only capability entries are checked
// for emptiness.
func (c DefaultsConfig) IsValid() (bool, []error) {
	var errs []error
	for i, capability := range c.ComputeCapabilities {
		if strings.TrimSpace(capability) == "" {
			errs = append(errs, fmt.Errorf("compute_capabilities[%d]: must be non-empty", i))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidDefaultsConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDefaultsConfigError.
func (e *InvalidDefaultsConfigError) Error() string {
	return fmt.Sprintf("invalid defaults config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidDefaultsConfig for errors.Is() compatibility.
func (e *InvalidDefaultsConfigError) Unwrap() error { return ErrInvalidDefaultsConfig }

// IsValid returns whether the ProvisionConfig has valid fields.
// It delegates to CacheDir.IsValid() and TagPrefix.IsValid(); Strict is a
// bool and needs no validation.
func (c ProvisionConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.CacheDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.TagPrefix.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidProvisionConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidProvisionConfigError.
func (e *InvalidProvisionConfigError) Error() string {
	return fmt.Sprintf("invalid provision config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidProvisionConfig for errors.Is() compatibility.
func (e *InvalidProvisionConfigError) Unwrap() error { return ErrInvalidProvisionConfig }

// IsValid returns whether the PlatformConfig has valid fields.
// MinRelease must be non-empty; constraint syntax is checked where the gate
// runs (pkg/platform), not here.
func (c PlatformConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.MinRelease) == "" {
		errs = append(errs, fmt.Errorf("min_release: must be non-empty"))
	}
	if strings.TrimSpace(c.ReleaseFile) == "" {
		errs = append(errs, fmt.Errorf("release_file: must be non-empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidPlatformConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPlatformConfigError.
func (e *InvalidPlatformConfigError) Error() string {
	return fmt.Sprintf("invalid platform config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidPlatformConfig for errors.Is() compatibility.
func (e *InvalidPlatformConfigError) Unwrap() error { return ErrInvalidPlatformConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields. It delegates to each
// sub-component's IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ContainerEngine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Defaults.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Provision.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Platform.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEnginePodman,
		Defaults: DefaultsConfig{
			AutoAWQVersion:      "0.2.4",
			KernelsVersion:      "0.0.9",
			ComputeCapabilities: []string{"8.7"},
		},
		Provision: ProvisionConfig{
			CacheDir:  "", // empty selects the sandbox-aware staging root
			TagPrefix: "awqprov-autoawq",
			Strict:    false,
		},
		Platform: PlatformConfig{
			MinRelease:  ">=36",
			ReleaseFile: "/etc/nv_tegra_release",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}

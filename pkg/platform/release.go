// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

const (
	// DefaultMinReleaseConstraint is the minimum device software release
	// the prebuilt AutoAWQ kernels are published for. Older releases ship
	// CUDA/PyTorch combinations the wheels are not built against.
	DefaultMinReleaseConstraint = ">=36"

	// DefaultReleaseFile is where the L4T/JetPack release is recorded on
	// NVIDIA devices.
	DefaultReleaseFile = "/etc/nv_tegra_release"

	// ReleaseEnvVar overrides release detection entirely when set.
	// Useful on build hosts that are not the target device.
	ReleaseEnvVar = "AWQPROV_PLATFORM_RELEASE"
)

var (
	// ErrReleaseNotDetected is returned when no release source is available.
	ErrReleaseNotDetected = errors.New("platform release not detected")

	// ErrReleaseUnsupported is the sentinel error wrapped by UnsupportedReleaseError.
	ErrReleaseUnsupported = errors.New("platform release unsupported")

	// tegraReleaseRe matches the leading fields of /etc/nv_tegra_release,
	// e.g. "# R36 (release), REVISION: 4.3, GCID: ...".
	tegraReleaseRe = regexp.MustCompile(`#\s*R(\d+)\s*\(release\),\s*REVISION:\s*([0-9.]+)`)
)

// UnsupportedReleaseError is returned when the detected release does not
// satisfy the configured minimum constraint.
type UnsupportedReleaseError struct {
	Release    string
	Constraint string
}

// Error implements the error interface.
func (e *UnsupportedReleaseError) Error() string {
	return fmt.Sprintf("platform release %s does not satisfy %q", e.Release, e.Constraint)
}

// Unwrap returns ErrReleaseUnsupported so callers can use errors.Is for
// programmatic detection.
func (e *UnsupportedReleaseError) Unwrap() error { return ErrReleaseUnsupported }

// DetectRelease determines the device software release, preferring the
// ReleaseEnvVar override, then the release file at path (DefaultReleaseFile
// when empty). The returned string is a dotted version like "36.4.3".
func DetectRelease(path string) (string, error) {
	if v := os.Getenv(ReleaseEnvVar); v != "" {
		return strings.TrimSpace(v), nil
	}

	if path == "" {
		path = DefaultReleaseFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrReleaseNotDetected, path, err)
	}

	return ParseTegraRelease(string(data))
}

// ParseTegraRelease extracts a dotted release version from the contents of
// an nv_tegra_release file. "# R36 (release), REVISION: 4.3, ..." yields
// "36.4.3".
func ParseTegraRelease(content string) (string, error) {
	m := tegraReleaseRe.FindStringSubmatch(content)
	if m == nil {
		return "", fmt.Errorf("%w: unrecognized release file format", ErrReleaseNotDetected)
	}
	return m[1] + "." + m[2], nil
}

// CheckRelease validates a detected release string against a version
// constraint such as ">=36". An empty constraint always passes.
func CheckRelease(release, constraint string) error {
	if constraint == "" {
		return nil
	}

	c, err := goversion.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("parse release constraint %q: %w", constraint, err)
	}

	v, err := goversion.NewVersion(release)
	if err != nil {
		return fmt.Errorf("parse platform release %q: %w", release, err)
	}

	if !c.Check(v) {
		return &UnsupportedReleaseError{Release: release, Constraint: constraint}
	}
	return nil
}

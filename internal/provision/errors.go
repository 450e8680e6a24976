// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"

	"awqprov/internal/container"
)

var (
	// ErrInstallFailed is the sentinel error wrapped by install PathErrors.
	ErrInstallFailed = errors.New("install path failed")
	// ErrBuildFailed is the sentinel error wrapped by build PathErrors.
	ErrBuildFailed = errors.New("build path failed")
	// ErrProvisionFailed is the sentinel error wrapped by ProvisionFailedError.
	ErrProvisionFailed = errors.New("provisioning failed")
	// ErrBaseImageRequired is returned when a BuildConfig has no base image.
	ErrBaseImageRequired = errors.New("base image is required")
	// ErrBaseImageUnresolvable is returned when the base image cannot be made
	// locally available before the first install/build step.
	ErrBaseImageUnresolvable = errors.New("base image unresolvable")
	// ErrScriptStaging is returned when the helper scripts cannot be staged
	// to the host filesystem.
	ErrScriptStaging = errors.New("script staging failed")
)

type (
	// PathError describes the failure of a single provisioning path
	// (install or build).
	PathError struct {
		// Path is the path that failed.
		Path Path
		// ExitCode is the script's exit status inside the container.
		ExitCode container.ExitCode
		// Cause carries infrastructure errors (engine invocation failures);
		// nil when the script simply exited non-zero.
		Cause error
	}

	// ProvisionFailedError is the terminal error when both paths fail.
	// It wraps the install and build PathErrors so callers can inspect
	// either via errors.Is/errors.As.
	ProvisionFailedError struct {
		// InstallErr is the install path failure; nil when the install path
		// was skipped (force-build).
		InstallErr error
		// BuildErr is the build path failure.
		BuildErr error
	}
)

// Error implements the error interface.
func (e *PathError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s path failed: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("%s path failed: script exited with code %d", e.Path, e.ExitCode)
}

// Unwrap returns the path's sentinel (and the infrastructure cause, if any)
// for errors.Is() compatibility.
func (e *PathError) Unwrap() []error {
	sentinel := ErrBuildFailed
	if e.Path == PathInstall {
		sentinel = ErrInstallFailed
	}
	if e.Cause != nil {
		return []error{sentinel, e.Cause}
	}
	return []error{sentinel}
}

// Error implements the error interface.
func (e *ProvisionFailedError) Error() string {
	if e.InstallErr == nil {
		return fmt.Sprintf("provisioning failed: %v", e.BuildErr)
	}
	return fmt.Sprintf("provisioning failed: %v; %v", e.InstallErr, e.BuildErr)
}

// Unwrap returns the underlying path errors plus ErrProvisionFailed for
// errors.Is() compatibility.
func (e *ProvisionFailedError) Unwrap() []error {
	errs := []error{ErrProvisionFailed}
	if e.InstallErr != nil {
		errs = append(errs, e.InstallErr)
	}
	if e.BuildErr != nil {
		errs = append(errs, e.BuildErr)
	}
	return errs
}

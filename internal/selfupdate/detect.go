// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	homebrewMacARM   = "/opt/homebrew/"
	homebrewMacIntel = "/usr/local/Cellar/"
	homebrewLinux    = "/home/linuxbrew/.linuxbrew/"

	// scriptInstallDir is where the shell install script places the binary.
	scriptInstallDir = "/.local/bin/"

	// modulePath confirms go-install origin via build info.
	modulePath = "awqprov"

	// InstallMethodUnknown indicates the install method could not be
	// determined, typically a manual download.
	InstallMethodUnknown InstallMethod = 0

	// InstallMethodScript indicates installation via the shell install script.
	InstallMethodScript InstallMethod = 1

	// InstallMethodHomebrew indicates installation via Homebrew. Upgrades
	// should go through `brew upgrade awqprov`.
	InstallMethodHomebrew InstallMethod = 2

	// InstallMethodGoInstall indicates installation via `go install`.
	InstallMethodGoInstall InstallMethod = 3
)

var (
	// installMethodHint is set via -ldflags at build time to override
	// detection entirely.
	//
	//nolint:gochecknoglobals // Build-time ldflags injection requires a package-level variable.
	installMethodHint string

	//nolint:gochecknoglobals // Test seam for debug.ReadBuildInfo.
	readBuildInfo = debug.ReadBuildInfo
)

// InstallMethod identifies how awqprov was installed. Script and unknown
// installs can be self-updated; Homebrew and go-install defer to their
// package managers.
type InstallMethod int

// String returns a human-readable name for the install method.
func (m InstallMethod) String() string {
	switch m {
	case InstallMethodScript:
		return "script"
	case InstallMethodHomebrew:
		return "homebrew"
	case InstallMethodGoInstall:
		return "goinstall"
	case InstallMethodUnknown:
	}
	return "unknown"
}

// DetectInstallMethod determines how awqprov was installed from the
// executable path and build information. The ldflags hint wins, then
// Homebrew path heuristics, then GOPATH/bin plus build-info confirmation,
// then the install-script directory.
func DetectInstallMethod(execPath string) InstallMethod {
	if installMethodHint != "" {
		return parseMethodHint(installMethodHint)
	}

	if strings.Contains(execPath, homebrewMacARM) ||
		strings.Contains(execPath, homebrewMacIntel) ||
		strings.Contains(execPath, homebrewLinux) {
		return InstallMethodHomebrew
	}

	// Both conditions are required: a manually placed binary in GOPATH/bin
	// must not be treated as a go install.
	if isInGOPATHBin(execPath) && hasModulePath() {
		return InstallMethodGoInstall
	}

	if strings.Contains(execPath, scriptInstallDir) {
		return InstallMethodScript
	}

	return InstallMethodUnknown
}

// parseMethodHint converts a build-time ldflags hint to an InstallMethod.
func parseMethodHint(hint string) InstallMethod {
	switch strings.ToLower(hint) {
	case "homebrew":
		return InstallMethodHomebrew
	case "goinstall":
		return InstallMethodGoInstall
	case "script":
		return InstallMethodScript
	default:
		return InstallMethodUnknown
	}
}

// isInGOPATHBin checks whether execPath is inside $GOPATH/bin, falling back
// to ~/go when GOPATH is unset (matching the toolchain default).
func isInGOPATHBin(execPath string) bool {
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return false
		}
		gopath = filepath.Join(home, "go")
	}

	gopathBin := filepath.Clean(filepath.Join(gopath, "bin"))
	cleanExec := filepath.Clean(execPath)

	// The trailing separator keeps /home/user/gobin from matching
	// /home/user/go/bin.
	return strings.HasPrefix(cleanExec, gopathBin+string(filepath.Separator)) ||
		cleanExec == gopathBin
}

// hasModulePath checks the binary's build info for the awqprov module path.
func hasModulePath() bool {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return false
	}
	return strings.Contains(info.Path, modulePath)
}

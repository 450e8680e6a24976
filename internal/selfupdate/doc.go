// SPDX-License-Identifier: MPL-2.0

// Package selfupdate upgrades the running awqprov binary in place from
// GitHub release archives. Managed installs (Homebrew, go install) are
// detected and deferred to their package managers; unmanaged installs are
// replaced atomically after checksum verification.
package selfupdate

// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer for container engines
// (Docker/Podman). Engines are driven through their CLI binaries; the
// BaseCLIEngine holds the shared argument building and process execution
// so the concrete engines only carry their genuinely different behavior
// (availability probing, version formats, SELinux labeling, rootless
// user-namespace handling).
package container

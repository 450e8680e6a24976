// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error reporting: ActionableError
// carries operation/resource context plus fix suggestions, and the issue
// catalog renders markdown help cards for the well-known provisioning
// failure modes (missing engine, unresolvable base image, exhausted
// install/build fallback, unsupported platform release).
package issue

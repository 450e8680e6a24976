// SPDX-License-Identifier: MPL-2.0

// Package platform provides host-platform utilities: OS name constants,
// application sandbox detection (Flatpak/Snap), and the device release
// gate that decides whether the target platform is new enough to carry
// the AutoAWQ CUDA kernels.
package platform

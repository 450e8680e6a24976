// SPDX-License-Identifier: MPL-2.0

// awqprov provisions container images with the AutoAWQ quantization library
// on top of CUDA-enabled base images, preferring prebuilt wheels and falling
// back to a source build when the wheels do not match the platform.
package main

func main() {
	Execute()
}

// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the awqprov configuration.
//
// Configuration is resolved from (lowest to highest precedence): built-in
// defaults, the config.cue file in the platform config directory, AWQPROV_*
// environment variables, and command-line flags. The config file is parsed
// as CUE and validated against the embedded #Config schema before being
// merged into Viper.
package config

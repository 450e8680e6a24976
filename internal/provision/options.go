// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

type (
	// Config holds provisioner-level settings that apply across runs, as
	// opposed to the per-run BuildConfig parameters.
	Config struct {
		// TagPrefix is the repository part of provisioned image tags.
		// Default: "awqprov-autoawq".
		TagPrefix string

		// TagSuffix is an optional suffix appended to provisioned image tags.
		// This enables test isolation by making each test's images unique.
		// Can be set via AWQPROV_PROVISION_TAG_SUFFIX.
		TagSuffix string

		// CacheDir is the root under which provisioning work directories
		// (staged scripts, bake contexts) are created. Empty selects the
		// sandbox-aware default root.
		CacheDir string

		// Output receives engine and script output. Default: os.Stderr.
		Output io.Writer

		// Logger logs provisioning progress. Default: a stderr logger with
		// the "provision" prefix.
		Logger *log.Logger
	}

	// Option is a functional option for configuring a Config.
	Option func(*Config)
)

// DefaultProvisionerConfig returns a Config with default values.
func DefaultProvisionerConfig() *Config {
	return &Config{
		TagPrefix: "awqprov-autoawq",
		TagSuffix: os.Getenv("AWQPROV_PROVISION_TAG_SUFFIX"),
		Output:    os.Stderr,
		Logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "provision",
		}),
	}
}

// WithTagPrefix returns an Option that sets TagPrefix on the config.
func WithTagPrefix(prefix string) Option {
	return func(c *Config) {
		c.TagPrefix = prefix
	}
}

// WithTagSuffix returns an Option that sets TagSuffix on the config.
// This is primarily used for test isolation so parallel tests don't compete
// for the same provisioned image tags.
func WithTagSuffix(suffix string) Option {
	return func(c *Config) {
		c.TagSuffix = suffix
	}
}

// WithCacheDir returns an Option that sets the root for provisioning work
// directories.
func WithCacheDir(dir string) Option {
	return func(c *Config) {
		c.CacheDir = dir
	}
}

// WithOutput returns an Option that redirects engine and script output.
func WithOutput(w io.Writer) Option {
	return func(c *Config) {
		c.Output = w
	}
}

// WithLogger returns an Option that sets the progress logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

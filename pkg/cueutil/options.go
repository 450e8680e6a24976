// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize caps parsed input at 1 MiB. Config files are small;
// anything larger is almost certainly the wrong file.
const DefaultMaxFileSize int64 = 1 << 20

type parseOptions struct {
	filename    string
	maxFileSize int64
	concrete    bool
}

// Option configures ParseAndDecode.
type Option func(*parseOptions)

func defaultOptions() parseOptions {
	return parseOptions{
		maxFileSize: DefaultMaxFileSize,
	}
}

// WithFilename sets the filename used in error messages.
func WithFilename(name string) Option {
	return func(o *parseOptions) {
		o.filename = name
	}
}

// WithMaxFileSize overrides the maximum accepted input size in bytes.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) {
		o.maxFileSize = size
	}
}

// WithConcrete requires every field of the unified value to be concrete,
// rejecting inputs that leave schema defaults unresolved.
func WithConcrete() Option {
	return func(o *parseOptions) {
		o.concrete = true
	}
}

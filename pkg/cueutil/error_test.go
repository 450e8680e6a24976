// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path []string
		want string
	}{
		{name: "empty", path: nil, want: ""},
		{name: "single field", path: []string{"engine"}, want: "engine"},
		{name: "nested", path: []string{"provision", "strict"}, want: "provision.strict"},
		{
			name: "array index",
			path: []string{"defaults", "compute_capabilities", "0"},
			want: "defaults.compute_capabilities[0]",
		},
		{name: "leading index stays literal", path: []string{"0", "name"}, want: "0.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatPath(tt.path); got != tt.want {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestFormatErrorNil(t *testing.T) {
	t.Parallel()

	if got := FormatError(nil, "config.cue"); got != nil {
		t.Errorf("FormatError(nil) = %v, want nil", got)
	}
}

func TestFormatErrorNonCUE(t *testing.T) {
	t.Parallel()

	cause := errors.New("read failed")
	got := FormatError(cause, "config.cue")
	if got == nil || !strings.Contains(got.Error(), "config.cue") {
		t.Fatalf("FormatError() = %v, want file-prefixed error", got)
	}
	if !errors.Is(got, cause) {
		t.Error("FormatError() should wrap the original error")
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "config.cue"); err != nil {
		t.Errorf("size at limit should pass: %v", err)
	}
	if err := CheckFileSize(make([]byte, 101), 100, "config.cue"); err == nil {
		t.Error("size over limit should fail")
	}
	if err := CheckFileSize(nil, 100, "config.cue"); err != nil {
		t.Errorf("empty input should pass: %v", err)
	}
}

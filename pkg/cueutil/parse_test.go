// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Settings: {
	engine: "podman" | "docker" | *"podman"
	strict: bool | *false
	tags: [...string]
}
`

type testSettings struct {
	Engine string   `json:"engine"`
	Strict bool     `json:"strict"`
	Tags   []string `json:"tags"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	data := []byte(`
engine: "docker"
strict: true
tags: ["a", "b"]
`)

	result, err := ParseAndDecode[testSettings]([]byte(testSchema), data, "#Settings")
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if result.Value.Engine != "docker" {
		t.Errorf("Engine = %q, want docker", result.Value.Engine)
	}
	if !result.Value.Strict {
		t.Error("Strict = false, want true")
	}
	if len(result.Value.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 entries", result.Value.Tags)
	}
}

func TestParseAndDecodeAppliesDefaults(t *testing.T) {
	t.Parallel()

	result, err := ParseAndDecode[testSettings]([]byte(testSchema), []byte(`tags: []`), "#Settings")
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if result.Value.Engine != "podman" {
		t.Errorf("Engine = %q, want schema default podman", result.Value.Engine)
	}
	if result.Value.Strict {
		t.Error("Strict = true, want schema default false")
	}
}

func TestParseAndDecodeRejectsSchemaViolation(t *testing.T) {
	t.Parallel()

	data := []byte(`engine: "containerd"`)

	_, err := ParseAndDecode[testSettings]([]byte(testSchema), data, "#Settings",
		WithFilename("config.cue"))
	if err == nil {
		t.Fatal("ParseAndDecode() expected error for disallowed engine value")
	}
	if !strings.Contains(err.Error(), "config.cue") {
		t.Errorf("error should name the file: %v", err)
	}
	if !strings.Contains(err.Error(), "engine") {
		t.Errorf("error should name the invalid field: %v", err)
	}
}

func TestParseAndDecodeRejectsSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[testSettings]([]byte(testSchema), []byte(`engine: "`), "#Settings")
	if err == nil {
		t.Fatal("ParseAndDecode() expected error for malformed input")
	}
}

func TestParseAndDecodeUnknownSchemaPath(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[testSettings]([]byte(testSchema), []byte(`{}`), "#Missing")
	if err == nil || !strings.Contains(err.Error(), "#Missing") {
		t.Fatalf("ParseAndDecode() error = %v, want schema definition not found", err)
	}
}

func TestParseAndDecodeFileSizeLimit(t *testing.T) {
	t.Parallel()

	big := []byte(strings.Repeat("// padding\n", 20))
	_, err := ParseAndDecode[testSettings]([]byte(testSchema), big, "#Settings",
		WithMaxFileSize(16), WithFilename("config.cue"))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Fatalf("ParseAndDecode() error = %v, want size limit error", err)
	}
}

package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultMatchesStockLayout(t *testing.T) {
	r := Default()

	if r.SDKSubdir != "sdk_files" {
		t.Errorf("SDKSubdir = %q", r.SDKSubdir)
	}
	if r.CommonMakefile != "../../../../../../components/toolchain/gcc/Makefile.common" {
		t.Errorf("CommonMakefile = %q", r.CommonMakefile)
	}
	if !r.SkipsInclude("../../../config") {
		t.Error("default rules should skip ../../../config")
	}
	if r.SkipsInclude("../config") {
		t.Error("default rules must not skip ../config")
	}
	if r.Toolchain.LegacyPath != "/usr/local/gcc-arm-none-eabi-9-2020-q2-update/bin/" {
		t.Errorf("Toolchain.LegacyPath = %q", r.Toolchain.LegacyPath)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeRules(t, "sdk_subdir: vendor_sdk\ncflags:\n  anchor: \"CFLAGS += -O3\"\n  add:\n    - \"CFLAGS += -g\"\n")

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if r.SDKSubdir != "vendor_sdk" {
		t.Errorf("SDKSubdir = %q, want overridden value", r.SDKSubdir)
	}
	if r.CFlags.Anchor != "CFLAGS += -O3" {
		t.Errorf("CFlags.Anchor = %q", r.CFlags.Anchor)
	}
	// Untouched fields keep their defaults.
	if r.Toolchain.Path != "/usr/local/bin/" {
		t.Errorf("Toolchain.Path = %q, want default", r.Toolchain.Path)
	}
	if !r.SkipsInclude("../../../config") {
		t.Error("default skip_includes lost during overlay")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeRules(t, "sdk_subdirs: typo\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load should reject unknown keys")
	}
	if !strings.Contains(err.Error(), "invalid") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadRejectsSubdirWithSeparator(t *testing.T) {
	path := writeRules(t, "sdk_subdir: nested/dir\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load should reject a subdir containing a separator")
	}
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := writeRules(t, "")

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.SDKSubdir != "sdk_files" {
		t.Errorf("SDKSubdir = %q, want default", r.SDKSubdir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
}

func TestValidateIssuesNamePath(t *testing.T) {
	result, err := Validate([]byte("sdk_subdir: 7\n"))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Fatal("numeric sdk_subdir should be invalid")
	}
	found := false
	for _, issue := range result.Issues {
		if issue.Path == "/sdk_subdir" {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %+v, want one at /sdk_subdir", result.Issues)
	}
}

func TestCheckToolVersion(t *testing.T) {
	tests := []struct {
		name    string
		min     string
		current string
		wantErr bool
	}{
		{"no minimum", "", "0.1.0", false},
		{"dev build skips", "1.0.0", "dev", false},
		{"satisfied", "1.0.0", "1.2.3", false},
		{"satisfied with v prefix", "v1.0.0", "v1.0.0", false},
		{"too old", "2.0.0", "1.9.9", true},
		{"unparseable current", "1.0.0", "not-a-version", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			r.MinToolVersion = tt.min
			err := r.CheckToolVersion(tt.current)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckToolVersion(%q) with min %q: err = %v, wantErr %v", tt.current, tt.min, err, tt.wantErr)
			}
		})
	}
}

//go:build integration

package integration_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emx-labs/emx/internal/extract"
	"github.com/emx-labs/emx/internal/rules"
)

func TestExtractEndToEnd(t *testing.T) {
	env := setupTestEnv(t)

	var log bytes.Buffer
	report, err := extract.Run(extract.Options{
		ProjectFile: env.ProjectFile,
		OutputDir:   env.OutputDir,
		MakefileDir: env.MakefileDir,
		Log:         &log,
	})
	if err != nil {
		t.Fatalf("Run failed: %v\nlog:\n%s", err, log.String())
	}
	if len(report.Warnings) != 0 {
		t.Errorf("expected a clean run, got warnings: %v", report.Warnings)
	}

	// Relocated SDK content.
	assertFileExists(t, filepath.Join(env.OutputDir, "sdk_files", "components", "boards", "boards.c"))
	assertFileExists(t, filepath.Join(env.OutputDir, "sdk_files", "components", "libraries", "util", "app_error.c"))
	assertFileExists(t, filepath.Join(env.OutputDir, "sdk_files", "components", "toolchain", "gcc", "Makefile.common"))
	assertFileExists(t, filepath.Join(env.OutputDir, "sdk_files", "modules", "nrfx", "mdk", "nrf52840.svd"))
	assertFileExists(t, filepath.Join(env.OutputDir, "config", "sdk_config.h"))
	assertFileExists(t, filepath.Join(env.OutputDir, "flash_placement.xml"))
	assertFileExists(t, filepath.Join(env.OutputDir, "blinky_gcc_nrf52.ld"))

	// Rewritten descriptor.
	proj := filepath.Join(env.OutputDir, "blinky.emProject")
	assertContains(t, proj, `c_user_include_directories="sdk_files/components/boards;sdk_files/components/libraries/util;sdk_files/components/toolchain/gcc;config;."`)
	assertContains(t, proj, `file_name="sdk_files/components/boards/boards.c"`)
	assertContains(t, proj, `file_name="config/sdk_config.h"`)
	assertContains(t, proj, `debug_register_definition_file="sdk_files/modules/nrfx/mdk/nrf52840.svd"`)
	data, err := os.ReadFile(proj)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "../../../../../../") {
		t.Errorf("descriptor still references the external SDK:\n%s", data)
	}

	// Rewritten Makefile.
	mk := filepath.Join(env.OutputDir, "Makefile")
	assertContains(t, mk, "PROJ_DIR := ./")
	assertContains(t, mk, "SDK_ROOT := $(PROJ_DIR)/sdk_files")
	assertContains(t, mk, "CFLAGS += -Wall -Werror")
	assertContains(t, mk, "$(SDK_ROOT)/main.c")
	assertContains(t, mk, "$(PROJ_DIR)/config/sdk_config.h")
	assertContains(t, mk, "-I$(PROJ_DIR)/config")
	mkData, err := os.ReadFile(mk)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(mkData), "PROJ_DIR := ../../..") {
		t.Error("legacy PROJ_DIR definition survived the rewrite")
	}
	if !report.MakefileRewritten {
		t.Error("report does not record the Makefile rewrite")
	}

	// Toolchain path fixup in the relocated sub-makefile.
	assertContains(t,
		filepath.Join(env.OutputDir, "sdk_files", "components", "toolchain", "gcc", "Makefile.posix"),
		"GNU_INSTALL_ROOT ?= /usr/local/bin/")

	if report.ItemsCopied == 0 || report.Replacements == 0 {
		t.Errorf("report looks empty: %+v", report)
	}
}

func TestExtractWithRulesFile(t *testing.T) {
	env := setupTestEnv(t)

	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	writeFile(t, rulesPath, "sdk_subdir: nrf_sdk\ncflags:\n  anchor: \"CFLAGS += -fno-builtin -fshort-enums\"\n  add:\n    - \"CFLAGS += -Og\"\n")

	r, err := rules.Load(rulesPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if r.SDKSubdir != "nrf_sdk" {
		t.Fatalf("SDKSubdir = %q, want nrf_sdk", r.SDKSubdir)
	}
	if r.CommonMakefile == "" {
		t.Fatal("defaults were not preserved under the overlay")
	}

	report, err := extract.Run(extract.Options{
		ProjectFile: env.ProjectFile,
		OutputDir:   env.OutputDir,
		MakefileDir: env.MakefileDir,
		Rules:       r,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	assertFileExists(t, filepath.Join(env.OutputDir, "nrf_sdk", "components", "boards", "boards.c"))
	assertContains(t, filepath.Join(env.OutputDir, "blinky.emProject"), `file_name="nrf_sdk/components/boards/boards.c"`)
	assertContains(t, filepath.Join(env.OutputDir, "Makefile"), "SDK_ROOT := $(PROJ_DIR)/nrf_sdk")
	assertContains(t, filepath.Join(env.OutputDir, "Makefile"), "CFLAGS += -Og")
	if report.SDKSubdir != "nrf_sdk" {
		t.Errorf("report SDKSubdir = %q, want nrf_sdk", report.SDKSubdir)
	}
}

func TestExtractReportFile(t *testing.T) {
	env := setupTestEnv(t)

	report, err := extract.Run(extract.Options{
		ProjectFile: env.ProjectFile,
		OutputDir:   env.OutputDir,
		MakefileDir: env.MakefileDir,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	reportPath := filepath.Join(env.OutputDir, "extract-report.yaml")
	if err := report.WriteFile(reportPath); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	assertContains(t, reportPath, "sdk_subdir: sdk_files")
	assertContains(t, reportPath, "makefile_rewritten: true")
	assertContains(t, reportPath, "items_copied:")
}

func TestExtractRerunIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)

	opts := extract.Options{
		ProjectFile: env.ProjectFile,
		OutputDir:   env.OutputDir,
		MakefileDir: env.MakefileDir,
	}
	if _, err := extract.Run(opts); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Files a user added to the output must survive a re-extraction.
	writeFile(t, filepath.Join(env.OutputDir, "NOTES.txt"), "local notes\n")

	if _, err := extract.Run(opts); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	assertFileExists(t, filepath.Join(env.OutputDir, "NOTES.txt"))
	mk, err := os.ReadFile(filepath.Join(env.OutputDir, "Makefile"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(mk), "PROJ_DIR := ./"); n != 1 {
		t.Errorf("PROJ_DIR defined %d times after re-run, want 1", n)
	}
}

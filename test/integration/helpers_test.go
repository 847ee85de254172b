//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds the paths of a synthetic SDK tree with an example project
// nested six levels below the SDK root, the way vendor SDKs ship them.
type testEnv struct {
	SDKRoot     string // root of the synthetic SDK
	ProjectFile string // .emProject descriptor inside the SDK
	MakefileDir string // armgcc directory next to the descriptor
	OutputDir   string // empty directory for the standalone output
}

// setupTestEnv fabricates the SDK layout an extraction run expects:
// toolchain makefiles, a board support directory, an SVD register file, a
// config directory, the descriptor, and a gcc Makefile with linker script.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sdk := t.TempDir()
	s140 := filepath.Join(sdk, "examples", "peripheral", "blinky", "pca10056", "s140")

	files := map[string]string{
		"components/toolchain/gcc/Makefile.common": "# common build rules\n",
		"components/toolchain/gcc/Makefile.posix":  "GNU_INSTALL_ROOT ?= /usr/local/gcc-arm-none-eabi-9-2020-q2-update/bin/\nGNU_PREFIX ?= arm-none-eabi\n",
		"components/boards/boards.c":               "// board support\n",
		"components/boards/boards.h":               "// board support header\n",
		"components/libraries/util/app_error.c":    "// error helpers\n",
		"modules/nrfx/mdk/nrf52840.svd":            "<device/>\n",
		"main.c":                                   "int main(void) { return 0; }\n",
	}
	for rel, content := range files {
		writeFile(t, filepath.Join(sdk, filepath.FromSlash(rel)), content)
	}

	writeFile(t, filepath.Join(s140, "config", "sdk_config.h"), "#define SDK_CONFIG 1\n")
	writeFile(t, filepath.Join(s140, "ses", "flash_placement.xml"), "<Root/>\n")
	writeFile(t, filepath.Join(s140, "ses", "blinky.emProject"), descriptorFixture)
	writeFile(t, filepath.Join(s140, "armgcc", "Makefile"), makefileFixture)
	writeFile(t, filepath.Join(s140, "armgcc", "blinky_gcc_nrf52.ld"), "MEMORY { FLASH : ORIGIN = 0x0 }\n")

	return &testEnv{
		SDKRoot:     sdk,
		ProjectFile: filepath.Join(s140, "ses", "blinky.emProject"),
		MakefileDir: filepath.Join(s140, "armgcc"),
		OutputDir:   t.TempDir(),
	}
}

const descriptorFixture = `<!DOCTYPE CrossStudio_Project_File>
<solution Name="blinky" target="8" version="2">
  <project Name="blinky_pca10056">
    <configuration
      Name="Common"
      c_user_include_directories="../../../../../../components/boards;../../../../../../components/libraries/util;../../../../../../components/toolchain/gcc;../../../config;../config;."
      debug_register_definition_file="../../../../../../modules/nrfx/mdk/nrf52840.svd"
      linker_section_placement_file="flash_placement.xml" />
    <folder Name="Board">
      <file file_name="../../../../../../components/boards/boards.c" />
      <file file_name="../../../../../../components/libraries/util/app_error.c" />
    </folder>
    <folder Name="Application">
      <file file_name="../config/sdk_config.h" />
      <file file_name="flash_placement.xml" />
    </folder>
  </project>
</solution>
`

const makefileFixture = `PROJECT_NAME := blinky
SDK_ROOT := ../../../../../..
PROJ_DIR := ../../..

SRC_FILES += \
  $(PROJ_DIR)/main.c \
  $(SDK_ROOT)/components/boards/boards.c \
  ../config/sdk_config.h \

INC_FOLDERS += \
  ../config \
  -I../config

CFLAGS += -fno-builtin -fshort-enums
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file missing: %v", err)
	}
}

func assertContains(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !strings.Contains(string(data), want) {
		t.Errorf("%s missing %q:\n%s", path, want, data)
	}
}

package rules

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Rules carries every tunable value of an extraction run. Fields left
// empty in a rules file keep their default.
type Rules struct {
	// SDKSubdir is the relocation subdirectory name under the output
	// root, e.g. "sdk_files".
	SDKSubdir string `yaml:"sdk_subdir"`
	// CommonMakefile is the descriptor-relative path of the shared
	// toolchain makefile include copied before any other analysis.
	CommonMakefile string `yaml:"common_makefile"`
	// SkipIncludes lists include-directory entries removed from the
	// include list outright, with no replacement emitted.
	SkipIncludes []string `yaml:"skip_includes"`
	// CFlags configures the compiler-flag insertion in the Makefile.
	CFlags CFlags `yaml:"cflags"`
	// Toolchain configures the hard-coded compiler path fixup in the
	// relocated toolchain sub-makefile.
	Toolchain Toolchain `yaml:"toolchain"`
	// MinToolVersion, when set, refuses the run on older tool builds.
	MinToolVersion string `yaml:"min_tool_version"`
}

// CFlags names the anchor line and the flag lines inserted after it.
type CFlags struct {
	Anchor string   `yaml:"anchor"`
	Add    []string `yaml:"add"`
}

// Toolchain names the legacy compiler installation directory and its
// replacement.
type Toolchain struct {
	LegacyPath string `yaml:"legacy_path"`
	Path       string `yaml:"path"`
}

// Default returns the built-in rule set matching the stock SDK layout.
func Default() *Rules {
	return &Rules{
		SDKSubdir:      "sdk_files",
		CommonMakefile: "../../../../../../components/toolchain/gcc/Makefile.common",
		SkipIncludes:   []string{"../../../config"},
		CFlags: CFlags{
			Anchor: "CFLAGS += -fno-builtin -fshort-enums",
			Add:    []string{"CFLAGS += -Wall -Werror", "CFLAGS += -Wno-array-bounds"},
		},
		Toolchain: Toolchain{
			LegacyPath: "/usr/local/gcc-arm-none-eabi-9-2020-q2-update/bin/",
			Path:       "/usr/local/bin/",
		},
	}
}

// Load reads a rules file, validates it against the embedded schema, and
// returns the defaults overlaid with the file's values.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file %s: %w", path, err)
	}

	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating rules file %s: %w", path, err)
	}
	if !result.Valid {
		var msgs []string
		for _, issue := range result.Issues {
			msgs = append(msgs, issue.Path+": "+issue.Message)
		}
		return nil, fmt.Errorf("rules file %s is invalid:\n  %s", path, strings.Join(msgs, "\n  "))
	}

	r := Default()
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	return r, nil
}

// SkipsInclude reports whether an include entry is scheduled for removal.
func (r *Rules) SkipsInclude(entry string) bool {
	for _, skip := range r.SkipIncludes {
		if entry == skip {
			return true
		}
	}
	return false
}

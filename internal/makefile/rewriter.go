package makefile

import (
	"fmt"
	"regexp"
	"strings"
)

// configFileRe matches a reference to any file under ../config/.
var configFileRe = regexp.MustCompile(`\.\./config/\S+`)

// Config carries the tunable values for the transform pipeline. The zero
// value is not usable; populate every field (rules.Default provides the
// stock values).
type Config struct {
	// Subdir is the relocation subdirectory name, e.g. "sdk_files".
	Subdir string
	// CFlagsAnchor is the compiler-flags line the extra flags are
	// inserted after.
	CFlagsAnchor string
	// CFlagsAdd are the flag lines inserted after the anchor.
	CFlagsAdd []string
}

// Transform is one ordered rewrite step. Apply returns the new text and
// how many times the step's pattern matched; Warn is logged when the count
// is zero.
type Transform struct {
	Name  string
	Apply func(text string) (string, int)
	Warn  string
}

// Rewrite runs the full transform pipeline over Makefile text and returns
// the rewritten text plus one warning per transform whose pattern never
// matched. Order is load-bearing: the legacy-definition cleanup must run
// after the root variables are established.
func Rewrite(text string, cfg Config) (string, []string) {
	var warnings []string
	for _, tr := range Pipeline(cfg) {
		var n int
		text, n = tr.Apply(text)
		if n == 0 && tr.Warn != "" {
			warnings = append(warnings, tr.Warn)
		}
	}
	return text, warnings
}

// Pipeline returns the fixed transform sequence for the project Makefile.
func Pipeline(cfg Config) []Transform {
	return []Transform{
		{
			Name:  "define-root-variables",
			Apply: func(text string) (string, int) { return defineRootVariables(text, cfg.Subdir) },
			Warn:  "original SDK_ROOT pattern not found; added PROJ_DIR and SDK_ROOT definitions near the top",
		},
		{
			Name:  "insert-cflags",
			Apply: func(text string) (string, int) { return insertCFlags(text, cfg.CFlagsAnchor, cfg.CFlagsAdd) },
			Warn:  fmt.Sprintf("target line %q not found; additional CFLAGS were not inserted", cfg.CFlagsAnchor),
		},
		{
			Name:  "retarget-config-includes",
			Apply: retargetConfigIncludes,
		},
		{
			Name:  "retarget-config-files",
			Apply: retargetConfigFiles,
		},
		{
			Name:  "retarget-config-continuation",
			Apply: retargetConfigContinuation,
		},
		{
			Name:  "retarget-relocated-main",
			Apply: retargetRelocatedMain,
		},
		{
			Name:  "drop-legacy-proj-dir",
			Apply: dropLegacyProjDir,
		},
	}
}

const (
	projDirLine = "PROJ_DIR := ./"
	// legacyProjDirPrefix identifies a leftover multi-level PROJ_DIR
	// definition that would override the one established above.
	legacyProjDirPrefix = "PROJ_DIR := ../../.."
)

// sdkRootDefinition returns the new SDK_ROOT line for a given subdir.
func sdkRootDefinition(subdir string) string {
	return "SDK_ROOT := $(PROJ_DIR)/" + subdir
}

// isLegacySDKRootLine matches "SDK_ROOT := ../../../../../.." allowing
// whitespace variation around ":=".
func isLegacySDKRootLine(line string) bool {
	rest, ok := strings.CutPrefix(line, "SDK_ROOT")
	if !ok {
		return false
	}
	rest = strings.TrimLeft(rest, " \t")
	rest, ok = strings.CutPrefix(rest, ":=")
	if !ok {
		return false
	}
	rest = strings.TrimLeft(rest, " \t")
	return strings.HasPrefix(rest, "../../../../../..")
}

// defineRootVariables replaces the legacy SDK_ROOT definition with a
// PROJ_DIR line followed by an SDK_ROOT defined in terms of it. When the
// legacy pattern is absent the two definitions are inserted after the
// PROJECT_NAME declaration (or at the very top) and the zero count tells
// the pipeline to warn.
func defineRootVariables(text, subdir string) (string, int) {
	lines := strings.Split(text, "\n")
	var out []string

	replaced := 0
	for _, line := range lines {
		if replaced == 0 && isLegacySDKRootLine(line) {
			out = append(out, projDirLine, sdkRootDefinition(subdir))
			replaced++
			continue
		}
		out = append(out, line)
	}

	if replaced == 0 {
		insertAt := 0
		for i, line := range out {
			if strings.HasPrefix(line, "PROJECT_NAME") {
				insertAt = i + 1
				break
			}
		}
		inserted := append([]string{}, out[:insertAt]...)
		inserted = append(inserted, projDirLine, sdkRootDefinition(subdir))
		inserted = append(inserted, out[insertAt:]...)
		out = inserted
	}

	return strings.Join(out, "\n"), replaced
}

// insertCFlags adds the extra flag lines immediately after each occurrence
// of the anchor line.
func insertCFlags(text, anchor string, add []string) (string, int) {
	if anchor == "" || len(add) == 0 {
		return text, 0
	}

	lines := strings.Split(text, "\n")
	var out []string

	inserted := 0
	for _, line := range lines {
		out = append(out, line)
		if strings.TrimSpace(line) == anchor {
			out = append(out, add...)
			inserted++
		}
	}

	return strings.Join(out, "\n"), inserted
}

// retargetConfigIncludes rewrites every "-I../config" include flag to
// resolve via the project-root variable.
func retargetConfigIncludes(text string) (string, int) {
	const old = "-I../config"
	n := strings.Count(text, old)
	return strings.ReplaceAll(text, old, "-I$(PROJ_DIR)/config"), n
}

// retargetConfigFiles rewrites "../config/<rest>" references, preserving
// the sub-path after config/.
func retargetConfigFiles(text string) (string, int) {
	matches := configFileRe.FindAllString(text, -1)
	out := configFileRe.ReplaceAllStringFunc(text, func(m string) string {
		return "$(PROJ_DIR)/config/" + strings.TrimPrefix(m, "../config/")
	})
	return out, len(matches)
}

// retargetConfigContinuation rewrites the remaining "../config \"
// line-continuation form.
func retargetConfigContinuation(text string) (string, int) {
	const old = "../config \\\n"
	n := strings.Count(text, old)
	return strings.ReplaceAll(text, old, "$(PROJ_DIR)/config \\\n"), n
}

// retargetRelocatedMain points the one top-level source file that moved
// with the SDK copy at the SDK root instead of the project root.
func retargetRelocatedMain(text string) (string, int) {
	const old = "$(PROJ_DIR)/main.c "
	n := strings.Count(text, old)
	return strings.ReplaceAll(text, old, "$(SDK_ROOT)/main.c "), n
}

// dropLegacyProjDir deletes any leftover line redefining PROJ_DIR with the
// legacy multi-level-upward pattern, which would override the definition
// established by defineRootVariables. Also keeps repeated runs clean.
func dropLegacyProjDir(text string) (string, int) {
	lines := strings.Split(text, "\n")
	var out []string

	dropped := 0
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), legacyProjDirPrefix) {
			dropped++
			continue
		}
		out = append(out, line)
	}

	return strings.Join(out, "\n"), dropped
}

// RetargetToolchain replaces the hard-coded toolchain installation
// directory in a toolchain sub-makefile (Makefile.posix) with the generic
// one, leaving surrounding text such as the trailing binary name intact.
func RetargetToolchain(text, legacyPath, newPath string) (string, int) {
	n := strings.Count(text, legacyPath)
	return strings.ReplaceAll(text, legacyPath, newPath), n
}

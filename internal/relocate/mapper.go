package relocate

import (
	"path"
	"path/filepath"
	"strings"
)

// Mapper computes where an SDK-classified reference lands in the output
// tree and what the rewritten reference text becomes. Both results are a
// pure function of the reference and the configured subdirectory name, so
// mapping the same reference twice always yields identical output.
type Mapper struct {
	// OutputDir is the absolute path of the output root.
	OutputDir string
	// Subdir is the relocation subdirectory name, e.g. "sdk_files".
	Subdir string
}

// Map returns the absolute destination path and the new reference text for
// an SDK-style reference. The new reference always uses forward slashes and
// starts with the relocation subdirectory; the destination joins the same
// segments with host separators. Degraded is true when the reference had no
// segments left after dropping upward traversals, in which case only its
// final component is used — callers should warn but continue.
func (m Mapper) Map(ref string) (dest, newRef string, degraded bool) {
	parts := strings.Split(strings.ReplaceAll(ref, `\`, "/"), "/")

	var kept []string
	for _, part := range parts {
		if part != ".." {
			kept = append(kept, part)
		}
	}

	if len(kept) == 0 {
		newRef = m.Subdir + "/" + path.Base(strings.ReplaceAll(ref, `\`, "/"))
		degraded = true
	} else {
		newRef = m.Subdir + "/" + strings.Join(kept, "/")
	}

	segments := append([]string{m.OutputDir}, strings.Split(newRef, "/")...)
	dest = filepath.Join(segments...)
	return dest, newRef, degraded
}

package descriptor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// legacySDKPrefix is the six-level upward-traversal prefix the catch-all
// substitution retargets after every scheduled replacement has run.
const legacySDKPrefix = "../../../../../../"

// Replacement is one scheduled attribute rewrite: every literal occurrence
// of Attr="Old" in the document becomes Attr="New".
type Replacement struct {
	Attr string
	Old  string
	New  string
}

// token returns the exact text the replacement matches, used for
// length-descending ordering.
func (r Replacement) token() string {
	return r.Attr + `="` + r.Old + `"`
}

// Rewriter accumulates scheduled replacements during analysis and applies
// them to the original descriptor text in one pass.
type Rewriter struct {
	// Subdir is the relocation subdirectory name used by the catch-all
	// prefix substitution.
	Subdir string

	repls []Replacement
}

// NewRewriter returns a Rewriter with an empty schedule.
func NewRewriter(subdir string) *Rewriter {
	return &Rewriter{Subdir: subdir}
}

// Schedule records an attribute rewrite to apply later. Scheduling the
// same pair twice is harmless; the second application finds no match.
func (rw *Rewriter) Schedule(attr, old, new string) {
	rw.repls = append(rw.repls, Replacement{Attr: attr, Old: old, New: new})
}

// Scheduled returns the number of replacements recorded so far.
func (rw *Rewriter) Scheduled() int {
	return len(rw.repls)
}

// Apply rewrites text and returns the new text, the total number of
// substitutions (scheduled plus catch-all), and a warning per scheduled
// entry that never matched — a tracked-but-unfound occurrence signals a
// mismatch between analysis and content and must not be dropped silently.
//
// Entries are applied longest-first so a value that is a substring of a
// longer value can never corrupt it. Attribute names match
// case-insensitively; values match exactly as discovered during analysis.
func (rw *Rewriter) Apply(text string) (string, int, []string) {
	sorted := make([]Replacement, len(rw.repls))
	copy(sorted, rw.repls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].token()) > len(sorted[j].token())
	})

	total := 0
	var warnings []string

	for _, r := range sorted {
		pattern := `(?i:` + regexp.QuoteMeta(r.Attr) + `)="` + regexp.QuoteMeta(r.Old) + `"`
		re := regexp.MustCompile(pattern)

		n := len(re.FindAllStringIndex(text, -1))
		if n == 0 {
			warnings = append(warnings, fmt.Sprintf("scheduled replacement never matched: %s", r.token()))
			continue
		}

		text = re.ReplaceAllLiteralString(text, r.Attr+`="`+r.New+`"`)
		total += n
	}

	// Catch-all for path forms not individually tracked.
	if n := strings.Count(text, legacySDKPrefix); n > 0 {
		text = strings.ReplaceAll(text, legacySDKPrefix, rw.Subdir+"/")
		total += n
	}

	return text, total, warnings
}

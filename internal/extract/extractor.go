package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emx-labs/emx/internal/copier"
	"github.com/emx-labs/emx/internal/descriptor"
	"github.com/emx-labs/emx/internal/makefile"
	"github.com/emx-labs/emx/internal/relocate"
	"github.com/emx-labs/emx/internal/rules"
)

// Options configures an extraction run.
type Options struct {
	// ProjectFile is the path to the source project descriptor.
	ProjectFile string
	// OutputDir is where the standalone project is created.
	OutputDir string
	// MakefileDir overrides the directory containing the build Makefile.
	// Empty means the project descriptor's directory.
	MakefileDir string
	// Rules carries the tunable constants; nil means rules.Default().
	Rules *rules.Rules
	// Log receives progress and warning lines; nil discards them.
	Log io.Writer
}

// extractor holds the state of one run. All of it lives and dies within a
// single Run call; there is no state between runs beyond the output tree.
type extractor struct {
	rules *rules.Rules
	log   io.Writer

	projFile string // absolute descriptor path
	projDir  string // anchor for descriptor-relative references
	outDir   string // absolute output root
	mfDir    string // anchor for the build Makefile

	mapper   relocate.Mapper
	copier   *copier.Copier
	rewriter *descriptor.Rewriter
	report   *Report

	configSrc    string
	configCopied bool
}

// Run performs a full extraction. The returned error is fatal (unreadable
// input, unwritable output descriptor); everything else surfaces as
// warnings on the report and the run continues.
func Run(opts Options) (*Report, error) {
	e, err := newExtractor(opts)
	if err != nil {
		return nil, err
	}

	e.logf("Input project: %s", e.projFile)
	e.logf("Output directory: %s", e.outDir)
	if opts.MakefileDir != "" {
		e.logf("Using Makefile directory: %s", e.mfDir)
	}

	content, err := os.ReadFile(e.projFile)
	if err != nil {
		return nil, fmt.Errorf("reading project file %s: %w", e.projFile, err)
	}

	if err := os.MkdirAll(filepath.Join(e.outDir, e.rules.SDKSubdir), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	e.copyCommonMakefile()

	analysis, err := descriptor.Analyze(content)
	if err != nil {
		e.warnf("%v; skipping analysis, descriptor will be copied without path rewriting", err)
		analysis = nil
	}

	e.copyConfigDir()

	if analysis != nil {
		if analysis.HasCommon {
			e.processIncludeDirs(analysis)
			e.processFiles(analysis)
			e.processPathAttrs(analysis)
		} else {
			e.warnf("no <configuration Name=\"Common\"> element found for analysis")
		}
	}

	if err := e.writeDescriptor(string(content)); err != nil {
		return e.report, err
	}

	e.processMakefile()
	e.fixToolchainMakefile()

	return e.report, nil
}

func newExtractor(opts Options) (*extractor, error) {
	r := opts.Rules
	if r == nil {
		r = rules.Default()
	}
	log := opts.Log
	if log == nil {
		log = io.Discard
	}

	projFile, err := filepath.Abs(opts.ProjectFile)
	if err != nil {
		return nil, fmt.Errorf("resolving project file path: %w", err)
	}
	outDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory path: %w", err)
	}

	projDir := filepath.Dir(projFile)
	mfDir := projDir
	if opts.MakefileDir != "" {
		mfDir, err = filepath.Abs(opts.MakefileDir)
		if err != nil {
			return nil, fmt.Errorf("resolving Makefile directory path: %w", err)
		}
	}

	return &extractor{
		rules:    r,
		log:      log,
		projFile: projFile,
		projDir:  projDir,
		outDir:   outDir,
		mfDir:    mfDir,
		mapper:   relocate.Mapper{OutputDir: outDir, Subdir: r.SDKSubdir},
		copier:   copier.New(),
		rewriter: descriptor.NewRewriter(r.SDKSubdir),
		report: &Report{
			ProjectFile: projFile,
			OutputDir:   outDir,
			SDKSubdir:   r.SDKSubdir,
		},
	}, nil
}

func (e *extractor) logf(format string, args ...interface{}) {
	fmt.Fprintf(e.log, format+"\n", args...)
}

func (e *extractor) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(e.log, "Warning: %s\n", msg)
	e.report.Warnings = append(e.report.Warnings, msg)
}

// copyCommonMakefile relocates the shared toolchain makefile include
// before any other analysis, and seeds the copied-set so later references
// to it skip their own copy.
func (e *extractor) copyCommonMakefile() {
	ref := e.rules.CommonMakefile
	src := relocate.Resolve(e.projDir, ref)
	dest, _, _ := e.mapper.Map(ref)

	if err := e.copier.Copy(src, dest); err != nil {
		e.warnf("failed to copy common toolchain makefile: %v", err)
		return
	}
	e.copier.Mark(src)
	e.report.ItemsCopied++
	e.logf("Copied common toolchain makefile to %s", dest)
}

// copyConfigDir copies the local configuration directory wholesale to the
// output root. Its contents are marked copied so file references inside it
// get path rewrites without re-copying.
func (e *extractor) copyConfigDir() {
	src := relocate.Resolve(e.projDir, relocate.ConfigRef)
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return
	}

	e.logf("Copying config directory...")
	dest := filepath.Join(e.outDir, "config")
	if err := e.copier.Copy(src, dest); err != nil {
		e.warnf("failed to copy config directory %s: %v", src, err)
		return
	}

	e.copier.MarkTree(src)
	e.configSrc = src
	e.configCopied = true
	e.report.ItemsCopied++
}

// processIncludeDirs walks the semicolon-delimited include list, copying
// SDK include directories and building the rewritten list. The whole
// attribute value is scheduled as one replacement when anything changed.
func (e *extractor) processIncludeDirs(a *descriptor.Analysis) {
	entries := a.IncludeList()
	if len(entries) == 0 {
		return
	}
	e.logf("Analyzing SDK include directories...")

	var newList []string
	changed := false

	for _, entry := range entries {
		if entry == "" {
			continue
		}

		if e.rules.SkipsInclude(entry) {
			changed = true
			e.logf("Removing include path %q", entry)
			continue
		}

		switch relocate.Classify(entry) {
		case relocate.ClassSDK:
			src := relocate.Resolve(e.projDir, entry)
			info, err := os.Stat(src)
			if err != nil || !info.IsDir() {
				e.warnf("SDK include path is not a directory or not found, keeping original: %s", entry)
				newList = append(newList, entry)
				continue
			}

			dest, newRef, degraded := e.mapper.Map(entry)
			if degraded {
				e.warnf("could not determine SDK-relative path for %q; using its final component", entry)
			}

			if !e.copier.Seen(src) {
				e.logf("Copying SDK include directory: %s", entry)
				if err := e.copier.Copy(src, dest); err != nil {
					e.warnf("failed to copy SDK include directory %s: %v", src, err)
				} else {
					e.copier.MarkTree(src)
					e.report.ItemsCopied++
				}
			}

			// The reference is rewritten even when the copy failed, so
			// the output descriptor stays internally consistent.
			newList = append(newList, newRef)
			if newRef != entry {
				changed = true
			}

		case relocate.ClassConfig:
			newList = append(newList, "config")
			changed = true
			e.logf("Retargeting include path %q -> %q", entry, "config")

		default:
			// Paths like "." stay relative to the project file.
			newList = append(newList, entry)
		}
	}

	if changed {
		e.rewriter.Schedule(descriptor.AttrIncludeDirs, a.IncludeDirs, strings.Join(newList, ";"))
		e.logf("Scheduled include directories update")
	}
}

// processFiles handles every <file> element: SDK files are relocated and
// their references rewritten, files inside the copied config directory get
// their leading upward segment stripped, and other local files are copied
// preserving their project-relative location.
func (e *extractor) processFiles(a *descriptor.Analysis) {
	if len(a.Files) == 0 {
		return
	}
	e.logf("Analyzing source files...")

	count := 0
	for _, ref := range a.Files {
		src := relocate.Resolve(e.projDir, ref)
		inConfig := e.configCopied && strings.HasPrefix(src, e.configSrc+string(os.PathSeparator))

		// Already materialized, unless it lives in the config directory
		// and still needs its reference updated.
		if e.copier.Seen(src) && !inConfig {
			continue
		}

		if relocate.Classify(ref) == relocate.ClassSDK {
			dest, newRef, degraded := e.mapper.Map(ref)
			if degraded {
				e.warnf("could not determine SDK-relative path for %q; using its final component", ref)
			}
			if !e.copier.Seen(src) {
				if err := e.copier.Copy(src, dest); err != nil {
					e.warnf("failed to copy %s: %v", ref, err)
					continue // copy failed: skip the path substitution too
				}
				e.copier.Mark(src)
				count++
			}
			e.rewriter.Schedule(descriptor.AttrFileName, ref, newRef)
			continue
		}

		if inConfig {
			newRef, ok := relocate.StripConfigPrefix(ref)
			if !ok {
				e.warnf("config file path %q does not start with \"../\"; reference not updated", ref)
				continue
			}
			e.rewriter.Schedule(descriptor.AttrFileName, ref, newRef)
			e.logf("Retargeting config file reference %q -> %q", ref, newRef)
			continue
		}

		// Local file: its relative path to the project file is unchanged,
		// so only a copy is needed.
		dest := filepath.Clean(filepath.Join(e.outDir, filepath.FromSlash(ref)))
		if err := e.copier.Copy(src, dest); err != nil {
			e.warnf("failed to copy %s: %v", ref, err)
			continue
		}
		e.copier.Mark(src)
		count++
	}

	e.report.ItemsCopied += count
	e.logf("Copied %d individual source files", count)
}

// processPathAttrs handles the single-valued path attributes: the linker
// section placement file and the debug load/register-definition files.
func (e *extractor) processPathAttrs(a *descriptor.Analysis) {
	e.logf("Analyzing linker and debug file paths...")

	for _, attr := range descriptor.PathAttrs {
		ref := a.Paths[attr]
		if ref == "" {
			continue
		}

		src := relocate.Resolve(e.projDir, ref)
		if e.copier.Seen(src) {
			continue
		}

		if relocate.Classify(ref) == relocate.ClassSDK {
			dest, newRef, degraded := e.mapper.Map(ref)
			if degraded {
				e.warnf("could not determine SDK-relative path for %q; using its final component", ref)
			}
			if err := e.copier.Copy(src, dest); err != nil {
				e.warnf("failed to copy %s: %v", ref, err)
				continue
			}
			e.copier.Mark(src)
			e.report.ItemsCopied++
			e.rewriter.Schedule(attr, ref, newRef)
			e.logf("Retargeting %s: %q -> %q", attr, ref, newRef)
			continue
		}

		dest := filepath.Clean(filepath.Join(e.outDir, filepath.FromSlash(ref)))
		if err := e.copier.Copy(src, dest); err != nil {
			e.warnf("failed to copy %s: %v", ref, err)
			continue
		}
		e.copier.Mark(src)
		e.report.ItemsCopied++
	}
}

// writeDescriptor applies the scheduled replacements and writes the final
// descriptor. With nothing to rewrite the original file is copied
// byte-identically instead. A write failure here is fatal.
func (e *extractor) writeDescriptor(original string) error {
	dest := filepath.Join(e.outDir, filepath.Base(e.projFile))

	text, n, warnings := e.rewriter.Apply(original)
	for _, w := range warnings {
		e.warnf("%s", w)
	}
	e.report.Replacements = n

	if n == 0 {
		e.logf("No path replacements needed; copying original project file")
		if err := e.copier.Copy(e.projFile, dest); err != nil {
			return fmt.Errorf("copying project file to %s: %w", dest, err)
		}
		return nil
	}

	e.logf("Total replacements made: %d", n)
	if err := os.WriteFile(dest, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing project file %s: %w", dest, err)
	}
	return nil
}

// processMakefile copies the build Makefile and any linker script next to
// it, then runs the transform pipeline over the copy.
func (e *extractor) processMakefile() {
	src := filepath.Join(e.mfDir, "Makefile")
	info, err := os.Stat(src)
	if err != nil || info.IsDir() {
		e.warnf("Makefile not found at %s; skipping Makefile processing", src)
		return
	}

	e.logf("Copying and rewriting Makefile...")
	dest := filepath.Join(e.outDir, "Makefile")
	if err := e.copier.Copy(src, dest); err != nil {
		e.warnf("failed to copy Makefile: %v", err)
		return
	}

	e.copyLinkerScript()

	data, err := os.ReadFile(dest)
	if err != nil {
		e.warnf("reading copied Makefile: %v", err)
		return
	}

	cfg := makefile.Config{
		Subdir:       e.rules.SDKSubdir,
		CFlagsAnchor: e.rules.CFlags.Anchor,
		CFlagsAdd:    e.rules.CFlags.Add,
	}
	text, warnings := makefile.Rewrite(string(data), cfg)
	for _, w := range warnings {
		e.warnf("%s", w)
	}

	if err := os.WriteFile(dest, []byte(text), 0644); err != nil {
		e.warnf("writing rewritten Makefile: %v", err)
		return
	}
	e.report.MakefileRewritten = true
}

// copyLinkerScript copies the first .ld file found next to the Makefile to
// the output root.
func (e *extractor) copyLinkerScript() {
	entries, err := os.ReadDir(e.mfDir)
	if err != nil {
		e.warnf("reading Makefile directory: %v", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ld") {
			continue
		}
		src := filepath.Join(e.mfDir, entry.Name())
		if err := e.copier.Copy(src, filepath.Join(e.outDir, entry.Name())); err != nil {
			e.warnf("failed to copy linker script %s: %v", entry.Name(), err)
			return
		}
		e.logf("Copied linker script %s", entry.Name())
		e.report.ItemsCopied++
		return // assume one relevant .ld file
	}

	e.warnf("no linker script (.ld file) found in %s", e.mfDir)
}

// fixToolchainMakefile replaces the hard-coded compiler installation path
// in the relocated toolchain sub-makefile.
func (e *extractor) fixToolchainMakefile() {
	destCommon, _, _ := e.mapper.Map(e.rules.CommonMakefile)
	posix := filepath.Join(filepath.Dir(destCommon), "Makefile.posix")

	data, err := os.ReadFile(posix)
	if err != nil {
		e.warnf("Makefile.posix not found at %s; skipping toolchain path fixup", posix)
		if _, err := os.Stat(destCommon); err != nil {
			e.warnf("Makefile.common also missing at %s; toolchain files may be absent", destCommon)
		}
		return
	}

	text, n := makefile.RetargetToolchain(string(data), e.rules.Toolchain.LegacyPath, e.rules.Toolchain.Path)
	if n == 0 {
		e.logf("Toolchain path already correct in %s", posix)
		return
	}

	if err := os.WriteFile(posix, []byte(text), 0644); err != nil {
		e.warnf("writing %s: %v", posix, err)
		return
	}
	e.logf("Updated toolchain path in %s", posix)
}

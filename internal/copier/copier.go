// Package copier materializes files and directory trees in the output
// layout. Directory copies merge onto existing destination content so
// overlapping SDK trees can be copied repeatedly without losing earlier
// output. A per-run set of already-copied source paths lets callers skip
// duplicate work; checking and updating the set is the caller's side of
// the contract.
package copier

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Copier copies files and directories and tracks which absolute source
// paths were already materialized during the current run.
type Copier struct {
	copied map[string]bool
}

// New returns a Copier with an empty copied-set.
func New() *Copier {
	return &Copier{copied: make(map[string]bool)}
}

// Seen reports whether src was already recorded as copied this run.
func (c *Copier) Seen(src string) bool {
	return c.copied[src]
}

// Mark records src as copied. Marking the same path twice is a no-op.
func (c *Copier) Mark(src string) {
	c.copied[src] = true
}

// MarkTree records dir and every file beneath it, so references to
// individual files inside an already-copied directory skip their own copy
// while still receiving path rewrites.
func (c *Copier) MarkTree(dir string) {
	c.Mark(dir)
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			c.Mark(path)
		}
		return nil
	})
}

// Copy copies src to dst, creating destination parent directories as
// needed. Directories are merge-copied recursively; files are copied with
// permissions and modification time preserved. A missing source or an I/O
// failure is returned as an error for the caller to log; Copy never
// deletes existing destination content.
func (c *Copier) Copy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("source item not found: %s", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating destination directory for %s: %w", dst, err)
	}

	if info.IsDir() {
		if err := copyDir(src, dst); err != nil {
			return fmt.Errorf("copying %s to %s: %w", src, dst, err)
		}
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return nil
}

// copyDir recursively merge-copies src into dst. Existing files in dst
// that do not exist in src are left untouched.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else if entry.Type().IsRegular() {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
		// Skip symlinks and other special files during copy.
	}

	return nil
}

// copyFile copies a single file from src to dst, preserving permissions
// and modification time.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.WriteFile(dst, data, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	// Best effort: a failed timestamp restore does not fail the copy.
	_ = os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
	return nil
}

package extract

import (
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"
)

// Report summarizes a completed extraction run for the console and for
// the optional machine-readable report file.
type Report struct {
	ProjectFile       string   `yaml:"project_file"`
	OutputDir         string   `yaml:"output_dir"`
	SDKSubdir         string   `yaml:"sdk_subdir"`
	ItemsCopied       int      `yaml:"items_copied"`
	Replacements      int      `yaml:"replacements"`
	MakefileRewritten bool     `yaml:"makefile_rewritten"`
	Warnings          []string `yaml:"warnings,omitempty"`
}

// WriteFile writes the report as YAML.
func (r *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Summary prints the end-of-run console summary.
func (r *Report) Summary(w io.Writer) {
	fmt.Fprintf(w, "Copied %d items, made %d path replacements", r.ItemsCopied, r.Replacements)
	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, ", %d warnings", len(r.Warnings))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Standalone project created at %s\n", r.OutputDir)
}

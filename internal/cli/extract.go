package cli

import (
	"fmt"
	"os"

	"github.com/emx-labs/emx/internal/config"
	"github.com/emx-labs/emx/internal/extract"
	"github.com/emx-labs/emx/internal/rules"
	"github.com/spf13/cobra"
)

var (
	extractMakefileDir string
	extractRulesFile   string
	extractReportFile  string
)

var extractCmd = &cobra.Command{
	Use:   "extract <project-file> <output-dir>",
	Short: "Extract a project and its SDK dependencies into a standalone directory",
	Long: `Extract copies every SDK file the project depends on into a subdirectory of
<output-dir> and rewrites the project descriptor and build Makefile so all
path references resolve inside the new layout. Warnings (missing source
files, unmatched Makefile patterns) are logged and the run continues; only
an unreadable project file or an unwritable output descriptor is fatal.`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractMakefileDir, "makefile-dir", "", "Directory containing the build Makefile (defaults to the project file's directory)")
	extractCmd.Flags().StringVar(&extractRulesFile, "rules", "", "YAML rules file overriding the built-in extraction constants")
	extractCmd.Flags().StringVar(&extractReportFile, "report", "", "Write a YAML run report to this path")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	projectFile, outputDir := args[0], args[1]

	if _, err := os.Stat(projectFile); err != nil {
		return fmt.Errorf("project file not found at %s", projectFile)
	}

	r, err := loadRules()
	if err != nil {
		return err
	}
	if err := r.CheckToolVersion(buildVersion); err != nil {
		return err
	}

	report, err := extract.Run(extract.Options{
		ProjectFile: projectFile,
		OutputDir:   outputDir,
		MakefileDir: extractMakefileDir,
		Rules:       r,
		Log:         cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	report.Summary(cmd.OutOrStdout())

	if extractReportFile != "" {
		if err := report.WriteFile(extractReportFile); err != nil {
			// The extraction itself succeeded; a failed report write is
			// not worth a non-zero exit.
			fmt.Fprintf(cmd.OutOrStdout(), "Warning: %v\n", err)
		}
	}

	return nil
}

// loadRules resolves the effective rule set: an explicit rules file wins;
// otherwise the defaults amended by user-level configuration.
func loadRules() (*rules.Rules, error) {
	if extractRulesFile != "" {
		r, err := rules.Load(extractRulesFile)
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	r := rules.Default()
	config.Load()
	if v := config.Get(config.KeySDKSubdir); v != "" {
		r.SDKSubdir = v
	}
	if v := config.Get(config.KeyToolchainPath); v != "" {
		r.Toolchain.Path = v
	}
	return r, nil
}

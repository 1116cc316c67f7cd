package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/qmd2colab/internal/maintain"
	"github.com/pdiddy/qmd2colab/internal/notebook"
)

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// --- repair subcommand ---

var repairCmd = &cobra.Command{
	Use:   "repair [dir]",
	Short: "Add missing outputs and execution_count fields to code cells",
	Long: `Repair walks dir (default ".") for notebooks and adds the outputs and
execution_count fields that Colab and Jupyter require on every code cell.
Everything else in the file is left byte for byte as it was; notebooks that
need nothing are not rewritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := maintain.RepairDir(cmd.Context(), dirArg(args), cmd.OutOrStdout())
		return err
	},
}

// --- tidy subcommand ---

var tidyCmd = &cobra.Command{
	Use:   "tidy [dir]",
	Short: "Strip chunk options and point R package blocks at Google Drive",
	Long: `Tidy removes leftover #| chunk option lines from code cells and rewrites
R package install and library blocks so packages install into, and load
from, a persistent folder on Google Drive.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: bindFlags(map[string]string{"maintain.r_library": "r-library"}),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := maintenanceConfig()
		opts := notebook.TidyOptions{RLibrary: cfg.RLibrary}
		_, err := maintain.TidyDir(cmd.Context(), dirArg(args), opts, cmd.OutOrStdout())
		return err
	},
}

// --- check subcommand ---

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Validate notebooks against a subset of the nbformat v4 schema",
	Long: `Check parses each notebook, reports JSON syntax errors with line and
column, validates the structure against an embedded subset of the nbformat
v4 schema (top-level fields, cell types, ids, and sources), and flags
code cells missing outputs (error) or execution_count (warning).
Directories are searched recursively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}
		result, err := maintain.CheckPaths(cmd.Context(), args, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if result.HasFailures() {
			return fmt.Errorf("%d notebook(s) invalid", result.Failed)
		}
		return nil
	},
}

// --- rename subcommand ---

var renameCmd = &cobra.Command{
	Use:   "rename [dir]",
	Short: "Rename notebooks, replacing hyphens with underscores",
	Long: `Rename replaces every occurrence of --from with --to in the names of
files with extension --ext in dir. Existing files are never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: bindFlags(map[string]string{
		"maintain.rename_from": "from",
		"maintain.rename_to":   "to",
		"maintain.rename_ext":  "ext",
		"maintain.dry_run":     "dry-run",
	}),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := maintenanceConfig()
		cfg.Dir = dirArg(args)
		_, err := maintain.RenameDir(cmd.Context(), cfg, cmd.OutOrStdout())
		return err
	},
}

func init() {
	tidyCmd.Flags().String("r-library", "", "Drive folder for R packages (default \"drive/My Drive/R\")")

	renameCmd.Flags().String("from", "", "substring to replace (default \"-\")")
	renameCmd.Flags().String("to", "", "replacement (default \"_\")")
	renameCmd.Flags().String("ext", "", "only rename files with this extension (default \".ipynb\")")
	renameCmd.Flags().Bool("dry-run", false, "print the planned renames without renaming")

	rootCmd.AddCommand(repairCmd, tidyCmd, checkCmd, renameCmd)
}

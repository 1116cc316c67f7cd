// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/qmd2colab/internal/convert"
	"github.com/pdiddy/qmd2colab/internal/ledger"
	"github.com/pdiddy/qmd2colab/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [output-dir]",
	Short: "List the conversion ledger",
	Long: `Status prints what the conversion ledger knows: every source, the
notebook it produced, and the outcome of its last conversion, followed by
the summary of the most recent batch run.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: bindFlags(map[string]string{"convert.ledger": "ledger"}),
	RunE:    runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := conversionConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.OutputDir = args[0]
	}

	path, ok := convert.LedgerPath(cfg)
	if !ok {
		return fmt.Errorf("the conversion ledger is disabled")
	}
	w := cmd.OutOrStdout()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "No ledger at %s\n", path)
		return nil
	}

	store, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	var status types.ConversionStatus
	if failed, _ := cmd.Flags().GetBool("failed"); failed {
		status = types.ConversionFailed
	}
	records, err := store.List(cmd.Context(), status)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	formatStatus(w, records)

	run, ok, err := store.LastRun(cmd.Context())
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(w, "Last run %s: %d converted, %d skipped, %d failed (%s -> %s)\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Converted, run.Skipped, run.Failed, run.InputDir, run.OutputDir)
	}
	return nil
}

func formatStatus(w io.Writer, records []types.ConversionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return
	}

	fmt.Fprintf(w, "%-9s  %-40s  %-30s  %5s  %s\n", "Status", "Source", "Notebook", "Cells", "When")
	fmt.Fprintln(w, strings.Repeat("-", 105))

	for _, r := range records {
		detail := ""
		if r.Status == types.ConversionFailed && r.Message != "" {
			detail = "  " + truncate(r.Message, 60)
		}
		fmt.Fprintf(w, "%-9s  %-40s  %-30s  %5d  %s%s\n",
			r.Status, truncateLeft(r.SourcePath, 40), truncateLeft(r.OutputPath, 30),
			r.Cells, r.ConvertedAt.Local().Format("2006-01-02 15:04"), detail)
	}

	fmt.Fprintf(w, "\n%d sources\n", len(records))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// truncateLeft keeps the end of a path, where the file name is.
func truncateLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-n+3:])
}

func init() {
	statusCmd.Flags().Bool("failed", false, "only list sources whose last conversion failed")
	statusCmd.Flags().Bool("json", false, "output records as JSON")
	statusCmd.Flags().String("ledger", "", "ledger database path (default: <output-dir>/.qmd2colab.db)")

	rootCmd.AddCommand(statusCmd)
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/qmd2colab/internal/convert"
	"github.com/pdiddy/qmd2colab/internal/ledger"
)

var convertCmd = &cobra.Command{
	Use:   "convert [input-dir [output-dir]]",
	Short: "Convert .qmd and .Rmd files into Colab notebooks",
	Long: `Convert searches input-dir recursively for Quarto and R Markdown
sources and writes one notebook per source into output-dir. Prose is split
into markdown cells at headings; fenced chunks become code cells with the
engine's cell magic.

A document with an unterminated code fence is reported with its line and
column and skipped; the rest of the batch continues. Sources unchanged since
their last successful conversion are skipped unless --force is given.

With no arguments and no configured input directory, convert asks for the
folders interactively.`,
	Args: cobra.MaximumNArgs(2),
	PreRunE: bindFlags(map[string]string{
		"convert.profile":      "profile",
		"convert.primary":      "primary",
		"convert.untagged":     "untagged",
		"convert.naming":       "naming",
		"convert.force":        "force",
		"convert.keep_options": "keep-options",
		"convert.ledger":       "ledger",
	}),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := conversionConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.InputDir = args[0]
	}
	if len(args) > 1 {
		cfg.OutputDir = args[1]
	}
	if cfg.InputDir == "" {
		in, out, err := promptFolders(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.OutputDir)
		if err != nil {
			return err
		}
		cfg.InputDir, cfg.OutputDir = in, out
	}
	if noLedger, _ := cmd.Flags().GetBool("no-ledger"); noLedger {
		cfg.Ledger = ledger.Disabled
	}

	profile, err := loadProfile(cfg)
	if err != nil {
		return err
	}

	store := openLedger(cfg)
	if store != nil {
		defer store.Close()
	}

	batch := &convert.Batch{Config: cfg, Profile: profile, Ledger: store}
	result, err := batch.Run(cmd.Context(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	strict, _ := cmd.Flags().GetBool("strict")
	if strict && result.HasFailures() {
		return fmt.Errorf("%d file(s) failed conversion", result.Failed)
	}
	return nil
}

// promptFolders asks for the input folder and the output folder, offering
// defaultOut for the latter.
func promptFolders(in io.Reader, out io.Writer, defaultOut string) (string, string, error) {
	r := bufio.NewReader(in)

	fmt.Fprint(out, "Folder with .qmd/.Rmd files: ")
	input, err := readAnswer(r)
	if err != nil {
		return "", "", err
	}
	if input == "" {
		return "", "", fmt.Errorf("%w: no folder given", convert.ErrNoInputDir)
	}

	fmt.Fprintf(out, "Output folder [%s]: ", defaultOut)
	output, err := readAnswer(r)
	if err != nil {
		return "", "", err
	}
	if output == "" {
		output = defaultOut
	}
	fmt.Fprintln(out)
	return input, output, nil
}

func readAnswer(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.Trim(strings.TrimSpace(line), `"'`), nil
}

func init() {
	f := convertCmd.Flags()
	f.String("profile", "", "YAML profile with the banner, setup cells, and cell magics (default: built-in Colab + rpy2)")
	f.String("primary", "", "primary engine whose first chunk triggers the setup cells (default from profile: r)")
	f.String("untagged", "", "what an untagged chunk is: primary or other (default primary)")
	f.String("naming", "", "output filename scheme: slug or stem (default slug)")
	f.Bool("force", false, "reconvert sources the ledger reports as unchanged")
	f.Bool("no-ledger", false, "do not read or write the conversion ledger")
	f.Bool("keep-options", false, "keep chunk options as #| lines in code cells")
	f.Bool("strict", false, "exit non-zero when any file fails")
	f.String("ledger", "", `ledger database path (default: <output-dir>/.qmd2colab.db, "-" disables)`)

	rootCmd.AddCommand(convertCmd)
}

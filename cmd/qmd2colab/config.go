// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/qmd2colab/internal/convert"
	"github.com/pdiddy/qmd2colab/internal/ledger"
	"github.com/pdiddy/qmd2colab/internal/notebook"
	"github.com/pdiddy/qmd2colab/pkg/types"
)

// envKeyReplacer maps nested keys to env names: convert.output_dir is
// read from QMD2COLAB_CONVERT_OUTPUT_DIR.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// bindFlags returns a PreRunE that binds the command's flags to config
// keys. Several commands share keys and viper keeps one flag per key, so the
// binding happens only for the command that runs.
func bindFlags(keys map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		for key, name := range keys {
			if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return fmt.Errorf("binding --%s: %w", name, err)
			}
		}
		return nil
	}
}

// conversionConfig resolves the convert settings from flags, environment,
// and config file.
func conversionConfig() (types.ConversionConfig, error) {
	cfg := types.ConversionConfig{
		InputDir:      viper.GetString("convert.input_dir"),
		OutputDir:     viper.GetString("convert.output_dir"),
		Extensions:    viper.GetStringSlice("convert.extensions"),
		ProfilePath:   viper.GetString("convert.profile"),
		Primary:       viper.GetString("convert.primary"),
		Untagged:      types.UntaggedPolicy(viper.GetString("convert.untagged")),
		Naming:        types.NamingScheme(viper.GetString("convert.naming")),
		KeepOptions:   viper.GetBool("convert.keep_options"),
		LayoutClasses: viper.GetStringSlice("convert.layout_classes"),
		Ledger:        viper.GetString("convert.ledger"),
		Force:         viper.GetBool("convert.force"),
	}

	switch cfg.Untagged {
	case types.UntaggedPrimary, types.UntaggedOther:
	default:
		return cfg, fmt.Errorf("invalid untagged policy %q: use primary or other", cfg.Untagged)
	}
	switch cfg.Naming {
	case types.NamingSlug, types.NamingStem:
	default:
		return cfg, fmt.Errorf("invalid naming scheme %q: use slug or stem", cfg.Naming)
	}
	return cfg, nil
}

// maintenanceConfig resolves the settings shared by the maintenance passes.
func maintenanceConfig() types.MaintenanceConfig {
	return types.MaintenanceConfig{
		Dir:        ".",
		RLibrary:   viper.GetString("maintain.r_library"),
		RenameFrom: viper.GetString("maintain.rename_from"),
		RenameTo:   viper.GetString("maintain.rename_to"),
		RenameExt:  viper.GetString("maintain.rename_ext"),
		DryRun:     viper.GetBool("maintain.dry_run"),
	}
}

// loadProfile returns the configured profile with the primary engine
// override applied.
func loadProfile(cfg types.ConversionConfig) (*notebook.Profile, error) {
	p := notebook.DefaultProfile()
	if cfg.ProfilePath != "" {
		var err error
		if p, err = notebook.LoadProfile(cfg.ProfilePath); err != nil {
			return nil, err
		}
		logrus.WithField("profile", cfg.ProfilePath).Debug("profile loaded")
	}
	if cfg.Primary != "" {
		p.Primary = strings.ToLower(cfg.Primary)
	}
	return p, nil
}

// openLedger opens the ledger for cfg. A ledger that cannot be opened is
// logged and the run continues without one.
func openLedger(cfg types.ConversionConfig) *ledger.Store {
	path, ok := convert.LedgerPath(cfg)
	if !ok {
		return nil
	}
	store, err := ledger.Open(path)
	if err != nil {
		logrus.WithError(err).WithField("ledger", path).Warn("continuing without conversion ledger")
		return nil
	}
	logrus.WithField("ledger", path).Debug("ledger opened")
	return store
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the qmd2colab CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/qmd2colab/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the qmd2colab CLI.
var rootCmd = &cobra.Command{
	Use:   "qmd2colab",
	Short: "Convert Quarto and R Markdown documents into Colab notebooks",
	Long: `qmd2colab turns .qmd and .Rmd sources into notebooks ready to open in
Google Colab. R chunks run through the rpy2 %%R magic; the setup cells that
install rpy2 and mount Google Drive are inserted before the first R chunk.

Maintenance subcommands repair, tidy, check, and rename existing notebooks.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	},
}

func init() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./qmd2colab.yaml or ~/.config/qmd2colab/qmd2colab.yaml)")
	rootCmd.PersistentFlags().String("env-file", "", "additional .env file to load before reading configuration")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug diagnostics to stderr")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	// A missing .env is fine; an explicit one must load.
	_ = godotenv.Load()
	if envFile, _ := rootCmd.PersistentFlags().GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logrus.WithError(err).Warnf("could not load env file %s", envFile)
		}
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("qmd2colab")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "qmd2colab"))
		}
	}

	viper.SetEnvPrefix("QMD2COLAB")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Info("Using config file")
	} else if cfgFile != "" {
		logrus.WithError(err).Warn("config file not read")
	}
}

func setDefaults() {
	c := types.DefaultConversionConfig()
	viper.SetDefault("convert.output_dir", c.OutputDir)
	viper.SetDefault("convert.extensions", c.Extensions)
	viper.SetDefault("convert.untagged", string(c.Untagged))
	viper.SetDefault("convert.naming", string(c.Naming))
	viper.SetDefault("convert.layout_classes", c.LayoutClasses)

	m := types.DefaultMaintenanceConfig()
	viper.SetDefault("maintain.r_library", m.RLibrary)
	viper.SetDefault("maintain.rename_from", m.RenameFrom)
	viper.SetDefault("maintain.rename_to", m.RenameTo)
	viper.SetDefault("maintain.rename_ext", m.RenameExt)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

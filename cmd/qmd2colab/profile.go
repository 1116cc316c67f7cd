package main

import "github.com/spf13/cobra"

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Print the effective boilerplate profile as YAML",
	Long: `Profile prints the banner, setup cells, separator, cell magics, and
kernelspec that convert would use. Redirect the output to a file, edit it,
and pass it back with --profile to customise the generated notebooks.`,
	Args: cobra.NoArgs,
	PreRunE: bindFlags(map[string]string{
		"convert.profile": "profile",
		"convert.primary": "primary",
	}),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := conversionConfig()
		if err != nil {
			return err
		}
		p, err := loadProfile(cfg)
		if err != nil {
			return err
		}
		return p.WriteYAML(cmd.OutOrStdout())
	},
}

func init() {
	profileCmd.Flags().String("profile", "", "profile file to load and print")
	profileCmd.Flags().String("primary", "", "override the primary engine")

	rootCmd.AddCommand(profileCmd)
}

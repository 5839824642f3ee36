package cli

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/cmdx"
	"github.com/spf13/cobra"
)

func New(cfg *Config) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:           "sextant <command> <subcommand> [flags]",
		Short:         "Catalog Dependency & Lineage Service",
		Long:          "Dependency lineage graphs for table and view metadata catalogs.",
		SilenceErrors: true,
		SilenceUsage:  false,
		Example: heredoc.Doc(`
		$ sextant server start
		$ sextant server migrate
		$ sextant config init
		`),
		Annotations: map[string]string{
			"group": "core",
			"help:learn": heredoc.Doc(`
				Use 'sextant <command> --help' for info about a command.
			`),
			"help:feedback": heredoc.Doc(`
				Open an issue here https://github.com/datatrail-io/sextant/issues
			`),
		},
	}

	rootCmd.AddCommand(
		serverCmd(cfg),
		configCommand(cfg),
		versionCmd(),
	)

	// Help topics
	rootCmd.AddCommand(cmdx.SetCompletionCmd("sextant"))
	rootCmd.AddCommand(cmdx.SetRefCmd(rootCmd))
	rootCmd.AddCommand(cmdx.SetHelpTopicCmd("environment", envHelp))
	cmdx.SetHelp(rootCmd)

	rootCmd.PersistentFlags().StringP(configFlag, "c", "", "Override config file")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfgFile, err := cmd.Flags().GetString(configFlag)
		if err != nil || cfgFile == "" {
			return nil
		}
		return LoadConfigFromFlag(cfgFile, cfg)
	}

	return rootCmd
}

var envHelp = map[string]string{
	"short": "List of supported environment variables",
	"long": heredoc.Doc(`
		Environment variables override values loaded from the config file.
		Every config key maps to a variable with the SEXTANT_ prefix and
		underscores for nesting, e.g.

		SEXTANT_LOG_LEVEL=debug
		SEXTANT_DB_HOST=localhost
		SEXTANT_DB_PORT=5432
		SEXTANT_SERVICE_HOST=0.0.0.0
		SEXTANT_SERVICE_PORT=8080
	`),
}

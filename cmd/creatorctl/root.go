package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag, dataDirFlag string
	ctx := newCommandContext(&configFlag, &dataDirFlag)

	rootCmd := &cobra.Command{
		Use:           "creatorctl",
		Short:         "Creator identity and discovery tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (defaults to CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", defaultDataDir(), "Directory for local state when the config uses in-memory backends (empty keeps them in memory)")

	rootCmd.AddCommand(newSchemaCommand(ctx))
	rootCmd.AddCommand(newIngestCommand(ctx))
	rootCmd.AddCommand(newResolveCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newSmokeCommand())

	return rootCmd
}

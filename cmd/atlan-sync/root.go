package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "atlan-sync",
	Short:         "Sync TrustLogix access risk posture into an Atlan catalog.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(syncCmd, serveCmd, versionCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gitify-app/updater/version"
)

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "prints gitify-updater version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.Println(version.Version())
		},
	}
)

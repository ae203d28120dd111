package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "installs the downloaded update and restarts into it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		err := getClient().install(cmd.Context())
		switch {
		case errors.Is(err, errRestarting):
			cmd.Println("Update installed, restarting.")
			return nil
		case err != nil:
			return err
		}

		cmd.Println("Update installed.")
		return nil
	},
}

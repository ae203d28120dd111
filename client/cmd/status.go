package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gitify-app/updater/client/internal/updatemanager"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "prints the update status of the daemon",
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, err := getClient().status(cmd.Context())
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

func printStatus(w io.Writer, status updatemanager.Status) {
	switch {
	case status.Checking:
		_, _ = fmt.Fprintln(w, "Checking for updates")
	case status.UpdateDownloaded:
		_, _ = fmt.Fprintf(w, "Update %s downloaded (%s), ready to install\n", status.Version, humanBytes(status.Size))
	case status.UpdateAvailable:
		_, _ = fmt.Fprintf(w, "Update %s available, downloading\n", status.Version)
	default:
		_, _ = fmt.Fprintln(w, "No update pending")
	}
}

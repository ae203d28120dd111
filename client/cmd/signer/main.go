package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "signer",
	Short:        "Gitify release signing tool",
	Long:         "Creates artifact signing keys, signs release artifacts and writes the signed latest.json release manifest.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

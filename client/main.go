package main

import (
	"os"

	"github.com/gitify-app/updater/client/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

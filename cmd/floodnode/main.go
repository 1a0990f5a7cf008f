package main

import (
	"os"

	cmd "github.com/mosaicnetworks/floodnode/cmd/floodnode/commands"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	rootCmd.AddCommand(cmd.VersionCmd)

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

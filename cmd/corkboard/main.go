package main

import (
	"os"

	cmd "github.com/corknet/corkboard/cmd/corkboard/commands"
)

func main() {
	rootCmd := cmd.RootCmd

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

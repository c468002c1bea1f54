package commands

import (
	"github.com/corknet/corkboard/src/config"
	"github.com/spf13/cobra"
)

var _config = config.NewDefaultConfig()

// RootCmd is the root command for corkboard
var RootCmd = &cobra.Command{
	Use:              "corkboard",
	Short:            "corkboard distributed message board",
	TraverseChildren: true,
}

func init() {
	RootCmd.AddCommand(
		NewRunCmd(),
		NewLoginCmd(),
		NewPostCmd(),
		NewGetCmd(),
		NewVersionCmd(),
	)

	// Connection flags for the client commands
	RootCmd.PersistentFlags().String("host", "127.0.0.1", "Node host to connect to")
	RootCmd.PersistentFlags().Int("port", 5001, "Node port to connect to")
}

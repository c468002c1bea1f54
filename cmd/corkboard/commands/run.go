package commands

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/corknet/corkboard/src/auth"
	"github.com/corknet/corkboard/src/node"
	"github.com/corknet/corkboard/src/peers"
	"github.com/corknet/corkboard/src/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRunCmd returns the command that starts a corkboard node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runNode,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNode(cmd *cobra.Command, args []string) error {
	users, err := auth.LoadUsers(_config.UsersFile())
	if err != nil {
		return fmt.Errorf("loading users: %v", err)
	}

	peerList, err := peers.NewJSONPeers(_config.PeersFile()).Peers()
	if err != nil {
		return fmt.Errorf("loading peers: %v", err)
	}

	// The peers file may include this node's own entry
	peerList = peers.ExcludePeer(peerList, _config.NodeID)

	n := node.NewNode(_config, auth.NewVerifier(users), peerList)

	if err := n.Init(); err != nil {
		_config.Logger().Error("Cannot initialize node:", err)
		return err
	}

	n.RunAsync()

	if !_config.NoService {
		serviceServer := service.NewService(_config.ServiceAddr, n, _config.Logger())
		go serviceServer.Serve()
	}

	go readCommands(n)

	//Relay SIGINT/SIGTERM to a clean shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	n.Shutdown()

	return nil
}

const consoleHelp = "Commands: pause | resume | stats | peers | dump | help"

// readCommands forwards operator commands typed on stdin into the node's
// control surface. EOF ends the console but not the node.
func readCommands(n *node.Node) {
	fmt.Println(consoleHelp)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch line {
		case "":
			continue
		case "pause":
			n.Pause()
		case "resume":
			n.Resume()
		case "stats":
			stats := n.GetStats()
			fmt.Printf("%s messages; tokens: %s\n", stats["messages"], stats["tokens"])
		case "peers":
			for _, p := range n.Peers() {
				fmt.Printf("- %s @ %s\n", p.NodeID, p.NetAddr())
			}
		case "dump":
			for _, m := range n.Dump() {
				fmt.Println(m)
			}
		case "help":
			fmt.Println(consoleHelp)
		default:
			fmt.Println("Unknown command.")
		}
	}
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

// AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("node-id", _config.NodeID, "Unique node identifier")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Copy log output to this file")

	// Network
	cmd.Flags().StringP("listen", "l", _config.BindAddr, "Listen IP:Port for the corkboard node")
	cmd.Flags().Duration("heartbeat", _config.HeartbeatTimeout, "Time between gossip rounds")
	cmd.Flags().Duration("dial-timeout", _config.DialTimeout, "Timeout for connecting to a peer")
	cmd.Flags().Duration("sync-timeout", _config.SyncTimeout, "Timeout for reading a gossip reply")
	cmd.Flags().Duration("request-timeout", _config.RequestTimeout, "Timeout for reading an inbound request")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP service")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	logFields := logrus.Fields{
		"corkboard.DataDir":          _config.DataDir,
		"corkboard.NodeID":           _config.NodeID,
		"corkboard.BindAddr":         _config.BindAddr,
		"corkboard.ServiceAddr":      _config.ServiceAddr,
		"corkboard.NoService":        _config.NoService,
		"corkboard.LogLevel":         _config.LogLevel,
		"corkboard.HeartbeatTimeout": _config.HeartbeatTimeout,
		"corkboard.DialTimeout":      _config.DialTimeout,
		"corkboard.SyncTimeout":      _config.SyncTimeout,
		"corkboard.RequestTimeout":   _config.RequestTimeout,
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/corkboard.toml (.json, .yaml also work)
	viper.SetConfigName("corkboard")
	viper.AddConfigPath(_config.DataDir)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from the config file
	return viper.Unmarshal(_config)
}

package commands

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/corknet/corkboard/src/board"
	"github.com/corknet/corkboard/src/wire"
	"github.com/spf13/cobra"
)

// clientTimeout bounds both the dial and the reply read of a client call.
const clientTimeout = 3 * time.Second

// NewLoginCmd returns the command that logs in and prints a session token
func NewLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Log in and print a session token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, &wire.LoginRequest{
				Type:     wire.TypeLogin,
				Username: args[0],
				Password: args[1],
			})
		},
	}
}

// NewPostCmd returns the command that posts a message
func NewPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <token> <content>",
		Short: "Post a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageType := board.Public
			if private, _ := cmd.Flags().GetBool("private"); private {
				messageType = board.Private
			}
			return call(cmd, &wire.PostRequest{
				Type:        wire.TypePost,
				Token:       args[0],
				Content:     args[1],
				MessageType: messageType,
			})
		},
	}
	cmd.Flags().Bool("private", false, "Post a private message")
	return cmd
}

// NewGetCmd returns the command that fetches messages
func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("token")
			return call(cmd, &wire.GetRequest{
				Type:  wire.TypeGet,
				Token: token,
			})
		},
	}
	cmd.Flags().String("token", "", "Session token (omit for public messages only)")
	return cmd
}

// call performs one request against the configured node and pretty-prints the
// raw JSON reply.
func call(cmd *cobra.Command, req interface{}) error {
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return err
	}
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var resp map[string]interface{}
	if err := wire.Call(addr, clientTimeout, clientTimeout, req, &resp); err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	return nil
}

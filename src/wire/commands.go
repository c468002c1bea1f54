package wire

import (
	"fmt"

	"github.com/corknet/corkboard/src/board"
)

// Request type tags as they appear on the wire.
const (
	TypeLogin = "LOGIN"
	TypePost  = "POST"
	TypeGet   = "GET"
	TypeHello = "REPL_HELLO"
	TypeSend  = "REPL_SEND"
	TypeToken = "REPL_TOKEN"
)

// LoginRequest asks the node to verify credentials and mint a session token.
type LoginRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// PostRequest submits a new message under an existing session token.
type PostRequest struct {
	Type        string            `json:"type"`
	Token       string            `json:"token"`
	Content     string            `json:"content"`
	MessageType board.MessageType `json:"message_type"`
}

// GetRequest reads messages. The token is optional; without a valid one the
// node returns public messages only.
type GetRequest struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HelloRequest is the pull half of the gossip protocol. The initiator
// advertises every id it holds and the peer answers with a SendResponse
// containing only what the initiator lacks.
type HelloRequest struct {
	Type     string   `json:"type"`
	From     string   `json:"from"`
	KnownIDs []string `json:"known_ids"`
}

// SendRequest is the push half of the gossip protocol. It carries message
// records to be merged into the receiver's store, and is also what a node
// sends to its peers right after a local POST.
type SendRequest struct {
	Type     string           `json:"type"`
	From     string           `json:"from"`
	Messages []*board.Message `json:"messages"`
}

// TokenRequest propagates a freshly minted session token to a peer.
type TokenRequest struct {
	Type     string `json:"type"`
	From     string `json:"from"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

// LoginResponse returns the minted session token.
type LoginResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

// PostResponse returns the id assigned to the new message.
type PostResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// GetResponse returns messages in ascending (ts, id) order.
type GetResponse struct {
	OK       bool             `json:"ok"`
	Messages []*board.Message `json:"messages"`
}

// SendResponse answers a HelloRequest with the messages the initiator is
// missing. Its shape doubles as a SendRequest so the initiator can apply it
// through the same replication path.
type SendResponse struct {
	OK       bool             `json:"ok"`
	Type     string           `json:"type"`
	From     string           `json:"from"`
	Messages []*board.Message `json:"messages"`
}

// AckResponse is the trivial success reply. Fire-and-forget senders are free
// to close the connection without reading it.
type AckResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the failure reply for every request type.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Errorf builds an ErrorResponse.
func Errorf(format string, args ...interface{}) *ErrorResponse {
	return &ErrorResponse{
		OK:    false,
		Error: fmt.Sprintf(format, args...),
	}
}

package node

import (
	"github.com/corknet/corkboard/src/board"
	"github.com/corknet/corkboard/src/wire"
	"github.com/sirupsen/logrus"
)

// login verifies credentials, mints a session token and propagates it to
// peers in the background. Nothing is registered on failure.
func (n *Node) login(req *wire.LoginRequest) interface{} {
	if req.Username == "" || req.Password == "" {
		return wire.Errorf("missing credentials")
	}

	if !n.verifier.Verify(req.Username, req.Password) {
		return wire.Errorf("invalid username or password")
	}

	token := n.sessions.Mint(req.Username)

	n.logger.WithFields(logrus.Fields{
		"username": req.Username,
		"token":    token[:8],
	}).Info("LOGIN")

	n.goFunc(func() { n.pushToken(token, req.Username) })

	return &wire.LoginResponse{OK: true, Token: token}
}

// post validates the request, mints the next local id under the store lock,
// and pushes the new message to peers in the background.
func (n *Node) post(req *wire.PostRequest) interface{} {
	author, ok := n.sessions.Lookup(req.Token)
	if !ok {
		return wire.Errorf("not authenticated")
	}

	if req.Content == "" {
		return wire.Errorf("invalid content")
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = board.Public
	}
	if !messageType.Valid() {
		return wire.Errorf("invalid message type")
	}

	msg := n.store.CreateLocal(n.conf.NodeID, author, req.Content, messageType)

	n.logger.WithFields(logrus.Fields{
		"author":       author,
		"id":           msg.ID,
		"message_type": messageType,
	}).Info("POST")

	n.goFunc(func() { n.pushMessages([]*board.Message{msg}) })

	return &wire.PostResponse{OK: true, ID: msg.ID}
}

// get returns public messages, plus the caller's own private messages when
// the token resolves. An absent or unknown token degrades to public-only.
func (n *Node) get(req *wire.GetRequest) interface{} {
	author, _ := n.sessions.Lookup(req.Token)
	return &wire.GetResponse{OK: true, Messages: n.store.Visible(author)}
}

package node

import (
	"time"

	"github.com/corknet/corkboard/src/board"
	"github.com/corknet/corkboard/src/peers"
	"github.com/corknet/corkboard/src/wire"
	"github.com/sirupsen/logrus"
)

// replHello serves the pull side of anti-entropy: the caller advertises the
// ids it holds and gets back everything else.
func (n *Node) replHello(req *wire.HelloRequest) interface{} {
	if n.getState() == Paused {
		return wire.Errorf("replication paused")
	}

	missing := n.store.Diff(req.KnownIDs)

	return &wire.SendResponse{
		OK:       true,
		Type:     wire.TypeSend,
		From:     n.conf.NodeID,
		Messages: missing,
	}
}

// replSend merges a pushed batch into the store.
func (n *Node) replSend(req *wire.SendRequest) interface{} {
	if n.getState() == Paused {
		return wire.Errorf("replication paused")
	}

	n.applyMessages(req.From, req.Messages)

	return &wire.AckResponse{OK: true}
}

// replToken upserts a replicated session token.
func (n *Node) replToken(req *wire.TokenRequest) interface{} {
	if n.getState() == Paused {
		return wire.Errorf("replication paused")
	}

	if req.Token != "" && req.Username != "" {
		n.sessions.Register(req.Token, req.Username)
	}

	return &wire.AckResponse{OK: true}
}

// applyMessages merges replicated records into the store. It is shared by the
// REPL_SEND handler and the pull side of gossip, and is idempotent: records
// whose id is already present are discarded.
func (n *Node) applyMessages(from string, msgs []*board.Message) int {
	if n.getState() == Paused {
		return 0
	}

	for _, m := range msgs {
		m.Reconstruct()
	}

	accepted := n.store.InsertBatch(msgs)
	if accepted > 0 {
		n.logger.WithFields(logrus.Fields{
			"from":     from,
			"accepted": accepted,
		}).Debug("replication applied")
	}
	return accepted
}

// gossipLoop runs the periodic anti-entropy pull. A paused node skips the
// whole cycle; it neither contacts peers nor snapshots the store.
func (n *Node) gossipLoop() {
	ticker := time.NewTicker(n.conf.HeartbeatTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-n.shutdownCh:
			return
		case <-ticker.C:
			if n.getState() != Active {
				continue
			}
			n.gossip()
		}
	}
}

// gossip snapshots the known ids once, then contacts each peer outside the
// store lock.
func (n *Node) gossip() {
	known := n.store.KnownIDs()
	for _, p := range n.peers {
		n.gossipWithPeer(p, known)
	}
}

// gossipWithPeer performs one pull exchange. Failures are transient by
// definition; they are logged and swallowed, and the next cycle retries.
func (n *Node) gossipWithPeer(p *peers.Peer, known []string) {
	req := &wire.HelloRequest{
		Type:     wire.TypeHello,
		From:     n.conf.NodeID,
		KnownIDs: known,
	}

	var resp wire.SendResponse
	if err := wire.Call(p.NetAddr(), n.conf.DialTimeout, n.conf.SyncTimeout, req, &resp); err != nil {
		n.logger.WithFields(logrus.Fields{
			"peer":  p.NodeID,
			"error": err,
		}).Debug("gossip")
		return
	}

	if !resp.OK || len(resp.Messages) == 0 {
		return
	}

	n.applyMessages(resp.From, resp.Messages)
}

// pushMessages eagerly forwards freshly created messages to every peer. It is
// best-effort: no retry, no backoff; the periodic pull is the backstop.
func (n *Node) pushMessages(msgs []*board.Message) {
	if n.getState() != Active {
		return
	}

	req := &wire.SendRequest{
		Type:     wire.TypeSend,
		From:     n.conf.NodeID,
		Messages: msgs,
	}

	for _, p := range n.peers {
		if err := wire.Push(p.NetAddr(), n.conf.DialTimeout, req); err != nil {
			n.logger.WithFields(logrus.Fields{
				"peer":  p.NodeID,
				"error": err,
			}).Debug("push messages")
		}
	}
}

// pushToken eagerly forwards a freshly minted token to every peer.
func (n *Node) pushToken(token, username string) {
	if n.getState() != Active {
		return
	}

	req := &wire.TokenRequest{
		Type:     wire.TypeToken,
		From:     n.conf.NodeID,
		Token:    token,
		Username: username,
	}

	for _, p := range n.peers {
		if err := wire.Push(p.NetAddr(), n.conf.DialTimeout, req); err != nil {
			n.logger.WithFields(logrus.Fields{
				"peer":  p.NodeID,
				"error": err,
			}).Debug("push token")
		}
	}
}

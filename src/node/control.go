package node

import (
	"strconv"

	"github.com/corknet/corkboard/src/board"
	"github.com/corknet/corkboard/src/peers"
)

// Pause suspends replication: the gossip loop skips its cycles, eager pushes
// exit without contacting peers, and inbound REPL_* requests are rejected.
// The user-facing API keeps working.
func (n *Node) Pause() {
	if n.getState() == Active {
		n.setState(Paused)
		n.logger.Info("replication paused")
	}
}

// Resume re-activates replication without a restart.
func (n *Node) Resume() {
	if n.getState() == Paused {
		n.setState(Active)
		n.logger.Info("replication active")
	}
}

// Paused reports whether replication is currently suspended.
func (n *Node) Paused() bool {
	return n.getState() == Paused
}

// GetStats returns a snapshot of the node's counters.
func (n *Node) GetStats() map[string]string {
	return map[string]string{
		"id":       n.conf.NodeID,
		"state":    n.getState().String(),
		"messages": strconv.Itoa(n.store.Len()),
		"tokens":   strconv.Itoa(n.sessions.Len()),
		"last_seq": strconv.Itoa(n.store.Seq()),
	}
}

// Peers returns the static peer list.
func (n *Node) Peers() []*peers.Peer {
	return n.peers
}

// Dump returns every stored message in canonical (ts, id) order.
func (n *Node) Dump() []*board.Message {
	return n.store.All()
}

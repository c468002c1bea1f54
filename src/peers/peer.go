package peers

import (
	"net"
	"strconv"
)

// Peer describes another corkboard node of the same deployment. Peers are
// static configuration; there is no discovery or membership protocol.
type Peer struct {
	NodeID string `json:"node_id"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// NewPeer returns an initialised Peer.
func NewPeer(nodeID, host string, port int) *Peer {
	return &Peer{
		NodeID: nodeID,
		Host:   host,
		Port:   port,
	}
}

// NetAddr returns the peer's host:port dial address.
func (p *Peer) NetAddr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// ExcludePeer is used to exclude a single peer from a list of peers. It
// filters the node's own entry out of a loaded peer file.
func ExcludePeer(peers []*Peer, nodeID string) []*Peer {
	otherPeers := make([]*Peer, 0, len(peers))
	for _, p := range peers {
		if p.NodeID != nodeID {
			otherPeers = append(otherPeers, p)
		}
	}
	return otherPeers
}

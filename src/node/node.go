package node

import (
	"net"

	"github.com/corknet/corkboard/src/auth"
	"github.com/corknet/corkboard/src/board"
	"github.com/corknet/corkboard/src/config"
	"github.com/corknet/corkboard/src/peers"
	"github.com/sirupsen/logrus"
)

// Node is one participant of a corkboard deployment. It serves the
// user-facing API and the replication protocol on a single TCP listener, and
// runs the periodic anti-entropy loop against its static peer list.
type Node struct {
	state

	conf   *config.Config
	logger *logrus.Entry

	verifier *auth.Verifier
	store    *board.Store
	sessions *board.SessionRegistry
	peers    []*peers.Peer

	listener   net.Listener
	shutdownCh chan struct{}
}

// NewNode is a factory method that returns a Node instance.
func NewNode(conf *config.Config, verifier *auth.Verifier, peers []*peers.Peer) *Node {
	node := &Node{
		conf:       conf,
		logger:     conf.Logger().WithField("this_id", conf.NodeID),
		verifier:   verifier,
		store:      board.NewStore(),
		sessions:   board.NewSessionRegistry(),
		peers:      peers,
		shutdownCh: make(chan struct{}),
	}

	node.setState(Active)

	return node
}

// Init binds the listener. It supports a ":0" port for tests; Addr exposes
// the effective address.
func (n *Node) Init() error {
	listener, err := net.Listen("tcp", n.conf.BindAddr)
	if err != nil {
		return err
	}
	n.listener = listener

	n.logger.WithFields(logrus.Fields{
		"addr":  n.Addr(),
		"peers": len(n.peers),
	}).Debug("Init")

	return nil
}

// Addr returns the address the node is listening on.
func (n *Node) Addr() string {
	return n.listener.Addr().String()
}

// RunAsync starts the server loop and the gossip loop in the background.
func (n *Node) RunAsync() {
	n.goFunc(n.serve)
	n.goFunc(n.gossipLoop)
}

// Shutdown stops the loops and closes the listener. In-flight connection
// handlers and background pushes are drained before it returns.
func (n *Node) Shutdown() {
	if n.getState() == Shutdown {
		return
	}

	n.logger.Debug("Shutdown")

	n.setState(Shutdown)
	close(n.shutdownCh)
	n.listener.Close()
	n.waitRoutines()
}

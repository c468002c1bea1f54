package node

import (
	"bufio"
	"net"
	"time"

	"github.com/corknet/corkboard/src/wire"
)

// serve accepts connections until shutdown, handing each one to its own
// goroutine. A failure on one connection never affects the others.
func (n *Node) serve() {
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			select {
			case <-n.shutdownCh:
				return
			default:
				n.logger.WithField("error", err).Error("Accept")
				continue
			}
		}

		n.goFunc(func() {
			n.handleConn(conn)
		})
	}
}

// handleConn reads exactly one request, dispatches it, and writes back at
// most one response. The connection is closed on every exit path.
func (n *Node) handleConn(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(n.conf.RequestTimeout))

	frame, err := wire.ReadFrame(bufio.NewReader(conn))
	if err != nil {
		// Framing error. Reply best-effort; the peer may be gone already.
		wire.WriteFrame(conn, wire.Errorf("bad request: %v", err))
		return
	}

	req, err := wire.DecodeRequest(frame)
	if err != nil {
		wire.WriteFrame(conn, wire.Errorf("%v", err))
		return
	}

	resp := n.dispatch(req)
	if resp == nil {
		return
	}

	if err := wire.WriteFrame(conn, resp); err != nil {
		// Push senders are allowed to close without reading the ack.
		n.logger.WithField("error", err).Debug("write response")
	}
}

// dispatch routes a decoded request to its handler. The switch is exhaustive
// over the variants DecodeRequest can produce.
func (n *Node) dispatch(req interface{}) interface{} {
	switch r := req.(type) {
	case *wire.LoginRequest:
		return n.login(r)
	case *wire.PostRequest:
		return n.post(r)
	case *wire.GetRequest:
		return n.get(r)
	case *wire.HelloRequest:
		return n.replHello(r)
	case *wire.SendRequest:
		return n.replSend(r)
	case *wire.TokenRequest:
		return n.replToken(r)
	default:
		return wire.Errorf("unknown request type")
	}
}

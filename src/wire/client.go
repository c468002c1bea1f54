package wire

import (
	"bufio"
	"net"
	"time"
)

// Call opens a connection to addr, sends one request, reads the single reply
// into resp and closes the connection. The dial and the reply read are both
// bounded, so an unresponsive peer costs at most dialTimeout+readTimeout.
func Call(addr string, dialTimeout, readTimeout time.Duration, req, resp interface{}) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := WriteFrame(conn, req); err != nil {
		return err
	}

	if readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return err
		}
	}

	frame, err := ReadFrame(bufio.NewReader(conn))
	if err != nil {
		return err
	}

	return Decode(frame, resp)
}

// Push opens a connection to addr, sends one request and closes without
// reading a reply. It is the fire-and-forget half of replication; the caller
// must not assume delivery.
func Push(addr string, dialTimeout time.Duration, req interface{}) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	return WriteFrame(conn, req)
}

package node

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/corknet/corkboard/src/auth"
	"github.com/corknet/corkboard/src/board"
	"github.com/corknet/corkboard/src/config"
	"github.com/corknet/corkboard/src/peers"
	"github.com/corknet/corkboard/src/wire"
)

var testUsers = map[string]string{
	"alice": "s3cret",
	"bob":   "hunter2",
}

func testConfig(t *testing.T, nodeID string) *config.Config {
	conf := config.NewTestConfig(t)
	conf.NodeID = nodeID
	conf.BindAddr = "127.0.0.1:0"
	conf.HeartbeatTimeout = 50 * time.Millisecond
	conf.DialTimeout = time.Second
	conf.SyncTimeout = time.Second
	conf.RequestTimeout = time.Second
	return conf
}

func startNode(t *testing.T, nodeID string, peerList []*peers.Peer) *Node {
	n := NewNode(testConfig(t, nodeID), auth.NewVerifier(testUsers), peerList)
	if err := n.Init(); err != nil {
		t.Fatalf("err: %v", err)
	}
	n.RunAsync()
	return n
}

func asPeer(t *testing.T, n *Node) *peers.Peer {
	host, portStr, err := net.SplitHostPort(n.Addr())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	return peers.NewPeer(n.conf.NodeID, host, port)
}

func login(t *testing.T, addr, username, password string) *wire.LoginResponse {
	var resp wire.LoginResponse
	req := &wire.LoginRequest{Type: wire.TypeLogin, Username: username, Password: password}
	if err := wire.Call(addr, time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	return &resp
}

func post(t *testing.T, addr, token, content string, messageType board.MessageType) *wire.PostResponse {
	var resp wire.PostResponse
	req := &wire.PostRequest{Type: wire.TypePost, Token: token, Content: content, MessageType: messageType}
	if err := wire.Call(addr, time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	return &resp
}

func get(t *testing.T, addr, token string) *wire.GetResponse {
	var resp wire.GetResponse
	req := &wire.GetRequest{Type: wire.TypeGet, Token: token}
	if err := wire.Call(addr, time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	return &resp
}

func contains(messages []*board.Message, id string) bool {
	for _, m := range messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestLoginIssuesUniqueTokens(t *testing.T) {
	n := startNode(t, "n1", nil)
	defer n.Shutdown()

	resp1 := login(t, n.Addr(), "alice", "s3cret")
	if !resp1.OK || resp1.Token == "" {
		t.Fatalf("login should succeed with a token, got %+v", resp1)
	}

	resp2 := login(t, n.Addr(), "alice", "s3cret")
	if !resp2.OK || resp2.Token == resp1.Token {
		t.Fatal("two logins should never produce the same token")
	}
}

func TestLoginFailures(t *testing.T) {
	n2 := startNode(t, "n2", nil)
	defer n2.Shutdown()

	n1 := startNode(t, "n1", []*peers.Peer{asPeer(t, n2)})
	defer n1.Shutdown()

	var resp map[string]interface{}
	req := &wire.LoginRequest{Type: wire.TypeLogin, Username: "alice", Password: "wrong"}
	if err := wire.Call(n1.Addr(), time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok, _ := resp["ok"].(bool); ok {
		t.Fatal("wrong password should be rejected")
	}

	req = &wire.LoginRequest{Type: wire.TypeLogin, Username: "alice"}
	if err := wire.Call(n1.Addr(), time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok, _ := resp["ok"].(bool); ok {
		t.Fatal("missing password should be rejected")
	}

	// No token was registered locally, and none was propagated to the peer
	time.Sleep(100 * time.Millisecond)
	if n1.sessions.Len() != 0 {
		t.Fatalf("n1 should hold 0 tokens, not %d", n1.sessions.Len())
	}
	if n2.sessions.Len() != 0 {
		t.Fatalf("n2 should hold 0 tokens, not %d", n2.sessions.Len())
	}
}

func TestPostAndGet(t *testing.T) {
	n := startNode(t, "n1", nil)
	defer n.Shutdown()

	token := login(t, n.Addr(), "alice", "s3cret").Token

	postResp := post(t, n.Addr(), token, "hi", board.Public)
	if !postResp.OK {
		t.Fatalf("post should succeed, got %+v", postResp)
	}
	if postResp.ID != "n1:1" {
		t.Fatalf("first message id should be n1:1, not %s", postResp.ID)
	}

	// Anonymous GET sees the public message
	getResp := get(t, n.Addr(), "")
	if !getResp.OK || !contains(getResp.Messages, "n1:1") {
		t.Fatalf("anonymous GET should include n1:1, got %+v", getResp.Messages)
	}
}

func TestPrivateVisibility(t *testing.T) {
	n := startNode(t, "n1", nil)
	defer n.Shutdown()

	aliceToken := login(t, n.Addr(), "alice", "s3cret").Token
	bobToken := login(t, n.Addr(), "bob", "hunter2").Token

	id := post(t, n.Addr(), aliceToken, "for my eyes only", board.Private).ID

	if contains(get(t, n.Addr(), "").Messages, id) {
		t.Fatal("anonymous GET should exclude the private message")
	}
	if !contains(get(t, n.Addr(), aliceToken).Messages, id) {
		t.Fatal("the author should see her private message")
	}
	if contains(get(t, n.Addr(), bobToken).Messages, id) {
		t.Fatal("bob should not see alice's private message")
	}
}

func TestPostValidation(t *testing.T) {
	n := startNode(t, "n1", nil)
	defer n.Shutdown()

	token := login(t, n.Addr(), "alice", "s3cret").Token

	var resp map[string]interface{}

	// Empty content
	req := &wire.PostRequest{Type: wire.TypePost, Token: token, Content: "", MessageType: board.Public}
	if err := wire.Call(n.Addr(), time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok, _ := resp["ok"].(bool); ok {
		t.Fatal("empty content should be rejected")
	}

	// Unsupported message type
	req = &wire.PostRequest{Type: wire.TypePost, Token: token, Content: "hi", MessageType: "secret"}
	if err := wire.Call(n.Addr(), time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok, _ := resp["ok"].(bool); ok {
		t.Fatal("unsupported message type should be rejected")
	}

	// Unknown token
	req = &wire.PostRequest{Type: wire.TypePost, Token: "bogus", Content: "hi", MessageType: board.Public}
	if err := wire.Call(n.Addr(), time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok, _ := resp["ok"].(bool); ok {
		t.Fatal("unknown token should be rejected")
	}

	// No failed attempt touched the store or the sequence counter
	if n.store.Len() != 0 {
		t.Fatalf("store should be empty, not hold %d messages", n.store.Len())
	}
	if n.store.Seq() != 0 {
		t.Fatalf("sequence counter should be untouched, not %d", n.store.Seq())
	}
}

func TestUnknownRequestType(t *testing.T) {
	n := startNode(t, "n1", nil)
	defer n.Shutdown()

	var resp map[string]interface{}
	req := map[string]interface{}{"type": "FROBNICATE"}
	if err := wire.Call(n.Addr(), time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok, _ := resp["ok"].(bool); ok {
		t.Fatal("unknown request type should be rejected")
	}
	errStr, _ := resp["error"].(string)
	if !strings.Contains(errStr, "unknown request type") {
		t.Fatalf("unexpected error string: %q", errStr)
	}
}

func TestReplHello(t *testing.T) {
	n := startNode(t, "n1", nil)
	defer n.Shutdown()

	token := login(t, n.Addr(), "alice", "s3cret").Token
	post(t, n.Addr(), token, "hi", board.Public)

	// An empty advertisement pulls everything
	var resp wire.SendResponse
	req := &wire.HelloRequest{Type: wire.TypeHello, From: "n2", KnownIDs: []string{}}
	if err := wire.Call(n.Addr(), time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !resp.OK || resp.Type != wire.TypeSend || resp.From != "n1" {
		t.Fatalf("bad hello response: %+v", resp)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].ID != "n1:1" {
		t.Fatalf("hello should return n1:1, got %+v", resp.Messages)
	}

	// Advertising everything pulls nothing; the exchange is idempotent
	req = &wire.HelloRequest{Type: wire.TypeHello, From: "n2", KnownIDs: []string{"n1:1"}}
	if err := wire.Call(n.Addr(), time.Second, time.Second, req, &resp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !resp.OK || len(resp.Messages) != 0 {
		t.Fatalf("hello with full knowledge should return nothing, got %+v", resp.Messages)
	}
}

func TestEagerPush(t *testing.T) {
	n2 := startNode(t, "n2", nil)
	defer n2.Shutdown()

	n1 := startNode(t, "n1", []*peers.Peer{asPeer(t, n2)})
	defer n1.Shutdown()

	// The login token is propagated to the peer
	token := login(t, n1.Addr(), "alice", "s3cret").Token
	waitFor(t, func() bool {
		_, ok := n2.sessions.Lookup(token)
		return ok
	}, "token should reach n2")

	// A new message is pushed right away, without waiting for gossip
	id := post(t, n1.Addr(), token, "hi", board.Public).ID
	waitFor(t, func() bool {
		return n2.store.Len() == 1
	}, "message should reach n2")

	// The replicated token works on the peer
	resp := post(t, n2.Addr(), token, "hello from n2", board.Public)
	if !resp.OK || resp.ID != "n2:1" {
		t.Fatalf("replicated token should authenticate on n2, got %+v", resp)
	}

	if !contains(get(t, n2.Addr(), "").Messages, id) {
		t.Fatal("n2 should serve the replicated message")
	}
}

func TestGossipConvergence(t *testing.T) {
	n1 := startNode(t, "n1", nil)
	defer n1.Shutdown()

	token := login(t, n1.Addr(), "alice", "s3cret").Token
	id := post(t, n1.Addr(), token, "hi", board.Public).ID

	// n2 starts empty, with n1 as its only peer; the periodic pull fills it
	n2 := startNode(t, "n2", []*peers.Peer{asPeer(t, n1)})
	defer n2.Shutdown()

	waitFor(t, func() bool {
		return contains(n2.store.All(), id)
	}, "gossip should converge n2 to n1's message set")

	// Repeating rounds change nothing
	size := n2.store.Len()
	time.Sleep(200 * time.Millisecond)
	if n2.store.Len() != size {
		t.Fatal("repeated gossip rounds should not grow the store")
	}
}

func TestPauseResume(t *testing.T) {
	n2 := startNode(t, "n2", nil)
	defer n2.Shutdown()

	n1 := startNode(t, "n1", []*peers.Peer{asPeer(t, n2)})
	defer n1.Shutdown()

	token := login(t, n1.Addr(), "alice", "s3cret").Token
	waitFor(t, func() bool {
		_, ok := n2.sessions.Lookup(token)
		return ok
	}, "token should reach n2")

	n1.Pause()
	if !n1.Paused() {
		t.Fatal("node should report paused")
	}

	// Inbound replication is rejected while paused
	var helloResp map[string]interface{}
	hello := &wire.HelloRequest{Type: wire.TypeHello, From: "n2", KnownIDs: []string{}}
	if err := wire.Call(n1.Addr(), time.Second, time.Second, hello, &helloResp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok, _ := helloResp["ok"].(bool); ok {
		t.Fatal("REPL_HELLO should be rejected while paused")
	}
	errStr, _ := helloResp["error"].(string)
	if !strings.Contains(errStr, "paused") {
		t.Fatalf("unexpected error string: %q", errStr)
	}

	var sendResp map[string]interface{}
	send := &wire.SendRequest{Type: wire.TypeSend, From: "n2", Messages: []*board.Message{
		{ID: "n2:99", Origin: "n2", Seq: 99, Author: "bob", Content: "sneaky", Ts: 1, Type: board.Public},
	}}
	if err := wire.Call(n1.Addr(), time.Second, time.Second, send, &sendResp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if ok, _ := sendResp["ok"].(bool); ok {
		t.Fatal("REPL_SEND should be rejected while paused")
	}
	if n1.store.Len() != 0 {
		t.Fatal("rejected REPL_SEND should not touch the store")
	}

	// The user-facing API keeps working, but nothing is pushed out
	post(t, n1.Addr(), token, "posted while paused", board.Public)
	time.Sleep(200 * time.Millisecond)
	if n2.store.Len() != 0 {
		t.Fatal("no push should reach n2 while n1 is paused")
	}

	// Resume, without a restart
	n1.Resume()
	if n1.Paused() {
		t.Fatal("node should no longer report paused")
	}

	var resumedResp wire.SendResponse
	if err := wire.Call(n1.Addr(), time.Second, time.Second, hello, &resumedResp); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !resumedResp.OK {
		t.Fatalf("REPL_HELLO should succeed after resume, got %+v", resumedResp)
	}

	id := post(t, n1.Addr(), token, "posted after resume", board.Public).ID
	waitFor(t, func() bool {
		return contains(n2.store.All(), id)
	}, "pushes should flow again after resume")
}

func TestGetStats(t *testing.T) {
	n := startNode(t, "n1", nil)
	defer n.Shutdown()

	token := login(t, n.Addr(), "alice", "s3cret").Token
	post(t, n.Addr(), token, "hi", board.Public)

	stats := n.GetStats()
	if stats["messages"] != "1" {
		t.Fatalf("stats should report 1 message, not %s", stats["messages"])
	}
	if stats["tokens"] != "1" {
		t.Fatalf("stats should report 1 token, not %s", stats["tokens"])
	}
	if stats["state"] != "Active" {
		t.Fatalf("stats should report Active, not %s", stats["state"])
	}
	if stats["last_seq"] != "1" {
		t.Fatalf("stats should report last_seq 1, not %s", stats["last_seq"])
	}
}

// flakyListener fails a fixed number of Accept calls before delegating.
type flakyListener struct {
	net.Listener
	failures int
}

func (l *flakyListener) Accept() (net.Conn, error) {
	if l.failures > 0 {
		l.failures--
		return nil, errors.New("transient accept failure")
	}
	return l.Listener.Accept()
}

func TestServeSurvivesAcceptError(t *testing.T) {
	n := NewNode(testConfig(t, "n1"), auth.NewVerifier(testUsers), nil)
	if err := n.Init(); err != nil {
		t.Fatalf("err: %v", err)
	}
	n.listener = &flakyListener{Listener: n.listener, failures: 1}
	n.RunAsync()
	defer n.Shutdown()

	// The first Accept fails; the loop must go on serving connections
	if resp := get(t, n.Addr(), ""); !resp.OK {
		t.Fatal("node should keep accepting after a transient accept error")
	}
}

func TestMalformedRequest(t *testing.T) {
	n := startNode(t, "n1", nil)
	defer n.Shutdown()

	conn, err := net.Dial("tcp", n.Addr())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("this is not json\n")); err != nil {
		t.Fatalf("err: %v", err)
	}

	buf := make([]byte, 1024)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	read, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(string(buf[:read]), `"ok":false`) {
		t.Fatalf("malformed request should yield an error response, got %s", string(buf[:read]))
	}

	// The node survives and keeps serving
	if resp := get(t, n.Addr(), ""); !resp.OK {
		t.Fatal("node should keep serving after a malformed request")
	}
}

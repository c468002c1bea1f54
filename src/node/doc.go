// Package node implements the reactive component of a corkboard node.
//
// A node serves two kinds of traffic on one TCP listener: the user-facing API
// (LOGIN, POST, GET) and the replication protocol (REPL_HELLO, REPL_SEND,
// REPL_TOKEN). Requests and responses are newline-delimited JSON objects, one
// request and at most one response per connection.
//
// # Replication
//
// Nodes converge on a shared message set through two complementary
// mechanisms. Every heartbeat interval, a node pulls from each of its static
// peers: it advertises the set of message ids it holds (REPL_HELLO) and the
// peer answers with the messages it is missing (REPL_SEND). Independently,
// right after a local POST or LOGIN, the node eagerly pushes the new message
// or token to all peers on short-lived connections, without waiting for acks.
// Pushes are best-effort; the periodic pull is the durability backstop.
//
// Merging is idempotent: a record whose id is already present is discarded,
// so batches can be applied repeatedly and in any order.
//
// # Pause
//
// The control surface can pause replication at runtime. A paused node neither
// gossips out nor accepts inbound REPL_* traffic, but its user-facing API
// remains fully operational. Resume re-activates replication without a
// restart.
package node

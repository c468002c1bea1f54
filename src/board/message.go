package board

import (
	"fmt"
	"time"
)

// MessageType determines who can read a message.
type MessageType string

const (
	// Public messages are visible to everyone, authenticated or not.
	Public MessageType = "public"

	// Private messages are visible only to their author.
	Private MessageType = "private"
)

// Valid reports whether t is one of the supported message types.
func (t MessageType) Valid() bool {
	return t == Public || t == Private
}

// Message is one posted message together with its replication metadata. A
// Message never changes after creation; replicas exchange copies of it and
// deduplicate on ID.
type Message struct {
	// ID is globally unique by construction: "<origin>:<seq>", and the
	// (origin, seq) pair is never reused.
	ID string `json:"id"`

	// Origin is the id of the node where the message was created.
	Origin string `json:"origin"`

	// Seq is the origin's local sequence number, assigned under the origin's
	// store lock.
	Seq int `json:"seq"`

	Author  string `json:"author"`
	Content string `json:"content"`

	// Ts is the creation timestamp in floating-point seconds since the epoch,
	// taken from the origin's local clock. Cross-node ordering on Ts is only
	// approximately causal; there is no clock synchronisation.
	Ts float64 `json:"ts"`

	Type MessageType `json:"message_type"`
}

// NewMessage creates a message stamped with the local clock.
func NewMessage(origin string, seq int, author, content string, t MessageType) *Message {
	return &Message{
		ID:      fmt.Sprintf("%s:%d", origin, seq),
		Origin:  origin,
		Seq:     seq,
		Author:  author,
		Content: content,
		Ts:      now(),
		Type:    t,
	}
}

// Reconstruct fills the fields a transmitted record may omit: a zero
// timestamp takes the local clock and an empty type defaults to public.
func (m *Message) Reconstruct() {
	if m.Ts == 0 {
		m.Ts = now()
	}
	if m.Type == "" {
		m.Type = Public
	}
}

// IsPublic reports whether the message is visible to everyone.
func (m *Message) IsPublic() bool {
	return m.Type == Public
}

// IsPrivate reports whether the message is visible only to its author.
func (m *Message) IsPrivate() bool {
	return m.Type == Private
}

func (m *Message) String() string {
	privacy := "pub"
	if m.IsPrivate() {
		privacy = "priv"
	}
	return fmt.Sprintf("%s [%s] %s (%s)", privacy, m.Author, m.Content, m.ID)
}

func now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

package board

import (
	"sort"
	"sync"
)

// Store is the node's message collection. It is the authority for message
// existence: inserting an id that is already present is a no-op, which is what
// makes replication idempotent. It also owns the local sequence counter, so
// that minting a fresh id and inserting the resulting message happen under a
// single lock.
//
// The lock is never held across a network call; replication code snapshots
// ids or messages and releases the lock before contacting peers.
type Store struct {
	mtx     sync.Mutex
	byID    map[string]*Message
	ordered []*Message
	seq     int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		byID: make(map[string]*Message),
	}
}

// CreateLocal mints the next local sequence number, builds the message and
// inserts it, all under the store lock. The returned message is freshly
// created, so the insert can never hit a duplicate.
func (s *Store) CreateLocal(origin, author, content string, t MessageType) *Message {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.seq++
	m := NewMessage(origin, s.seq, author, content, t)
	s.insert(m)

	return m
}

// Insert adds a message if its id is absent. It returns false, without any
// effect, when the id is already present.
func (s *Store) Insert(m *Message) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.insert(m)
}

// InsertBatch applies a batch of messages and returns how many were newly
// accepted. Applying the same batch any number of times, in any order,
// converges to the same store state.
func (s *Store) InsertBatch(batch []*Message) int {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	accepted := 0
	for _, m := range batch {
		if s.insert(m) {
			accepted++
		}
	}
	return accepted
}

// insert must be called with the lock held.
func (s *Store) insert(m *Message) bool {
	if _, ok := s.byID[m.ID]; ok {
		return false
	}

	s.byID[m.ID] = m
	s.ordered = append(s.ordered, m)
	sort.Slice(s.ordered, func(i, j int) bool {
		if s.ordered[i].Ts != s.ordered[j].Ts {
			return s.ordered[i].Ts < s.ordered[j].Ts
		}
		return s.ordered[i].ID < s.ordered[j].ID
	})

	return true
}

// KnownIDs returns a snapshot of all ids currently held. It is what a node
// advertises to a peer when it pulls.
func (s *Store) KnownIDs() []string {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	ids := make([]string, 0, len(s.ordered))
	for _, m := range s.ordered {
		ids = append(ids, m.ID)
	}
	return ids
}

// Diff returns the messages whose ids are not in known, in canonical order.
// It is the serving side of the anti-entropy pull.
func (s *Store) Diff(known []string) []*Message {
	knownSet := make(map[string]struct{}, len(known))
	for _, id := range known {
		knownSet[id] = struct{}{}
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	missing := []*Message{}
	for _, m := range s.ordered {
		if _, ok := knownSet[m.ID]; !ok {
			missing = append(missing, m)
		}
	}
	return missing
}

// Visible returns, in canonical order, every message that is public or
// authored by the given user. An empty author degrades to public-only.
func (s *Store) Visible(author string) []*Message {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	visible := []*Message{}
	for _, m := range s.ordered {
		if m.IsPublic() || (author != "" && m.Author == author) {
			visible = append(visible, m)
		}
	}
	return visible
}

// All returns every message in canonical (ts, id) order.
func (s *Store) All() []*Message {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	all := make([]*Message, len(s.ordered))
	copy(all, s.ordered)
	return all
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.byID)
}

// Seq returns the last locally-assigned sequence number.
func (s *Store) Seq() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.seq
}

package node

import (
	"sync"
	"sync/atomic"
)

// State captures the replication state of a corkboard node: Active, Paused,
// or Shutdown.
type State uint32

const (
	// Active is the initial state: the node gossips, pushes, and accepts
	// inbound replication.
	Active State = iota

	// Paused suspends all replication, inbound and outbound, while the
	// user-facing API keeps working.
	Paused

	// Shutdown is the terminal state of a stopping process.
	Shutdown
)

func (s State) String() string {
	switch s {
	case Active:
		return "Active"
	case Paused:
		return "Paused"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
	wg    sync.WaitGroup
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (b *state) setState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// Start a goroutine and add it to waitgroup
func (b *state) goFunc(f func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		f()
	}()
}

func (b *state) waitRoutines() {
	b.wg.Wait()
}

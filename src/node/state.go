package node

import (
	"sync/atomic"
)

// State captures the lifecycle of a node: Uninitialized or Initialized.
type State uint32

const (
	// Uninitialized is the initial state. The node has no identity and only
	// accepts init.
	Uninitialized State = iota

	// Initialized is the state in which the node has an identity and serves
	// the messages of its agent.
	Initialized
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initialized:
		return "Initialized"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (b *state) setState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

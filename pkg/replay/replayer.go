package replay

import (
	"fmt"

	"github.com/ReverseTools/panda/pkg/trace"
)

// Replayer steps through a decoded value log the way the guest produced
// it: forward in call order, or backward one event at a time.
type Replayer interface {
	// LoadEvents loads decoded events into the replayer
	LoadEvents([]trace.Event) error

	// ReplayForward visits all events from the current position
	ReplayForward(visit func(idx int, ev trace.Event)) error

	// ReplayUntilFault advances until the next exception marker,
	// returning its index, or -1 when no fault remains
	ReplayUntilFault(visit func(idx int, ev trace.Event)) (int, error)

	// StepBackward steps backward from the current index and returns
	// the new index
	StepBackward() (int, error)

	// CurrentIndex returns the current event index
	CurrentIndex() int

	// Events returns all loaded events
	Events() []trace.Event
}

// BasicReplayer implements the Replayer interface
type BasicReplayer struct {
	events     []trace.Event
	currentIdx int
}

// NewBasicReplayer creates a new BasicReplayer
func NewBasicReplayer() *BasicReplayer {
	return &BasicReplayer{currentIdx: -1}
}

// LoadEvents loads the given events into the replayer
func (r *BasicReplayer) LoadEvents(events []trace.Event) error {
	r.events = events
	r.currentIdx = -1
	return nil
}

// ReplayForward visits all events from the current position to the end
func (r *BasicReplayer) ReplayForward(visit func(idx int, ev trace.Event)) error {
	for i := r.currentIdx + 1; i < len(r.events); i++ {
		if visit != nil {
			visit(i, r.events[i])
		}
		r.currentIdx = i
	}
	return nil
}

// ReplayUntilFault advances until the next exception marker. The marker
// itself is visited: it is part of the faulted unit's segment.
func (r *BasicReplayer) ReplayUntilFault(visit func(idx int, ev trace.Event)) (int, error) {
	for i := r.currentIdx + 1; i < len(r.events); i++ {
		if visit != nil {
			visit(i, r.events[i])
		}
		r.currentIdx = i
		if r.events[i].Kind == trace.ExceptionEntry {
			return i, nil
		}
	}
	return -1, nil
}

// StepBackward moves one step backward in the event log
func (r *BasicReplayer) StepBackward() (int, error) {
	if r.currentIdx <= 0 {
		return 0, fmt.Errorf("already at the beginning")
	}
	r.currentIdx--
	return r.currentIdx, nil
}

// CurrentIndex returns the current event index
func (r *BasicReplayer) CurrentIndex() int {
	return r.currentIdx
}

// Events returns all loaded events
func (r *BasicReplayer) Events() []trace.Event {
	return r.events
}

package event

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// Status represents where an event is in its lifecycle.
type Status string

// Set of event statuses. Transitions only move forward.
const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusEnded    Status = "ended"
)

// Set of lifecycle transitions.
const (
	transitionAccept = "accept"
	transitionEnd    = "end"
)

// rank orders the statuses so snapshots from peers can be merged without
// moving an event backwards.
func (s Status) rank() int {
	switch s {
	case StatusAccepted:
		return 1
	case StatusEnded:
		return 2
	default:
		return 0
	}
}

// newMachine constructs the lifecycle machine positioned at the status.
//
//	pending  --accept--> accepted
//	pending  --end-----> ended
//	accepted --end-----> ended
func newMachine(current Status) *fsm.FSM {
	return fsm.NewFSM(
		string(current),
		fsm.Events{
			{
				Name: transitionAccept,
				Src:  []string{string(StatusPending)},
				Dst:  string(StatusAccepted),
			},
			{
				Name: transitionEnd,
				Src:  []string{string(StatusPending), string(StatusAccepted)},
				Dst:  string(StatusEnded),
			},
		},
		fsm.Callbacks{},
	)
}

// transition moves the status through the machine. Transitions that are not
// allowed from the current status leave it unchanged.
func transition(current Status, name string) (Status, error) {
	machine := newMachine(current)
	if !machine.Can(name) {
		return current, fmt.Errorf("transition %q not allowed from %q", name, current)
	}

	if err := machine.Event(context.Background(), name); err != nil {
		return current, err
	}

	return Status(machine.Current()), nil
}

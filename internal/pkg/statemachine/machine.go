package statemachine

import (
	"context"
	"errors"
	"fmt"

	loopfsm "github.com/looplab/fsm"
)

// Edge is one permitted transition: Event moves Src to Dst.
type Edge[S ~string, E ~string] struct {
	Event E
	Src   S
	Dst   S
}

// TransitionError reports an event that is not permitted from the current state.
type TransitionError struct {
	Event   string
	Current string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not permitted from %q", e.Event, e.Current)
}

// Machine validates transitions against a fixed table. looplab/fsm is
// stateful, so every Apply runs on a fresh instance seeded with current.
type Machine[S ~string, E ~string] struct {
	events []loopfsm.EventDesc
}

func New[S ~string, E ~string](edges []Edge[S, E]) *Machine[S, E] {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0, len(edges))

	for _, e := range edges {
		k := key{event: string(e.Event), dst: string(e.Dst)}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(e.Src))
	}

	events := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		events = append(events, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return &Machine[S, E]{events: events}
}

// Apply returns the state event leads to from current, or a *TransitionError.
func (m *Machine[S, E]) Apply(ctx context.Context, current S, event E) (S, error) {
	machine := loopfsm.NewFSM(string(current), m.events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return current, &TransitionError{Event: string(event), Current: string(current)}
		}
		return current, err
	}

	return S(machine.Current()), nil
}

// Can reports whether event is permitted from current.
func (m *Machine[S, E]) Can(current S, event E) bool {
	return loopfsm.NewFSM(string(current), m.events, nil).Can(string(event))
}

func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

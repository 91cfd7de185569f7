package domain

import (
	"fmt"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
)

// AppTransition represents an action that can change an app's lifecycle state
type AppTransition string

const (
	// TransitionStart provisions storage and brings the app online
	TransitionStart AppTransition = "Start"
	// TransitionStop takes the app offline without touching its data
	TransitionStop AppTransition = "Stop"
	// TransitionDelete begins teardown of the app and its tables
	TransitionDelete AppTransition = "Delete"
	// TransitionFail records a provisioning or runtime failure
	TransitionFail AppTransition = "Fail"
)

// AppStateMachine enforces valid lifecycle transitions for registered apps.
// Invalid transitions return an error (fail-fast approach).
type AppStateMachine struct {
	// transitions maps (current state, transition) -> next state
	transitions map[stateTransitionKey]constants.AppStatus
}

type stateTransitionKey struct {
	state      constants.AppStatus
	transition AppTransition
}

// NewAppStateMachine creates a new state machine with the app lifecycle rules.
// State diagram:
//
//	      Start             Stop
//	        │                 │
//	        ▼                 ▼
//	 [Draft]──►[Running]◄──►[Stopped]
//	    │          │    Start   │
//	    │          │            │
//	    └──────────┼────────────┘
//	               ▼ Delete
//	          [Deleting]
//
//	Draft, Running and Stopped can transition to [Error] via Fail;
//	Error can retry via Start or tear down via Delete.
func NewAppStateMachine() *AppStateMachine {
	sm := &AppStateMachine{
		transitions: make(map[stateTransitionKey]constants.AppStatus),
	}

	sm.addTransition(constants.AppStatusDraft, TransitionStart, constants.AppStatusRunning)
	sm.addTransition(constants.AppStatusStopped, TransitionStart, constants.AppStatusRunning)
	sm.addTransition(constants.AppStatusError, TransitionStart, constants.AppStatusRunning)
	sm.addTransition(constants.AppStatusRunning, TransitionStop, constants.AppStatusStopped)
	sm.addTransition(constants.AppStatusDraft, TransitionDelete, constants.AppStatusDeleting)
	sm.addTransition(constants.AppStatusRunning, TransitionDelete, constants.AppStatusDeleting)
	sm.addTransition(constants.AppStatusStopped, TransitionDelete, constants.AppStatusDeleting)
	sm.addTransition(constants.AppStatusError, TransitionDelete, constants.AppStatusDeleting)
	sm.addTransition(constants.AppStatusDraft, TransitionFail, constants.AppStatusError)
	sm.addTransition(constants.AppStatusRunning, TransitionFail, constants.AppStatusError)
	sm.addTransition(constants.AppStatusStopped, TransitionFail, constants.AppStatusError)

	return sm
}

func (sm *AppStateMachine) addTransition(from constants.AppStatus, via AppTransition, to constants.AppStatus) {
	key := stateTransitionKey{state: from, transition: via}
	sm.transitions[key] = to
}

// Transition attempts to transition from the current state using the given action.
// Returns the new state or an error if the transition is invalid.
func (sm *AppStateMachine) Transition(current constants.AppStatus, action AppTransition) (constants.AppStatus, error) {
	key := stateTransitionKey{state: current, transition: action}
	next, ok := sm.transitions[key]
	if !ok {
		return current, fmt.Errorf("invalid state transition: cannot %s from %s", action, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *AppStateMachine) CanTransition(current constants.AppStatus, action AppTransition) bool {
	key := stateTransitionKey{state: current, transition: action}
	_, ok := sm.transitions[key]
	return ok
}

// ValidTransitions returns all valid transitions from the given state.
func (sm *AppStateMachine) ValidTransitions(state constants.AppStatus) []AppTransition {
	var result []AppTransition
	for key := range sm.transitions {
		if key.state == state {
			result = append(result, key.transition)
		}
	}
	return result
}

// IsTerminal returns true if the state is a terminal state (no further transitions).
func (sm *AppStateMachine) IsTerminal(state constants.AppStatus) bool {
	return state == constants.AppStatusDeleting
}

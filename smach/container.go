package smach

// Edge is one internal transition of a container: child From may terminate
// with Outcome, which maps to sibling label or container outcome To.
type Edge struct {
	Outcome string
	From    string
	To      string
}

// TransitionCallback is invoked after a container's active state set
// changes. The callback receives the container userdata and a snapshot of
// the new active states.
type TransitionCallback func(ud *UserData, active []string)

// Container is a named collection of states being monitored. It only
// describes shape and current activity; it never decides transitions
// itself. Active states are set by whatever drives the container.
type Container interface {
	Node

	// Children returns the child labels in the order they were added.
	Children() []string
	// Child returns the node registered under label.
	Child(label string) (Node, bool)
	// InternalEdges returns all declared transitions.
	InternalEdges() []Edge

	InitialStates() []string
	ActiveStates() []string

	// SetInitialState declares the starting configuration and merges
	// local data into the container userdata.
	SetInitialState(initial []string, localData map[string]any) error
	// SetActiveStates replaces the active state set and fires the
	// registered transition callbacks.
	SetActiveStates(labels ...string) error

	UserData() *UserData
	RegisterTransitionCallback(cb TransitionCallback)
}

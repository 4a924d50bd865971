package smach

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSealed is returned by Add once a state machine's structure has been
// sealed. Observers rely on structure being immutable while status flows.
var ErrSealed = errors.New("smach: state machine structure is sealed")

// StateMachine is an assembled container. Children and transitions are
// declared up front with Add; after Seal the structure is frozen and only
// the active state set and userdata may change.
type StateMachine struct {
	mu        sync.RWMutex
	outcomes  []string
	order     []string
	children  map[string]Node
	edges     []Edge
	initial   []string
	active    []string
	userData  *UserData
	callbacks []TransitionCallback
	sealed    bool
}

// NewStateMachine creates a container with the given container outcomes.
func NewStateMachine(outcomes ...string) *StateMachine {
	return &StateMachine{
		outcomes: append([]string(nil), outcomes...),
		children: make(map[string]Node),
		userData: NewUserData(),
	}
}

// Add registers child under label. transitions maps each handled outcome of
// the child to a sibling label or container outcome; targets are not
// resolved until CheckConsistency so forward references are fine. The first
// child added becomes the default initial state.
func (sm *StateMachine) Add(label string, child Node, transitions map[string]string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.sealed {
		return ErrSealed
	}
	if _, exists := sm.children[label]; exists {
		return fmt.Errorf("smach: child %q already added", label)
	}

	registered := make(map[string]struct{})
	for _, o := range child.RegisteredOutcomes() {
		registered[o] = struct{}{}
	}
	for outcome, target := range transitions {
		if _, ok := registered[outcome]; !ok {
			return fmt.Errorf("smach: outcome %q is not registered on child %q", outcome, label)
		}
		sm.edges = append(sm.edges, Edge{Outcome: outcome, From: label, To: target})
	}

	sm.children[label] = child
	sm.order = append(sm.order, label)
	if len(sm.initial) == 0 {
		sm.initial = []string{label}
	}
	return nil
}

// Seal freezes the structure. Called by the introspection layer before it
// starts reporting, so a published structure message stays valid.
func (sm *StateMachine) Seal() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sealed = true
}

// CheckConsistency verifies that every transition target resolves to a
// child label or a container outcome.
func (sm *StateMachine) CheckConsistency() error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	outcomes := make(map[string]struct{})
	for _, o := range sm.outcomes {
		outcomes[o] = struct{}{}
	}
	for _, e := range sm.edges {
		if _, ok := sm.children[e.To]; ok {
			continue
		}
		if _, ok := outcomes[e.To]; ok {
			continue
		}
		return fmt.Errorf("smach: transition %q from %q leads to unknown target %q", e.Outcome, e.From, e.To)
	}
	return nil
}

func (sm *StateMachine) RegisteredOutcomes() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return append([]string(nil), sm.outcomes...)
}

func (sm *StateMachine) Children() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return append([]string(nil), sm.order...)
}

func (sm *StateMachine) Child(label string) (Node, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	child, ok := sm.children[label]
	return child, ok
}

func (sm *StateMachine) InternalEdges() []Edge {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return append([]Edge(nil), sm.edges...)
}

func (sm *StateMachine) InitialStates() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return append([]string(nil), sm.initial...)
}

func (sm *StateMachine) ActiveStates() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return append([]string(nil), sm.active...)
}

func (sm *StateMachine) SetInitialState(initial []string, localData map[string]any) error {
	sm.mu.Lock()
	for _, label := range initial {
		if _, ok := sm.children[label]; !ok {
			sm.mu.Unlock()
			return fmt.Errorf("smach: initial state %q is not a child", label)
		}
	}
	sm.initial = append([]string(nil), initial...)
	sm.mu.Unlock()

	if localData != nil {
		sm.userData.Merge(localData)
	}
	return nil
}

func (sm *StateMachine) SetActiveStates(labels ...string) error {
	sm.mu.Lock()
	for _, label := range labels {
		if _, ok := sm.children[label]; !ok {
			sm.mu.Unlock()
			return fmt.Errorf("smach: active state %q is not a child", label)
		}
	}
	sm.active = append([]string(nil), labels...)
	active := append([]string(nil), sm.active...)
	callbacks := append([]TransitionCallback(nil), sm.callbacks...)
	sm.mu.Unlock()

	for _, cb := range callbacks {
		cb(sm.userData, active)
	}
	return nil
}

func (sm *StateMachine) UserData() *UserData {
	return sm.userData
}

func (sm *StateMachine) RegisterTransitionCallback(cb TransitionCallback) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.callbacks = append(sm.callbacks, cb)
}

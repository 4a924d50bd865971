package smach

import (
	"sort"
	"sync"
)

// Node is anything that can be added to a container under a label: a leaf
// State or a nested Container.
type Node interface {
	RegisteredOutcomes() []string
}

// State is a leaf state descriptor. It declares the outcomes a state may
// terminate with and the userdata keys it reads and writes, and carries the
// preempt flag observers and owners coordinate on. It holds no execution
// logic; what happens while a state is active is up to the embedding
// application.
type State struct {
	mu               sync.Mutex
	outcomes         map[string]struct{}
	inputKeys        map[string]struct{}
	outputKeys       map[string]struct{}
	preemptRequested bool
}

func NewState(outcomes ...string) *State {
	s := &State{
		outcomes:   make(map[string]struct{}),
		inputKeys:  make(map[string]struct{}),
		outputKeys: make(map[string]struct{}),
	}
	s.RegisterOutcomes(outcomes...)
	return s
}

// RegisterOutcomes adds outcomes to the outcome set.
func (s *State) RegisterOutcomes(outcomes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range outcomes {
		s.outcomes[o] = struct{}{}
	}
}

func (s *State) RegisteredOutcomes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.outcomes)
}

// RegisterInputKeys adds userdata keys this state may read while active.
func (s *State) RegisterInputKeys(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.inputKeys[k] = struct{}{}
	}
}

// RegisterOutputKeys adds userdata keys this state may write while active.
func (s *State) RegisterOutputKeys(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.outputKeys[k] = struct{}{}
	}
}

// RegisterIOKeys adds userdata keys this state may both read and write.
func (s *State) RegisterIOKeys(keys ...string) {
	s.RegisterInputKeys(keys...)
	s.RegisterOutputKeys(keys...)
}

func (s *State) RegisteredInputKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.inputKeys)
}

func (s *State) RegisteredOutputKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.outputKeys)
}

// RequestPreempt marks the state as preempted.
func (s *State) RequestPreempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preemptRequested = true
}

// ServicePreempt clears the preempt flag after the owner has acted on it.
func (s *State) ServicePreempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preemptRequested = false
}

// RecallPreempt withdraws a pending preempt request.
func (s *State) RecallPreempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preemptRequested = false
}

func (s *State) PreemptRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preemptRequested
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

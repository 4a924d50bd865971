package introspection_test

import (
	"context"
	"strings"
	"sync"

	"github.com/tue-robotics/executive-smach/introspection"
)

// fakeTransport is an in-memory Transport. It records every publication
// in order and delivers to matching subscribers synchronously.
type fakeTransport struct {
	mu        sync.Mutex
	published []publication
	subs      map[string][]chan introspection.Message
}

type publication struct {
	Topic   string
	Payload []byte
	Retain  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{subs: make(map[string][]chan introspection.Message)}
}

func (f *fakeTransport) Publish(_ context.Context, topic string, payload []byte, retain bool) error {
	f.mu.Lock()
	f.published = append(f.published, publication{Topic: topic, Payload: payload, Retain: retain})
	var targets []chan introspection.Message
	for filter, channels := range f.subs {
		if filterMatches(filter, topic) {
			targets = append(targets, channels...)
		}
	}
	f.mu.Unlock()

	for _, ch := range targets {
		ch <- introspection.Message{Topic: topic, Payload: payload}
	}
	return nil
}

func (f *fakeTransport) Subscribe(_ context.Context, filter string) (<-chan introspection.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan introspection.Message, 64)
	f.subs[filter] = append(f.subs[filter], ch)
	return ch, nil
}

// inject delivers a message as if published by an external peer, without
// recording it.
func (f *fakeTransport) inject(topic string, payload []byte) {
	f.mu.Lock()
	var targets []chan introspection.Message
	for filter, channels := range f.subs {
		if filterMatches(filter, topic) {
			targets = append(targets, channels...)
		}
	}
	f.mu.Unlock()

	for _, ch := range targets {
		ch <- introspection.Message{Topic: topic, Payload: payload}
	}
}

// publications returns all recorded publications on the given topic.
func (f *fakeTransport) publications(topic string) []publication {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publication
	for _, p := range f.published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func filterMatches(filter, topic string) bool {
	if filter == topic {
		return true
	}
	if rest, ok := strings.CutPrefix(filter, "+/"); ok {
		if i := strings.Index(topic, "/"); i >= 0 {
			return topic[i+1:] == rest
		}
	}
	return false
}

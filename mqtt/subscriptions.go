package mqtt

import (
	"strings"
	"sync"

	"github.com/tue-robotics/executive-smach/introspection"
)

const subscriptionBuffer = 16

// subscriptionManager routes incoming publications to the channel of the
// matching topic filter. Sends never block; a slow consumer loses the
// oldest pending message first, which is fine for latest-wins status
// traffic.
type subscriptionManager struct {
	mu            sync.RWMutex
	subscriptions map[string]chan introspection.Message
}

func newSubscriptionManager() *subscriptionManager {
	return &subscriptionManager{subscriptions: make(map[string]chan introspection.Message)}
}

func (sm *subscriptionManager) add(filter string) chan introspection.Message {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	ch := make(chan introspection.Message, subscriptionBuffer)
	sm.subscriptions[filter] = ch
	return ch
}

func (sm *subscriptionManager) remove(filter string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.subscriptions, filter)
}

func (sm *subscriptionManager) dispatch(m introspection.Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for filter, ch := range sm.subscriptions {
		if !topicMatches(filter, m.Topic) {
			continue
		}
		select {
		case ch <- m:
		default:
			// full: drop the oldest pending message and retry once
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- m:
			default:
			}
		}
	}
}

// topicMatches implements MQTT topic filter matching with the "+"
// single-level and trailing "#" multi-level wildcards.
func topicMatches(filter, topic string) bool {
	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")

	for i, level := range filterLevels {
		if level == "#" {
			return i == len(filterLevels)-1
		}
		if i >= len(topicLevels) {
			return false
		}
		if level != "+" && level != topicLevels[i] {
			return false
		}
	}
	return len(filterLevels) == len(topicLevels)
}

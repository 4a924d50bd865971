package smach

import (
	"encoding/json"
	"sort"
	"sync"
)

// UserData is the key/value store shared between a container and its
// observers. Values must be JSON-encodable so they can travel inside
// status messages.
type UserData struct {
	mu   sync.RWMutex
	data map[string]any
}

func NewUserData() *UserData {
	return &UserData{data: make(map[string]any)}
}

func (ud *UserData) Get(key string) (any, bool) {
	ud.mu.RLock()
	defer ud.mu.RUnlock()
	v, ok := ud.data[key]
	return v, ok
}

func (ud *UserData) Set(key string, value any) {
	ud.mu.Lock()
	defer ud.mu.Unlock()
	ud.data[key] = value
}

func (ud *UserData) Keys() []string {
	ud.mu.RLock()
	defer ud.mu.RUnlock()
	keys := make([]string, 0, len(ud.data))
	for k := range ud.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge copies all entries of m into the store, overwriting existing keys.
func (ud *UserData) Merge(m map[string]any) {
	ud.mu.Lock()
	defer ud.mu.Unlock()
	for k, v := range m {
		ud.data[k] = v
	}
}

// Snapshot returns a shallow copy of the store contents.
func (ud *UserData) Snapshot() map[string]any {
	ud.mu.RLock()
	defer ud.mu.RUnlock()
	m := make(map[string]any, len(ud.data))
	for k, v := range ud.data {
		m[k] = v
	}
	return m
}

// Encode renders the store as a JSON object string for transport inside
// a status message.
func (ud *UserData) Encode() (string, error) {
	ud.mu.RLock()
	defer ud.mu.RUnlock()
	data, err := json.Marshal(ud.data)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeUserData parses the JSON object string produced by Encode. An
// empty string yields an empty store.
func DecodeUserData(s string) (*UserData, error) {
	ud := NewUserData()
	if s == "" {
		return ud, nil
	}
	if err := json.Unmarshal([]byte(s), &ud.data); err != nil {
		return nil, err
	}
	return ud, nil
}

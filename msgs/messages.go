// Package msgs defines the wire schemas of the container introspection
// protocol. All three messages are JSON-encoded and published
// fire-and-forget; a later status supersedes an earlier one.
package msgs

import (
	"time"
)

// Topic suffixes. Full topics are "<server>/<suffix>" so several
// introspection servers can share one broker.
const (
	StructureTopic = "smach/container_structure"
	StatusTopic    = "smach/container_status"
	InitTopic      = "smach/container_init"
)

// PathSep separates container labels inside a path. A path uniquely
// identifies one container instance, e.g. "/root/APPROACH".
const PathSep = "/"

// Topic builds the full topic for a server. server may be the MQTT
// single-level wildcard "+" to address every server at once.
func Topic(server, suffix string) string {
	return server + "/" + suffix
}

// ServerFromTopic extracts the server prefix again.
func ServerFromTopic(topic string) string {
	for i := 0; i < len(topic); i++ {
		if topic[i] == '/' {
			return topic[:i]
		}
	}
	return topic
}

// SmachContainerInitialStatusCmd asks a container to take on a starting
// configuration. Sent by a controlling or monitoring process to the init
// topic of one server; the addressed container answers with a fresh
// status message.
type SmachContainerInitialStatusCmd struct {
	Path          string   `json:"path"`
	InitialStates []string `json:"initial_states"`
	LocalData     string   `json:"local_data"`
}

// SmachContainerStructure describes the static shape of one container:
// its children and the internal transition edges between them. Emitted
// when a container is registered and never changed afterwards.
//
// InternalOutcomes, OutcomesFrom and OutcomesTo are parallel slices; index
// i describes the edge "From --Outcome--> To".
type SmachContainerStructure struct {
	Stamp             time.Time `json:"stamp"`
	Path              string    `json:"path"`
	Children          []string  `json:"children"`
	InternalOutcomes  []string  `json:"internal_outcomes"`
	OutcomesFrom      []string  `json:"outcomes_from"`
	OutcomesTo        []string  `json:"outcomes_to"`
	ContainerOutcomes []string  `json:"container_outcomes"`
}

// SmachContainerStatus is a snapshot of one container's live state.
// Emitted on every transition and on a heartbeat tick. LocalData carries
// the container userdata as a JSON object string.
type SmachContainerStatus struct {
	Stamp         time.Time `json:"stamp"`
	Path          string    `json:"path"`
	InitialStates []string  `json:"initial_states"`
	ActiveStates  []string  `json:"active_states"`
	LocalData     string    `json:"local_data"`
	Info          string    `json:"info"`
}

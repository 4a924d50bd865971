package msgs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagesRoundTrip(t *testing.T) {
	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cmd := SmachContainerInitialStatusCmd{Path: "/root", InitialStates: []string{"A"}, LocalData: `{"speed":1}`}
	structure := SmachContainerStructure{
		Stamp:             stamp,
		Path:              "/root",
		Children:          []string{"A", "B"},
		InternalOutcomes:  []string{"advance"},
		OutcomesFrom:      []string{"A"},
		OutcomesTo:        []string{"B"},
		ContainerOutcomes: []string{"done"},
	}
	status := SmachContainerStatus{
		Stamp:         stamp,
		Path:          "/root",
		InitialStates: []string{"A"},
		ActiveStates:  []string{"B"},
		LocalData:     `{"speed":1}`,
		Info:          "transition",
	}

	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	var cmd2 SmachContainerInitialStatusCmd
	require.NoError(t, json.Unmarshal(data, &cmd2))
	assert.Equal(t, cmd, cmd2)

	data, err = json.Marshal(structure)
	require.NoError(t, err)
	var structure2 SmachContainerStructure
	require.NoError(t, json.Unmarshal(data, &structure2))
	assert.Equal(t, structure, structure2)

	data, err = json.Marshal(status)
	require.NoError(t, err)
	var status2 SmachContainerStatus
	require.NoError(t, json.Unmarshal(data, &status2))
	assert.Equal(t, status, status2)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "root/smach/container_status", Topic("root", StatusTopic))
	assert.Equal(t, "+/smach/container_structure", Topic("+", StructureTopic))
}

func TestServerFromTopic(t *testing.T) {
	assert.Equal(t, "root", ServerFromTopic("root/smach/container_status"))
	assert.Equal(t, "root", ServerFromTopic("root"))
}

package introspection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tue-robotics/executive-smach/common"
	"github.com/tue-robotics/executive-smach/msgs"
	"github.com/tue-robotics/executive-smach/smach"
)

// StructureEvent is one structure message together with the server that
// published it.
type StructureEvent struct {
	Server    string
	Structure msgs.SmachContainerStructure
}

// StatusEvent is one status message together with the server that
// published it.
type StatusEvent struct {
	Server string
	Status msgs.SmachContainerStatus
}

type ClientOption func(*Client)

func WithClientLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// Client observes introspection servers. It watches structure and status
// traffic across all servers on the transport and can command a container
// into an initial configuration.
type Client struct {
	transport Transport
	logger    zerolog.Logger
}

func NewClient(transport Transport, opts ...ClientOption) *Client {
	c := &Client{transport: transport, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WatchStructure delivers every structure message published by any server
// until ctx is cancelled. Malformed messages are dropped.
func (c *Client) WatchStructure(ctx context.Context) (<-chan StructureEvent, error) {
	raw, err := c.transport.Subscribe(ctx, msgs.Topic("+", msgs.StructureTopic))
	if err != nil {
		return nil, err
	}

	out := make(chan StructureEvent, 16)
	go func() {
		defer close(out)
		for {
			select {
			case m, ok := <-raw:
				if !ok {
					return
				}
				var structure msgs.SmachContainerStructure
				if err := json.Unmarshal(m.Payload, &structure); err != nil {
					c.logger.Warn().Err(err).Str("topic", m.Topic).Msg("could not unmarshal structure message")
					continue
				}
				select {
				case out <- StructureEvent{Server: msgs.ServerFromTopic(m.Topic), Structure: structure}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// WatchStatus delivers every status message published by any server until
// ctx is cancelled. Malformed messages are dropped.
func (c *Client) WatchStatus(ctx context.Context) (<-chan StatusEvent, error) {
	raw, err := c.transport.Subscribe(ctx, msgs.Topic("+", msgs.StatusTopic))
	if err != nil {
		return nil, err
	}

	out := make(chan StatusEvent, 16)
	go func() {
		defer close(out)
		for {
			select {
			case m, ok := <-raw:
				if !ok {
					return
				}
				var status msgs.SmachContainerStatus
				if err := json.Unmarshal(m.Payload, &status); err != nil {
					c.logger.Warn().Err(err).Str("topic", m.Topic).Msg("could not unmarshal status message")
					continue
				}
				select {
				case out <- StatusEvent{Server: msgs.ServerFromTopic(m.Topic), Status: status}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// SetInitialState commands the container at path on the given server into
// the initial configuration and waits until a status message confirms it,
// or until the timeout expires.
func (c *Client) SetInitialState(ctx context.Context, server, path string, initial []string, localData map[string]any, timeout time.Duration) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	statusChannel, err := c.transport.Subscribe(waitCtx, msgs.Topic(server, msgs.StatusTopic))
	if err != nil {
		return err
	}

	ud := smach.NewUserData()
	ud.Merge(localData)
	encoded, err := ud.Encode()
	if err != nil {
		return err
	}

	cmd := msgs.SmachContainerInitialStatusCmd{Path: path, InitialStates: initial, LocalData: encoded}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	if err := c.transport.Publish(waitCtx, msgs.Topic(server, msgs.InitTopic), payload, false); err != nil {
		return err
	}

	var timer common.Timer
	timer.Start(timeout, cancel)
	defer timer.Stop()

	for {
		select {
		case m, ok := <-statusChannel:
			if !ok {
				return fmt.Errorf("introspection: status channel closed while waiting for %q", path)
			}
			var status msgs.SmachContainerStatus
			if err := json.Unmarshal(m.Payload, &status); err != nil {
				continue
			}
			if status.Path == path && sameStates(status.InitialStates, initial) {
				return nil
			}
		case <-waitCtx.Done():
			return fmt.Errorf("introspection: no confirmation for initial state of %q within %s", path, timeout)
		}
	}
}

// sameStates compares two state label sets ignoring order.
func sameStates(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

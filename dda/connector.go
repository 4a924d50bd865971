// Package dda provides a Data Distribution Agent transport for container
// introspection. Topics map onto DDA event types, the server name onto
// the event source.
package dda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coatyio/dda/config"
	"github.com/coatyio/dda/dda"
	"github.com/coatyio/dda/services/com/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tue-robotics/executive-smach/introspection"
	"github.com/tue-robotics/executive-smach/msgs"
)

const (
	structureEventType = "com.github.tue-robotics.smach.structure"
	statusEventType    = "com.github.tue-robotics.smach.status"
	initEventType      = "com.github.tue-robotics.smach.init"
)

func eventTypeFor(suffix string) (string, bool) {
	switch suffix {
	case msgs.StructureTopic:
		return structureEventType, true
	case msgs.StatusTopic:
		return statusEventType, true
	case msgs.InitTopic:
		return initEventType, true
	}
	return "", false
}

type Connector struct {
	*dda.Dda
	logger zerolog.Logger
}

func NewConnector(url, name, id, cluster string, logger zerolog.Logger) (*Connector, error) {
	ddaConfig := config.New()
	ddaConfig.Services.Com.Url = url
	ddaConfig.Identity.Name = name
	ddaConfig.Identity.Id = id
	ddaConfig.Apis.Grpc.Disabled = true
	ddaConfig.Apis.GrpcWeb.Disabled = true
	ddaConfig.Cluster = cluster

	c := &Connector{logger: logger}

	var err error
	if c.Dda, err = dda.New(ddaConfig); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Connector) Open() error {
	return c.Dda.Open(5 * time.Second)
}

func (c *Connector) Close() {
	c.logger.Info().Msg("dda connector: close")
	c.Dda.Close()
}

// Publish sends the payload as a DDA event. DDA does not retain events;
// the introspection heartbeat covers observers that join late.
func (c *Connector) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	server, suffix := splitTopic(topic)
	kind, ok := eventTypeFor(suffix)
	if !ok {
		return fmt.Errorf("dda: no event type for topic %q", topic)
	}

	return c.Dda.PublishEvent(api.Event{Type: kind, Id: uuid.NewString(), Source: server, Data: payload})
}

// Subscribe delivers events of the filter's kind. The server part of the
// filter may be "+" to observe every server.
func (c *Connector) Subscribe(ctx context.Context, filter string) (<-chan introspection.Message, error) {
	server, suffix := splitTopic(filter)
	kind, ok := eventTypeFor(suffix)
	if !ok {
		return nil, fmt.Errorf("dda: no event type for filter %q", filter)
	}

	events, err := c.Dda.SubscribeEvent(ctx, api.SubscriptionFilter{Type: kind})
	if err != nil {
		return nil, err
	}

	ch := make(chan introspection.Message, 16)
	go func() {
		defer close(ch)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if server != "+" && ev.Source != server {
					continue
				}
				select {
				case ch <- introspection.Message{Topic: msgs.Topic(ev.Source, suffix), Payload: ev.Data}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func splitTopic(topic string) (server, suffix string) {
	if i := strings.Index(topic, "/"); i >= 0 {
		return topic[:i], topic[i+1:]
	}
	return topic, ""
}

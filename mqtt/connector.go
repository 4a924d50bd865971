// Package mqtt provides the MQTT transport for container introspection.
package mqtt

import (
	"context"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/rs/zerolog"

	"github.com/tue-robotics/executive-smach/introspection"
)

// Connector is an introspection.Transport over an MQTT broker. Messages
// are published with QoS 1; structure messages use the retain flag so
// late observers see the last announcement immediately.
type Connector struct {
	logger        zerolog.Logger
	cliCfg        autopaho.ClientConfig
	connection    *autopaho.ConnectionManager
	subscriptions *subscriptionManager
}

func NewConnector(brokerURL, clientID string, logger zerolog.Logger) (*Connector, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, err
	}

	c := &Connector{logger: logger, subscriptions: newSubscriptionManager()}

	c.cliCfg = autopaho.ClientConfig{
		BrokerUrls:     []*url.URL{u},
		KeepAlive:      20,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, connAck *paho.Connack) { logger.Info().Msg("mqtt connection up") },
		OnConnectError: func(err error) { logger.Warn().Err(err).Msg("error whilst attempting connection") },
		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
			Router: paho.NewSingleHandlerRouter(func(m *paho.Publish) {
				c.subscriptions.dispatch(introspection.Message{Topic: m.Topic, Payload: m.Payload})
			}),
			OnClientError: func(err error) { logger.Warn().Err(err).Msg("client error") },
			OnServerDisconnect: func(d *paho.Disconnect) {
				if d.Properties != nil {
					logger.Warn().Str("reason", d.Properties.ReasonString).Msg("server requested disconnect")
				} else {
					logger.Warn().Uint8("reason_code", d.ReasonCode).Msg("server requested disconnect")
				}
			},
		},
	}

	return c, nil
}

func (c *Connector) Connect(ctx context.Context) error {
	connection, err := autopaho.NewConnection(ctx, c.cliCfg)
	if err != nil {
		return err
	}

	if err = connection.AwaitConnection(ctx); err != nil {
		return err
	}

	c.connection = connection

	return nil
}

func (c *Connector) Disconnect(ctx context.Context) {
	c.connection.Disconnect(ctx)
}

func (c *Connector) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	_, err := c.connection.Publish(ctx, &paho.Publish{
		QoS:     1,
		Topic:   topic,
		Payload: payload,
		Retain:  retain,
	})
	return err
}

// Subscribe registers a subscription for filter, which may contain the
// MQTT wildcards "+" and "#", and returns the channel messages arrive on.
func (c *Connector) Subscribe(ctx context.Context, filter string) (<-chan introspection.Message, error) {
	ch := c.subscriptions.add(filter)
	if _, err := c.connection.Subscribe(ctx, &paho.Subscribe{Subscriptions: []paho.SubscribeOptions{{Topic: filter, QoS: 1}}}); err != nil {
		c.subscriptions.remove(filter)
		return nil, err
	}

	return ch, nil
}

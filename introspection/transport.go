// Package introspection implements the container status reporting
// protocol: a Server announces a container tree's structure and live
// status over a pub/sub transport, a Client observes it.
package introspection

import "context"

// Message is one raw publication received from a subscription.
type Message struct {
	Topic   string
	Payload []byte
}

// Transport is the pub/sub channel the protocol runs over. Publish is
// fire-and-forget; no delivery or ordering guarantee is assumed beyond
// what the transport itself provides. retain asks the transport to replay
// the last message to late subscribers where supported; transports
// without retention may ignore it, the server's heartbeat compensates.
// Retention holds one message per topic, so a server with several nested
// containers on one structure topic still needs the heartbeat for late
// joiners to see every container.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte, retain bool) error
	Subscribe(ctx context.Context, filter string) (<-chan Message, error)
}

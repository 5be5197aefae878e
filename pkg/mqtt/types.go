package mqtt

import (
	"context"
)

// MessageHandler is the callback for processing received MQTT messages.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is the interface for a generic MQTT client. It hides the underlying
// paho implementation details from the rest of the codebase.
type Client interface {
	// Start initiates the connection to the broker.
	// It is non-blocking and returns immediately. Use AwaitConnection to wait.
	Start(ctx context.Context) error

	// Disconnect cleanly closes the connection.
	Disconnect(ctx context.Context)

	// Publish sends a message to the specified topic.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe registers a handler for a topic filter and sends the
	// SUBSCRIBE packet. If the connection is lost and restored, the client
	// automatically re-subscribes.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	// Unsubscribe removes the handler and sends an UNSUBSCRIBE packet.
	Unsubscribe(ctx context.Context, topic string) error

	// AwaitConnection blocks until the client is connected to the broker.
	AwaitConnection(ctx context.Context) error
}

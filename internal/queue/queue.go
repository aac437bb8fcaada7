// Package queue defines interfaces for the alert lifecycle event
// stream. Every alert state change is published as a message so
// downstream consumers (dashboards, audit trails) can follow the
// lifecycle without polling the history API. The abstraction allows
// swapping implementations (Kafka, in-memory) without touching the
// alert manager.
package queue

import (
	"context"
)

// Message represents a message on the event stream.
type Message struct {
	// Key is the partition key for ordering guarantees. The manager
	// uses the alert id so one alert's transitions stay ordered.
	Key []byte

	// Value is the JSON-encoded domain.AlertEvent payload.
	Value []byte

	// Headers contains optional metadata.
	Headers map[string]string
}

// Producer defines the interface for publishing lifecycle events.
// Implementations must be safe for concurrent use.
type Producer interface {
	// Publish sends a message to the stream. Messages with the same key
	// are delivered to consumers in publish order.
	Publish(ctx context.Context, msg *Message) error

	// Close releases any resources held by the producer.
	Close() error
}

// MessageHandler is a callback function for processing consumed messages.
// Return an error to indicate processing failure (implementation may retry).
type MessageHandler func(ctx context.Context, msg *Message) error

// Consumer defines the interface for consuming lifecycle events.
type Consumer interface {
	// Start begins consuming messages and calls the handler for each one.
	// This is a blocking call that runs until the context is canceled
	// or an unrecoverable error occurs.
	Start(ctx context.Context, handler MessageHandler) error

	// Close stops consuming and releases any resources.
	Close() error
}

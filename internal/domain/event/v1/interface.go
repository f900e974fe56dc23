package v1

import "context"

// Publisher publishes lifecycle events to the bus.
//
//go:generate mockgen -source interface.go -destination=../mock/interface_mock.go -package=event_mock
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler consumes a single inbound event.
type Handler func(ctx context.Context, event Event)

// Subscriber delivers inbound trigger events until the context is done.
type Subscriber interface {
	Run(ctx context.Context, handler Handler) error
	Close() error
}

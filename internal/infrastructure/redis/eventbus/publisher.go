package eventbus

import (
	"context"

	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	"github.com/muhammadchandra19/tickstream/pkg/errors"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
	"github.com/muhammadchandra19/tickstream/pkg/redis"
)

// Publisher broadcasts lifecycle events on a Redis pub/sub channel.
type Publisher struct {
	client  redis.Client
	channel string
	logger  logger.Interface
}

// NewPublisher creates an event publisher on the given channel.
func NewPublisher(client redis.Client, channel string, log logger.Interface) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
		logger:  log,
	}
}

// Publish serializes the event and broadcasts it. Pub/sub is fire and
// forget: zero subscribers is not an error.
func (p *Publisher) Publish(ctx context.Context, event eventv1.Event) error {
	payload, err := event.Bytes()
	if err != nil {
		return errors.NewErrorDetails(err.Error(), string(errors.EventPublishError), string(event.Type))
	}

	if _, err := p.client.Publish(ctx, p.channel, payload); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "channel", Value: p.channel},
			logger.Field{Key: "eventType", Value: string(event.Type)},
		)
		return errors.NewErrorDetails(err.Error(), string(errors.EventPublishError), string(event.Type))
	}

	return nil
}

package eventbus

import (
	"context"

	v9 "github.com/redis/go-redis/v9"

	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	"github.com/muhammadchandra19/tickstream/pkg/errors"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
	"github.com/muhammadchandra19/tickstream/pkg/redis"
	"github.com/muhammadchandra19/tickstream/pkg/util"
)

// Subscriber consumes lifecycle events from a Redis pub/sub channel and
// hands them to a handler. Malformed payloads are logged and skipped so
// one bad producer cannot wedge the stream.
type Subscriber struct {
	client  redis.Client
	channel string
	logger  logger.Interface

	pubsub *v9.PubSub
}

// NewSubscriber creates an event subscriber on the given channel.
func NewSubscriber(client redis.Client, channel string, log logger.Interface) *Subscriber {
	return &Subscriber{
		client:  client,
		channel: channel,
		logger:  log,
	}
}

// Run subscribes and dispatches inbound events until the context is
// done or the subscription channel closes.
func (s *Subscriber) Run(ctx context.Context, handler eventv1.Handler) error {
	pubsub, err := s.client.Subscribe(ctx, s.channel)
	if err != nil {
		return errors.NewErrorDetails(err.Error(), string(errors.RedisSubscribeError), s.channel)
	}
	s.pubsub = pubsub

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.dispatch(ctx, msg.Payload, handler)
		}
	}
}

func (s *Subscriber) dispatch(ctx context.Context, payload string, handler eventv1.Handler) {
	event, err := eventv1.Decode([]byte(payload))
	if err != nil {
		s.logger.Error(errors.NewErrorDetails(err.Error(), string(errors.EventDecodeError), s.channel))
		return
	}
	handler(util.WithEventID(ctx, event.ID), event)
}

// Close tears down the subscription.
func (s *Subscriber) Close() error {
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}

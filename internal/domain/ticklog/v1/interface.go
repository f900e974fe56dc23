package v1

import (
	"context"

	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
)

// Publisher appends one tick at a time to the durable downstream log,
// keyed by symbol.
//
//go:generate mockgen -source interface.go -destination=../mock/interface_mock.go -package=ticklog_mock
type Publisher interface {
	Publish(ctx context.Context, tick tickv1.Tick) error
	Close() error
}

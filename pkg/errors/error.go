package errors

import (
	"bytes"
	"reflect"
	"strings"
)

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralNotFoundError represents a generic not found error.
	GeneralNotFoundError ErrorCode = "general_not_found_error"
	// GeneralRepositoryError represents a generic repository error.
	GeneralRepositoryError ErrorCode = "general_repository_error"

	// InvalidConfigError represents an invalid or incomplete startup configuration.
	InvalidConfigError ErrorCode = "invalid_config"

	// ReadinessPollError represents a failed poll against the upstream record store.
	ReadinessPollError ErrorCode = "readiness_poll_failed"
	// RecordStoreError represents a failure reading or writing the upstream record store.
	RecordStoreError ErrorCode = "record_store_error"

	// QueueFullError represents a delivery queue that rejected a tick at capacity.
	QueueFullError ErrorCode = "queue_full"
	// QueueClosedError represents a publish against a closed delivery queue.
	QueueClosedError ErrorCode = "queue_closed"

	// SequenceAnomalyError represents an out-of-order or duplicate tick at ingestion.
	SequenceAnomalyError ErrorCode = "sequence_anomaly"
	// UnknownSymbolError represents a query for a symbol with no buffer window.
	UnknownSymbolError ErrorCode = "unknown_symbol"

	// PublishError represents a failed publish to the downstream tick log.
	PublishError ErrorCode = "publish_failed"
	// PublishBreakerOpenError represents a publish rejected by an open circuit breaker.
	PublishBreakerOpenError ErrorCode = "publish_breaker_open"

	// EventDecodeError represents an event bus payload that could not be decoded.
	EventDecodeError ErrorCode = "event_decode_error"
	// EventPublishError represents a failed publish to the event bus.
	EventPublishError ErrorCode = "event_publish_error"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
	// RedisSubscribeError represents an error when subscribing to channels in Redis.
	RedisSubscribeError ErrorCode = "redis_subscribe_error"
	// RedisPublishError represents an error when publishing messages to channels in Redis.
	RedisPublishError ErrorCode = "redis_publish_error"
)

// BaseError is an `error` type containing an array of ErrorDetails.
// This error provides basic functions for performing transformations
// on a list of ErrorDetails.
type BaseError struct {
	details []*ErrorDetails
}

// NewBaseError create BaseError with ErrorDetails
func NewBaseError(details ...*ErrorDetails) *BaseError {
	return &BaseError{details: details}
}

// AddErrorDetails add more ErrorDetails to BaseError
func (b *BaseError) AddErrorDetails(errors ...*ErrorDetails) {
	b.details = append(b.details, errors...)
}

// GetDetails get array ErrorDetails on BaseError
func (b *BaseError) GetDetails() []*ErrorDetails {
	return b.details
}

// Error implement error interface
func (b *BaseError) Error() string {
	buff := bytes.NewBufferString("")

	buff.WriteString("Error on\n")
	for _, err := range b.details {
		buff.WriteString("code: ")
		buff.WriteString(err.Code)
		buff.WriteString("; error: ")
		buff.WriteString(err.Error())
		buff.WriteString("; field: ")
		buff.WriteString(err.Field)
		buff.WriteString("; object: ")
		if err.Object != nil {
			buff.WriteString(reflect.TypeOf(err.Object).String())
		}
		buff.WriteString("\n")
	}

	return strings.TrimSpace(buff.String())
}

// HasDetails reports whether the BaseError carries any ErrorDetails.
func (b *BaseError) HasDetails() bool {
	return len(b.details) > 0
}

// IsAnyCodeEqual check if any ErrorDetails code is equal with given code
func (b *BaseError) IsAnyCodeEqual(code string) bool {
	for _, d := range b.GetDetails() {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Package events publishes domain events about record changes to external
// brokers. Publishing is best effort and never blocks the write that caused it.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Event describes a committed change to an academic record.
type Event struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	EntityType    string                 `json:"entityType"`
	EntityID      *uint                  `json:"entityId,omitempty"`
	ActorID       uint                   `json:"actorId"`
	ActorRole     string                 `json:"actorRole"`
	Data          map[string]interface{} `json:"data,omitempty"`
	OccurredAt    time.Time              `json:"occurredAt"`
	CorrelationID string                 `json:"correlationId,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType, entityType string, entityID *uint) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NATSPublisher publishes each event on "<base>.<type>".
type NATSPublisher struct {
	conn *nats.Conn
	base string
}

// NewNATSPublisher returns a publisher bound to the connection and subject prefix.
func NewNATSPublisher(conn *nats.Conn, base string) *NATSPublisher {
	return &NATSPublisher{conn: conn, base: strings.Trim(base, ". ")}
}

// Subject returns the subject an event of the given type is published on.
func (p *NATSPublisher) Subject(eventType string) string {
	return Subject(p.base, eventType)
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	if p.conn == nil {
		return errors.New("nats connection not configured")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.conn.Publish(p.Subject(event.Type), payload)
}

// RedisPublisher publishes events on a Redis pub/sub channel named like the
// NATS subject, with ':' separators.
type RedisPublisher struct {
	client *redis.Client
	base   string
}

// NewRedisPublisher returns a publisher bound to the client and channel prefix.
func NewRedisPublisher(client *redis.Client, base string) *RedisPublisher {
	return &RedisPublisher{client: client, base: strings.Trim(base, ". ")}
}

// Channel returns the channel an event of the given type is published on.
func (p *RedisPublisher) Channel(eventType string) string {
	return strings.ReplaceAll(Subject(p.base, eventType), ".", ":")
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if p.client == nil {
		return errors.New("redis client not configured")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, p.Channel(event.Type), payload).Err()
}

// Multi fans an event out to several publishers and joins their errors.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, publisher := range m {
		if publisher == nil {
			continue
		}
		if err := publisher.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subject joins a subject prefix and an event type.
func Subject(base, eventType string) string {
	if base == "" {
		return eventType
	}
	return base + "." + eventType
}

// Package events publishes user lifecycle events on NATS and consumes the
// audit and tenant invalidation subjects.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Type is the event name, also the subject suffix.
type Type string

const (
	UserCreated     Type = "user.created"
	UserUpdated     Type = "user.updated"
	UserDeleted     Type = "user.deleted"
	CustomerChanged Type = "customer.changed"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "catalog"

// Event is the message body.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	TenantID   int64     `json:"tenantId"`
	UserID     int64     `json:"userId,omitempty"`
	ActorID    int64     `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New returns an event with a fresh id and timestamp.
func New(t Type, tenantID, userID, actorID int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		TenantID:   tenantID,
		UserID:     userID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}

// Subject returns the subject an event of type t is published on.
func Subject(prefix string, t Type) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "." + string(t)
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NATSPublisher publishes events as JSON on a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSPublisher creates a publisher
func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := Subject(p.prefix, e.Type)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Options configures Connect.
type Options struct {
	URL               string
	Name              string
	Username          string
	Password          string
	MaxReconnects     int
	ReconnectInterval time.Duration
}

// Connect opens a NATS connection logging connection state changes.
func Connect(o Options) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(o.Name),
		nats.MaxReconnects(o.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Reconnected to NATS")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			ev := log.Error().Err(err)
			if sub != nil {
				ev = ev.Str("subject", sub.Subject)
			}
			ev.Msg("NATS error")
		}),
	}
	if o.Username != "" {
		opts = append(opts, nats.UserInfo(o.Username, o.Password))
	}
	if o.ReconnectInterval > 0 {
		opts = append(opts, nats.ReconnectWait(o.ReconnectInterval))
	}
	return nats.Connect(o.URL, opts...)
}

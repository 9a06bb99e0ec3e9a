package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// TenantInvalidator drops a cached tenant.
type TenantInvalidator interface {
	Invalidate(ctx context.Context, tenantID int64) error
}

// Subscriber logs user events for audit and drops cached tenants when a
// customer changes.
type Subscriber struct {
	nc          *nats.Conn
	prefix      string
	invalidator TenantInvalidator
	subs        []*nats.Subscription
}

// NewSubscriber creates a subscriber. invalidator may be nil.
func NewSubscriber(nc *nats.Conn, prefix string, invalidator TenantInvalidator) *Subscriber {
	return &Subscriber{
		nc:          nc,
		prefix:      prefix,
		invalidator: invalidator,
		subs:        make([]*nats.Subscription, 0),
	}
}

// Start subscribes and blocks until ctx is done
func (s *Subscriber) Start(ctx context.Context) error {
	userSubject := Subject(s.prefix, "user.*")
	sub1, err := s.nc.Subscribe(userSubject, s.handleUserEvent)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", userSubject, err)
	}
	s.subs = append(s.subs, sub1)

	if s.invalidator != nil {
		customerSubject := Subject(s.prefix, CustomerChanged)
		sub2, err := s.nc.Subscribe(customerSubject, func(msg *nats.Msg) {
			s.handleCustomerChanged(ctx, msg)
		})
		if err != nil {
			s.unsubscribe()
			return fmt.Errorf("subscribe %s: %w", customerSubject, err)
		}
		s.subs = append(s.subs, sub2)
	}

	log.Info().
		Int("subscriptions", len(s.subs)).
		Msg("NATS subscriber started")

	<-ctx.Done()

	s.unsubscribe()
	return ctx.Err()
}

func (s *Subscriber) unsubscribe() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = s.subs[:0]
}

// handleUserEvent writes an audit line for a user lifecycle event
func (s *Subscriber) handleUserEvent(msg *nats.Msg) {
	var e Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("Failed to unmarshal user event")
		return
	}

	log.Info().
		Str("event_id", e.ID).
		Str("type", string(e.Type)).
		Int64("tenant_id", e.TenantID).
		Int64("user_id", e.UserID).
		Int64("actor_id", e.ActorID).
		Time("occurred_at", e.OccurredAt).
		Msg("Audit")
}

// handleCustomerChanged drops the cached copy of the changed customer
func (s *Subscriber) handleCustomerChanged(ctx context.Context, msg *nats.Msg) {
	var e Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("Failed to unmarshal customer event")
		return
	}
	if e.TenantID == 0 {
		log.Warn().Str("subject", msg.Subject).Msg("Customer event without tenant id")
		return
	}

	if err := s.invalidator.Invalidate(ctx, e.TenantID); err != nil {
		log.Error().Err(err).Int64("tenant_id", e.TenantID).Msg("Failed to invalidate cached tenant")
		return
	}
	log.Debug().Int64("tenant_id", e.TenantID).Msg("Cached tenant invalidated")
}

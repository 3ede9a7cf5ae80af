package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FeedEvent is a single change pushed to clinic dashboards.
type FeedEvent struct {
	Kind      string    `json:"kind"` // e.g. "appointment.created", "payment.confirmed"
	EntityID  uuid.UUID `json:"entity_id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscription is a live feed handle. Events arrive on C until Close is
// called; Close always releases the underlying pub/sub connection, so a
// subscriber that acquires on mount and defers Close cannot leak.
type Subscription struct {
	C      <-chan FeedEvent
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// Close unsubscribes and releases the connection. Safe to call once the
// consumer is done; C is closed shortly after.
func (s *Subscription) Close() error {
	s.cancel()
	return s.pubsub.Close()
}

// Feed publishes and subscribes to per-clinic change events over Redis
// pub/sub.
type Feed struct {
	client *redis.Client
	logger *zap.Logger
}

func NewFeed(client *redis.Client, logger *zap.Logger) *Feed {
	return &Feed{client: client, logger: logger}
}

func feedChannel(clinicID uuid.UUID) string {
	return fmt.Sprintf("clinicore:feed:%s", clinicID.String())
}

// Publish is best-effort; a failed publish only costs a dashboard refresh.
func (f *Feed) Publish(ctx context.Context, event FeedEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		f.logger.Warn("failed to marshal feed event", zap.Error(err))
		return
	}
	if err := f.client.Publish(ctx, feedChannel(event.ClinicID), data).Err(); err != nil {
		f.logger.Warn("failed to publish feed event",
			zap.String("clinic_id", event.ClinicID.String()),
			zap.Error(err),
		)
	}
}

// Subscribe opens a live feed for one clinic. The caller owns the returned
// Subscription and must Close it when the consumer goes away.
func (f *Feed) Subscribe(ctx context.Context, clinicID uuid.UUID) (*Subscription, error) {
	pubsub := f.client.Subscribe(ctx, feedChannel(clinicID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to clinic feed: %w", err)
	}

	feedCtx, cancel := context.WithCancel(context.Background())
	events := make(chan FeedEvent, 16)

	go func() {
		defer close(events)
		ch := pubsub.Channel()
		for {
			select {
			case <-feedCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					f.logger.Warn("dropping malformed feed event", zap.Error(err))
					continue
				}
				select {
				case events <- event:
				default:
					// Slow consumer; drop rather than block the reader.
				}
			}
		}
	}()

	return &Subscription{C: events, pubsub: pubsub, cancel: cancel}, nil
}

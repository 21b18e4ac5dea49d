// Package relay fans cart change notifications out across server instances through a
// Pub/Sub topic, so an SSE stream served by one instance hears about a write made on another.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Rahdeg/alt-commmerce/internal/cart"
)

const (
	attrKey    = "cartKey"
	attrOrigin = "origin"

	publishTimeout = 10 * time.Second
)

// Relay publishes local cart changes to a topic and delivers remote ones to the local broker.
type Relay struct {
	broker *cart.Broker
	topic  *pubsub.Topic
	sub    *pubsub.Subscription
	origin string
	logger *zap.Logger
}

// Option customises a Relay.
type Option func(*Relay)

// WithLogger sets the logger used for publish and receive failures.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOrigin overrides the generated instance id stamped on outgoing messages.
func WithOrigin(origin string) Option {
	return func(r *Relay) {
		if v := strings.TrimSpace(origin); v != "" {
			r.origin = v
		}
	}
}

// New wires a relay onto broker. sub must be attached to topic and private to this instance.
func New(broker *cart.Broker, topic *pubsub.Topic, sub *pubsub.Subscription, opts ...Option) (*Relay, error) {
	if broker == nil {
		return nil, errors.New("cart relay: broker is required")
	}
	if topic == nil {
		return nil, errors.New("cart relay: topic is required")
	}
	if sub == nil {
		return nil, errors.New("cart relay: subscription is required")
	}
	r := &Relay{
		broker: broker,
		topic:  topic,
		sub:    sub,
		origin: ulid.Make().String(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	broker.Forward(r.publish)
	return r, nil
}

// Origin returns the instance id this relay stamps on its messages.
func (r *Relay) Origin() string { return r.origin }

func (r *Relay) publish(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	result := r.topic.Publish(ctx, &pubsub.Message{
		Data: []byte(key),
		Attributes: map[string]string{
			attrKey:    key,
			attrOrigin: r.origin,
		},
	})
	go func() {
		defer cancel()
		if _, err := result.Get(ctx); err != nil {
			r.logger.Warn("cart.relay_publish_failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Run receives remote changes until ctx is cancelled. Messages from this instance are acked
// and ignored because local subscribers were already notified.
func (r *Relay) Run(ctx context.Context) error {
	err := r.sub.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
		defer msg.Ack()
		if msg.Attributes[attrOrigin] == r.origin {
			return
		}
		key := msg.Attributes[attrKey]
		if key == "" {
			key = string(msg.Data)
		}
		if !strings.HasPrefix(key, cart.KeyPrefix) {
			r.logger.Warn("cart.relay_unknown_key", zap.String("key", key))
			return
		}
		r.broker.Deliver(key)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("cart relay: receive: %w", err)
	}
	return nil
}

// Flush blocks until pending publishes have been sent.
func (r *Relay) Flush() { r.topic.Flush() }

// Stop flushes and stops the publisher goroutines of the topic.
func (r *Relay) Stop() { r.topic.Stop() }

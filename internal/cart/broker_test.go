package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBrokerDeliversInSubscriptionOrder(t *testing.T) {
	b := NewBroker(nil)
	var order []string
	b.Subscribe("k", func() { order = append(order, "first") })
	b.Subscribe("k", func() { order = append(order, "second") })
	b.Subscribe("other", func() { order = append(order, "other") })
	b.Subscribe("k", func() { order = append(order, "third") })

	b.Publish("k")
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBrokerCancel(t *testing.T) {
	b := NewBroker(nil)
	var calls int
	cancel := b.Subscribe("k", func() { calls++ })
	assert.Equal(t, 1, b.Subscribers("k"))

	cancel()
	cancel()
	b.Publish("k")
	assert.Zero(t, calls)
	assert.Zero(t, b.Subscribers("k"))
}

func TestBrokerRecoversPanickingSubscriber(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := NewBroker(zap.New(core))
	var after bool
	b.Subscribe("k", func() { panic("boom") })
	b.Subscribe("k", func() { after = true })

	assert.NotPanics(t, func() { b.Publish("k") })
	assert.True(t, after)
	assert.Equal(t, 1, logs.FilterMessage("cart.subscriber_panic").Len())
}

func TestBrokerForwardOnlyOnPublish(t *testing.T) {
	b := NewBroker(nil)
	var forwarded []string
	b.Forward(func(key string) { forwarded = append(forwarded, key) })
	var local int
	b.Subscribe("k", func() { local++ })

	b.Deliver("k")
	assert.Equal(t, 1, local)
	assert.Empty(t, forwarded)

	b.Publish("k")
	assert.Equal(t, 2, local)
	assert.Equal(t, []string{"k"}, forwarded)
}

func TestBrokerNilSubscriber(t *testing.T) {
	b := NewBroker(nil)
	cancel := b.Subscribe("k", nil)
	cancel()
	assert.Zero(t, b.Subscribers("k"))
}

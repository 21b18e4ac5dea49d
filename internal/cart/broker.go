package cart

import (
	"sync"

	"go.uber.org/zap"
)

// Broker is the change-notification channel for carts: an observer list per storage key.
// Notifications carry no payload; subscribers re-read the store.
type Broker struct {
	mu       sync.RWMutex
	nextID   uint64
	subs     map[string][]subscriber
	forwards []func(key string)
	logger   *zap.Logger
}

type subscriber struct {
	id uint64
	fn func()
}

// NewBroker constructs an empty broker. A nil logger discards subscriber panics silently.
func NewBroker(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{subs: make(map[string][]subscriber), logger: logger}
}

// Subscribe registers fn for changes to key. The returned cancel func is idempotent.
func (b *Broker) Subscribe(key string, fn func()) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[key] = append(b.subs[key], subscriber{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(key, id) })
	}
}

func (b *Broker) unsubscribe(key string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[key]
	for i, s := range list {
		if s.id != id {
			continue
		}
		next := make([]subscriber, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(b.subs, key)
		} else {
			b.subs[key] = next
		}
		return
	}
}

// Forward registers a hook invoked on every Publish, after local delivery. The Pub/Sub relay
// uses it to fan changes out to other instances.
func (b *Broker) Forward(fn func(key string)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.forwards = append(b.forwards, fn)
	b.mu.Unlock()
}

// Publish notifies local subscribers of key and then the forward hooks.
func (b *Broker) Publish(key string) {
	b.Deliver(key)
	b.mu.RLock()
	forwards := append([]func(string){}, b.forwards...)
	b.mu.RUnlock()
	for _, fn := range forwards {
		b.invoke(key, func() { fn(key) })
	}
}

// Deliver notifies local subscribers only, in subscription order.
func (b *Broker) Deliver(key string) {
	b.mu.RLock()
	snapshot := append([]subscriber(nil), b.subs[key]...)
	b.mu.RUnlock()
	for _, s := range snapshot {
		b.invoke(key, s.fn)
	}
}

// Subscribers reports the number of active subscriptions for key.
func (b *Broker) Subscribers(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[key])
}

func (b *Broker) invoke(key string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("cart.subscriber_panic",
				zap.String("key", key),
				zap.Any("panic", rec),
			)
		}
	}()
	fn()
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Rahdeg/alt-commmerce/internal/platform/requestctx"
	"github.com/Rahdeg/alt-commmerce/internal/storage"
)

// KeyPrefix namespaces visitor carts inside the shared storage.
const KeyPrefix = "cart:"

// ErrStorageUnavailable wraps backend failures surfaced by Save and the mutators.
var ErrStorageUnavailable = errors.New("cart: storage unavailable")

// Store is the cart persistence seen by views: load, save and change notification.
type Store interface {
	// Load never fails; missing or corrupt state yields an empty cart.
	Load(ctx context.Context) Cart
	// Save persists c and then notifies subscribers exactly once.
	Save(ctx context.Context, c Cart) error
	// Subscribe registers fn for change notifications.
	Subscribe(fn func()) (cancel func())
}

// transactional is implemented by stores that run the mutators' read-modify-write as one
// step. Stores outside this package fall back to plain Load/Save.
type transactional interface {
	update(ctx context.Context, op string, fn func(Cart) (Cart, bool)) (Cart, bool, error)
	notify()
}

// Dependencies wires a Manager.
type Dependencies struct {
	Storage storage.Storage
	Broker  *Broker
	Logger  *zap.Logger

	// Meter records mutation metrics; nil uses the global meter provider.
	Meter metric.Meter
}

// Manager hands out per-visitor stores over a shared storage backend and broker.
type Manager struct {
	storage storage.Storage
	broker  *Broker
	logger  *zap.Logger
	locks   *keyLocks
	metrics instruments
}

// NewManager validates deps and builds a Manager. A nil broker gets a private one.
func NewManager(deps Dependencies) (*Manager, error) {
	if deps.Storage == nil {
		return nil, errors.New("cart: storage is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	broker := deps.Broker
	if broker == nil {
		broker = NewBroker(logger)
	}
	return &Manager{
		storage: deps.Storage,
		broker:  broker,
		logger:  logger,
		locks:   newKeyLocks(),
		metrics: newInstruments(deps.Meter, logger),
	}, nil
}

// Broker exposes the manager's notification channel.
func (m *Manager) Broker() *Broker { return m.broker }

// Key returns the storage key for a visitor.
func Key(visitorID string) string {
	return KeyPrefix + strings.TrimSpace(visitorID)
}

// For returns the store bound to visitorID.
func (m *Manager) For(visitorID string) *KeyedStore {
	return &KeyedStore{m: m, key: Key(visitorID)}
}

// KeyedStore is the Store for one storage key.
type KeyedStore struct {
	m   *Manager
	key string
}

var _ Store = (*KeyedStore)(nil)

// Key returns the storage key this store reads and writes.
func (s *KeyedStore) Key() string { return s.key }

func (s *KeyedStore) Load(ctx context.Context) Cart {
	c, err := s.read(ctx)
	if err != nil {
		s.logger(ctx).Warn("cart.load_failed", zap.String("key", s.key), zap.Error(err))
		return Cart{}
	}
	return c
}

func (s *KeyedStore) Save(ctx context.Context, c Cart) error {
	if err := s.persist(ctx, c); err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *KeyedStore) Subscribe(fn func()) (cancel func()) {
	return s.m.broker.Subscribe(s.key, fn)
}

// read returns storage errors but absorbs corrupt data.
func (s *KeyedStore) read(ctx context.Context) (Cart, error) {
	data, err := s.m.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorageUnavailable, s.key, err)
	}
	return s.decode(ctx, data), nil
}

func (s *KeyedStore) decode(ctx context.Context, data []byte) Cart {
	if data == nil {
		return Cart{}
	}
	c, err := Decode(data)
	if err != nil {
		s.logger(ctx).Warn("cart.corrupt", zap.String("key", s.key), zap.Error(err))
		return Cart{}
	}
	return c
}

// update applies fn to the latest persisted cart. The in-process key lock serialises this
// manager's writers; a backend implementing storage.Updater also serialises writers in other
// processes sharing it.
func (s *KeyedStore) update(ctx context.Context, op string, fn func(Cart) (Cart, bool)) (next Cart, changed bool, err error) {
	s.m.locks.lock(s.key)
	defer s.m.locks.unlock(s.key)

	start := time.Now()
	defer func() { s.m.metrics.record(ctx, op, outcomeOf(changed, err), time.Since(start)) }()

	if u, ok := s.m.storage.(storage.Updater); ok {
		return s.updateAtomic(ctx, u, fn)
	}
	current, err := s.read(ctx)
	if err != nil {
		return nil, false, err
	}
	next, changed = fn(current)
	if !changed {
		return next, false, nil
	}
	if err := s.persist(ctx, next); err != nil {
		return current, false, err
	}
	return next, true, nil
}

func (s *KeyedStore) updateAtomic(ctx context.Context, u storage.Updater, fn func(Cart) (Cart, bool)) (Cart, bool, error) {
	var (
		next    Cart
		changed bool
	)
	err := u.Update(ctx, s.key, func(current []byte) ([]byte, error) {
		next, changed = fn(s.decode(ctx, current))
		if !changed {
			return nil, storage.ErrUnchanged
		}
		return Encode(next)
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: update %s: %v", ErrStorageUnavailable, s.key, err)
	}
	if changed {
		s.logger(ctx).Debug("cart.saved",
			zap.String("key", s.key),
			zap.Int("items", next.TotalItems()),
		)
	}
	return next, changed, nil
}

func (s *KeyedStore) persist(ctx context.Context, c Cart) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if err := s.m.storage.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrStorageUnavailable, s.key, err)
	}
	s.logger(ctx).Debug("cart.saved",
		zap.String("key", s.key),
		zap.Int("items", c.TotalItems()),
	)
	return nil
}

func (s *KeyedStore) notify() { s.m.broker.Publish(s.key) }

func (s *KeyedStore) logger(ctx context.Context) *zap.Logger {
	if l := requestctx.Logger(ctx); l != requestctx.NoopLogger() {
		return l
	}
	return s.m.logger
}

// keyLocks is a refcounted mutex per key; entries are dropped once unused.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*keyLock)}
}

func (k *keyLocks) lock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()
	l.mu.Lock()
}

func (k *keyLocks) unlock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		return
	}
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
	l.mu.Unlock()
}

package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Rahdeg/alt-commmerce/internal/storage"
)

func newTestManager(t *testing.T, backend storage.Storage) (*Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	m, err := NewManager(Dependencies{Storage: backend, Logger: zap.New(core)})
	require.NoError(t, err)
	return m, logs
}

func TestNewManagerRequiresStorage(t *testing.T) {
	_, err := NewManager(Dependencies{})
	require.Error(t, err)
}

func TestAddItemToStoredCartNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	require.NoError(t, backend.Set(ctx, "cart:v1", []byte(`[{"id":"a","name":"A","price":10,"quantity":1,"image":""}]`)))
	m, _ := newTestManager(t, backend)
	store := m.For("v1")

	var notified int32
	cancel := store.Subscribe(func() { atomic.AddInt32(&notified, 1) })
	defer cancel()

	require.NoError(t, AddItem(ctx, store, LineItem{ID: "a", Name: "A", Price: 10}, 2))

	raw, err := backend.Get(ctx, "cart:v1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","name":"A","price":10,"quantity":3,"image":""}]`, string(raw))
	assert.EqualValues(t, 1, atomic.LoadInt32(&notified))
}

func TestNoopMutationsDoNotWriteOrNotify(t *testing.T) {
	ctx := context.Background()
	backend := &countingStorage{Storage: storage.NewMemory()}
	m, _ := newTestManager(t, backend)
	store := m.For("v1")
	require.NoError(t, AddItem(ctx, store, sneakers, 1))
	backend.sets = 0

	var notified int
	store.Subscribe(func() { notified++ })

	require.NoError(t, AddItem(ctx, store, sneakers, 0))
	require.NoError(t, AddItem(ctx, store, sneakers, -2))
	require.NoError(t, RemoveItem(ctx, store, "missing"))
	require.NoError(t, SetQuantity(ctx, store, "missing", 4))
	require.NoError(t, SetQuantity(ctx, store, "x", 1))

	assert.Zero(t, backend.sets)
	assert.Zero(t, notified)
}

func TestAddItemRejectsInvalidItem(t *testing.T) {
	store := NewMemoryStore()
	err := AddItem(context.Background(), store, LineItem{Price: 3}, 1)
	require.ErrorIs(t, err, ErrInvalidItem)
	assert.Empty(t, store.Load(context.Background()))
}

func TestLoadCorruptStateReturnsEmptyAndLogs(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	require.NoError(t, backend.Set(ctx, "cart:v1", []byte("{{{")))
	m, logs := newTestManager(t, backend)
	store := m.For("v1")

	assert.NotPanics(t, func() {
		assert.Empty(t, store.Load(ctx))
	})
	require.Equal(t, 1, logs.FilterMessage("cart.corrupt").Len())

	// Mutators overwrite the corrupt value.
	require.NoError(t, AddItem(ctx, store, sneakers, 2))
	got := store.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Quantity)
}

func TestMissingKeyIsEmptyCart(t *testing.T) {
	store := NewMemoryStore()
	c := store.Load(context.Background())
	assert.NotNil(t, c)
	assert.Empty(t, c)
}

func TestMutatorsRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, AddItem(ctx, store, LineItem{ID: "a", Price: 10}, 1))
	require.NoError(t, AddItem(ctx, store, LineItem{ID: "b", Price: 5}, 2))
	require.NoError(t, AddItem(ctx, store, LineItem{ID: "c", Price: 1}, 1))
	require.NoError(t, SetQuantity(ctx, store, "b", 4))
	require.NoError(t, RemoveItem(ctx, store, "a"))
	require.NoError(t, RemoveItem(ctx, store, "a"))

	c := store.Load(ctx)
	assert.Equal(t, []string{"b", "c"}, ids(c))
	assert.Equal(t, 5, c.TotalItems())
	assert.Equal(t, 21.0, c.TotalPrice())

	require.NoError(t, SetQuantity(ctx, store, "c", 0))
	assert.Equal(t, []string{"b"}, ids(store.Load(ctx)))
}

func TestStoresAreIsolatedPerVisitor(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, storage.NewMemory())
	alice, bob := m.For("alice"), m.For("bob")

	var bobNotified bool
	bob.Subscribe(func() { bobNotified = true })

	require.NoError(t, AddItem(ctx, alice, sneakers, 1))
	assert.Len(t, alice.Load(ctx), 1)
	assert.Empty(t, bob.Load(ctx))
	assert.False(t, bobNotified)
	assert.Equal(t, "cart:alice", alice.Key())
}

func TestConcurrentAddsAreSerialised(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, storage.NewMemory())

	var notified int32
	m.For("v1").Subscribe(func() { atomic.AddInt32(&notified, 1) })

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each request gets its own store handle, as handlers do.
			assert.NoError(t, AddItem(ctx, m.For("v1"), sneakers, 1))
		}()
	}
	wg.Wait()

	c := m.For("v1").Load(ctx)
	require.Len(t, c, 1)
	assert.Equal(t, writers, c[0].Quantity)
	assert.EqualValues(t, writers, atomic.LoadInt32(&notified))
}

func TestManagersSharingBackendDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	first, _ := newTestManager(t, backend)
	second, _ := newTestManager(t, backend)

	const perManager = 16
	var wg sync.WaitGroup
	for i := 0; i < perManager; i++ {
		for _, m := range []*Manager{first, second} {
			wg.Add(1)
			go func(m *Manager) {
				defer wg.Done()
				assert.NoError(t, AddItem(ctx, m.For("v1"), sneakers, 1))
			}(m)
		}
	}
	wg.Wait()

	assert.Equal(t, 2*perManager, first.For("v1").Load(ctx).TotalItems())
}

func TestUpdateRereadsAfterConcurrentCommit(t *testing.T) {
	ctx := context.Background()
	shared := storage.NewMemory()
	other, _ := newTestManager(t, shared)
	backend := &conflictingStorage{Memory: shared}
	backend.interfere = func() {
		require.NoError(t, AddItem(ctx, other.For("v1"), sneakers, 5))
	}
	m, _ := newTestManager(t, backend)
	store := m.For("v1")

	var notified int
	store.Subscribe(func() { notified++ })

	require.NoError(t, AddItem(ctx, store, sneakers, 1))

	assert.Equal(t, 2, backend.attempts)
	assert.Equal(t, 6, store.Load(ctx).TotalItems())
	assert.Equal(t, 1, notified)
}

func TestSubscriberMayReadStoreDuringNotification(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	var seen int
	store.Subscribe(func() { seen = store.Load(ctx).TotalItems() })

	require.NoError(t, AddItem(ctx, store, sneakers, 3))
	assert.Equal(t, 3, seen)
}

func TestSaveFailureIsReturnedWithoutNotification(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, &failingStorage{Storage: storage.NewMemory(), setErr: errors.New("disk full")})
	store := m.For("v1")
	var notified bool
	store.Subscribe(func() { notified = true })

	err := AddItem(ctx, store, sneakers, 1)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.False(t, notified)
}

func TestReadFailureAbortsMutation(t *testing.T) {
	ctx := context.Background()
	backend := &failingStorage{Storage: storage.NewMemory(), getErr: errors.New("timeout")}
	m, logs := newTestManager(t, backend)
	store := m.For("v1")

	err := AddItem(ctx, store, sneakers, 1)
	require.ErrorIs(t, err, ErrStorageUnavailable)

	assert.Empty(t, store.Load(ctx))
	assert.Equal(t, 1, logs.FilterMessage("cart.load_failed").Len())
}

func TestUpdateFallsBackForForeignStores(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	wrapped := struct{ Store }{inner}

	require.NoError(t, AddItem(ctx, wrapped, sneakers, 2))
	require.NoError(t, AddItem(ctx, wrapped, sneakers, 1))
	assert.Equal(t, 3, inner.Load(ctx).TotalItems())
}

// conflictingStorage lets another writer commit between the first attempt's read and its
// write, then retries on the fresh value the way optimistic backends do.
type conflictingStorage struct {
	*storage.Memory
	interfere func()
	attempts  int
}

func (c *conflictingStorage) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	c.attempts++
	if c.attempts == 1 {
		current, _ := c.Memory.Get(ctx, key)
		if _, err := fn(current); err != nil && !errors.Is(err, storage.ErrUnchanged) {
			return err
		}
		c.interfere()
	}
	return c.Memory.Update(ctx, key, fn)
}

type countingStorage struct {
	storage.Storage
	sets int
}

func (c *countingStorage) Set(ctx context.Context, key string, value []byte) error {
	c.sets++
	return c.Storage.Set(ctx, key, value)
}

type failingStorage struct {
	storage.Storage
	getErr error
	setErr error
}

func (f *failingStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Storage.Get(ctx, key)
}

func (f *failingStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Storage.Set(ctx, key, value)
}

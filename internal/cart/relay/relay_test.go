package relay

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Rahdeg/alt-commmerce/internal/cart"
)

func newPubSub(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestRelayPublishesLocalChanges(t *testing.T) {
	ctx := context.Background()
	client, srv := newPubSub(t)
	topic, err := client.CreateTopic(ctx, "cart-events")
	require.NoError(t, err)
	sub, err := client.CreateSubscription(ctx, "instance-a", pubsub.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	broker := cart.NewBroker(nil)
	r, err := New(broker, topic, sub, WithOrigin("instance-a"))
	require.NoError(t, err)

	broker.Publish("cart:v1")
	r.Flush()

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "cart:v1", string(msgs[0].Data))
	assert.Equal(t, "cart:v1", msgs[0].Attributes[attrKey])
	assert.Equal(t, "instance-a", msgs[0].Attributes[attrOrigin])
}

func TestRelayDeliversRemoteChangesAndSkipsOwn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client, _ := newPubSub(t)
	topic, err := client.CreateTopic(ctx, "cart-events")
	require.NoError(t, err)
	subA, err := client.CreateSubscription(ctx, "instance-a", pubsub.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)
	subB, err := client.CreateSubscription(ctx, "instance-b", pubsub.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	brokerA, brokerB := cart.NewBroker(nil), cart.NewBroker(nil)
	relayA, err := New(brokerA, topic, subA)
	require.NoError(t, err)
	relayB, err := New(brokerB, topic, subB)
	require.NoError(t, err)
	require.NotEqual(t, relayA.Origin(), relayB.Origin())

	localA := make(chan struct{}, 4)
	remoteB := make(chan struct{}, 4)
	brokerA.Subscribe("cart:v1", func() { localA <- struct{}{} })
	brokerB.Subscribe("cart:v1", func() { remoteB <- struct{}{} })

	go func() { _ = relayA.Run(ctx) }()
	go func() { _ = relayB.Run(ctx) }()

	brokerA.Publish("cart:v1")
	relayA.Flush()

	select {
	case <-remoteB:
	case <-time.After(5 * time.Second):
		t.Fatal("instance b was not notified")
	}

	// Instance a was notified locally once and must not see its own echo.
	<-localA
	select {
	case <-localA:
		t.Fatal("instance a received its own change twice")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(nil, nil, nil)
	require.Error(t, err)
	_, err = New(cart.NewBroker(nil), nil, nil)
	require.Error(t, err)
}

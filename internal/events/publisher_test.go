package events

import (
	"context"
	"ctchen222/tictac/internal/game"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, opts.Addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(TypeFieldChanged, FieldChangedPayload{RoundID: "r1", X: 1, Y: 2, Symbol: game.O})
	require.NoError(t, err)

	assert.Equal(t, TypeFieldChanged, event.Type)
	assert.JSONEq(t, `{"round_id":"r1","x":1,"y":2,"symbol":"O"}`, string(event.Payload))

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"field_changed","payload":{"round_id":"r1","x":1,"y":2,"symbol":"O"}}`, string(data))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeRoundStarted}))
	assert.NoError(t, p.Close())
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}

func TestRedisPublisher_Publish(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	// Given a subscriber on the default channel
	pubsub := client.Subscribe(ctx, EventsChannel)
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	// When a round finished event is published
	publisher := NewRedisPublisher(client, "")
	event, err := NewEvent(TypeRoundFinished, RoundFinishedPayload{RoundID: "r1", Reason: "victory", Winner: game.X, Moves: 5})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, event))

	// Then the subscriber receives it
	select {
	case msg := <-pubsub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, TypeRoundFinished, got.Type)
		var payload RoundFinishedPayload
		require.NoError(t, json.Unmarshal(got.Payload, &payload))
		assert.Equal(t, game.X, payload.Winner)
		assert.Equal(t, 5, payload.Moves)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestListen(t *testing.T) {
	client := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []Event
	done := make(chan error, 1)
	go func() {
		done <- Listen(ctx, client, "channel:test", func(_ context.Context, e Event) {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, e)
		})
	}()

	publisher := NewRedisPublisher(client, "channel:test")
	require.Eventually(t, func() bool {
		// Not-an-event messages are skipped.
		_ = client.Publish(ctx, "channel:test", "garbage").Err()
		_ = publisher.Publish(ctx, Event{Type: TypeRoundClosed, Payload: json.RawMessage(`{"round_id":"r1"}`)})
		mu.Lock()
		defer mu.Unlock()
		return len(received) > 0
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	assert.Equal(t, TypeRoundClosed, received[0].Type)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

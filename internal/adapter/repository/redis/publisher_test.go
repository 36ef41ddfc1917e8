package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/domain"
)

func TestPublisherPublish(t *testing.T) {
	client, _ := newTestRedisClient(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "gofinance.events")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewPublisher(client, "gofinance.events")
	require.NoError(t, pub.Publish(ctx, &domain.OutboxEvent{
		ID:            "evt-1",
		OwnerID:       "user-1",
		AggregateID:   "tx-1",
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransactionCreated,
		Payload:       map[string]any{"amount": "12.50"},
		CreatedAt:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}))

	select {
	case msg := <-sub.Channel():
		var got message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "evt-1", got.ID)
		assert.Equal(t, domain.EventTypeTransactionCreated, got.EventType)
		assert.Equal(t, "12.50", got.Payload["amount"])
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

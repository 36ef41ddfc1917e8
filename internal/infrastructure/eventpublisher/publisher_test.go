package eventpublisher

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gofinance/internal/adapter/repository/memory"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
)

func seedOutbox(t *testing.T, repo *memory.OutboxRepository, ids ...string) {
	t.Helper()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		require.NoError(t, repo.Create(context.Background(), nil, &domain.OutboxEvent{
			ID:        id,
			EventType: domain.EventTypeTransactionCreated,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func newTestPublisher(repo *memory.OutboxRepository, pub Publisher) (*EventPublisher, *metrics.Metrics) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	ep := NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Metrics:    m,
		Logger:     zerolog.Nop(),
	})
	return ep, m
}

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	repo := memory.NewOutboxRepository(memory.NewStore())
	seedOutbox(t, repo, "evt-1", "evt-2")
	pub := &stubPublisher{}
	ep, m := newTestPublisher(repo, pub)

	require.NoError(t, ep.processEvents(context.Background()))

	require.Len(t, pub.published, 2)
	assert.Equal(t, "evt-1", pub.published[0].ID)
	remaining, err := repo.GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(domain.EventTypeTransactionCreated)))
}

func TestProcessEventsContinuesOnPublishError(t *testing.T) {
	repo := memory.NewOutboxRepository(memory.NewStore())
	seedOutbox(t, repo, "evt-1", "evt-2")
	pub := &stubPublisher{errorsByID: map[string]error{"evt-1": errors.New("fail")}}
	ep, m := newTestPublisher(repo, pub)

	require.NoError(t, ep.processEvents(context.Background()))

	require.Len(t, pub.published, 1)
	assert.Equal(t, "evt-2", pub.published[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishErrors))

	remaining, err := repo.GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "evt-1", remaining[0].ID)
}

func TestTickPurgesOldPublishedEvents(t *testing.T) {
	repo := memory.NewOutboxRepository(memory.NewStore())
	seedOutbox(t, repo, "evt-1")
	ep, _ := newTestPublisher(repo, &stubPublisher{})
	ep.retention = time.Hour

	published := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ep.now = func() time.Time { return published }
	ep.tick(context.Background())
	assert.Equal(t, 1, repo.Len())

	ep.now = func() time.Time { return published.Add(2 * time.Hour) }
	ep.tick(context.Background())
	assert.Equal(t, 0, repo.Len())
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	repo := memory.NewOutboxRepository(memory.NewStore())
	ep, _ := newTestPublisher(repo, &stubPublisher{})
	ep.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(zerolog.New(&buf))

	err := pub.Publish(context.Background(), &domain.OutboxEvent{
		ID:        "evt-1",
		EventType: domain.EventTypeTransactionDeleted,
		Payload:   map[string]any{"transaction_id": "t1"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"payload":{"transaction_id":"t1"}`)
	assert.Contains(t, buf.String(), `"event_type":"transaction.deleted"`)
}

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}

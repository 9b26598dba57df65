package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNewChangeAndRowID(t *testing.T) {
	ev, err := NewChange(Insert, "tickets", map[string]string{"id": "t1", "title": "x"}, nil)
	require.NoError(t, err)
	assert.Nil(t, ev.Old)
	id, err := ev.RowID()
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	del, err := NewChange(Delete, "tickets", nil, map[string]string{"id": "t2"})
	require.NoError(t, err)
	id, err = del.RowID()
	require.NoError(t, err)
	assert.Equal(t, "t2", id)

	_, err = ChangeEvent{EventType: Update, New: []byte(`{"title":"no id"}`)}.RowID()
	assert.Error(t, err)
}

func TestBridgeDeliversPublishedEvents(t *testing.T) {
	rdb := newRedis(t)
	ctx := context.Background()

	received := make(chan ChangeEvent, 4)
	sub, err := NewBridge(rdb).WatchTickets(ctx, func(ev ChangeEvent) { received <- ev })
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, TicketsTopic, sub.Topic())

	ev, err := NewChange(Update, "tickets", map[string]string{"id": "t1", "status": "done"}, nil)
	require.NoError(t, err)
	require.NoError(t, NewPublisher(rdb).Publish(ctx, TicketsTopic, ev))

	select {
	case got := <-received:
		assert.Equal(t, Update, got.EventType)
		assert.JSONEq(t, `{"id":"t1","status":"done"}`, string(got.New))
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestCommentTopicsAreScopedPerTicket(t *testing.T) {
	rdb := newRedis(t)
	ctx := context.Background()

	received := make(chan ChangeEvent, 4)
	sub, err := NewBridge(rdb).WatchComments(ctx, "t1", func(ev ChangeEvent) { received <- ev })
	require.NoError(t, err)
	defer sub.Close()

	pub := NewPublisher(rdb)
	other, _ := NewChange(Insert, "comments", map[string]string{"id": "c-other"}, nil)
	mine, _ := NewChange(Insert, "comments", map[string]string{"id": "c-mine"}, nil)
	require.NoError(t, pub.Publish(ctx, CommentsTopic("t2"), other))
	require.NoError(t, pub.Publish(ctx, CommentsTopic("t1"), mine))

	select {
	case got := <-received:
		id, err := got.RowID()
		require.NoError(t, err)
		assert.Equal(t, "c-mine", id)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSubscriptionCloseReleasesChannel(t *testing.T) {
	rdb := newRedis(t)
	ctx := context.Background()

	sub, err := NewBridge(rdb).WatchTickets(ctx, func(ChangeEvent) {})
	require.NoError(t, err)

	sub.Close()
	sub.Close() // idempotent

	select {
	case <-sub.Done():
	default:
		t.Fatal("subscription not released")
	}
	assert.Eventually(t, func() bool {
		counts, err := rdb.PubSubNumSub(ctx, TicketsTopic).Result()
		return err == nil && counts[TicketsTopic] == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	rdb := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := NewBridge(rdb).WatchTickets(ctx, func(ChangeEvent) {})
	require.NoError(t, err)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription outlived its context")
	}
}

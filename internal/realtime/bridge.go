package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Handler receives one change event. It runs on the subscription's
// goroutine and must not call Close on its own subscription.
type Handler func(ChangeEvent)

// Bridge subscribes to change topics and hands each event to a Handler
type Bridge struct {
	rdb *redis.Client
}

// NewBridge returns a bridge reading from rdb
func NewBridge(rdb *redis.Client) *Bridge {
	return &Bridge{rdb: rdb}
}

// WatchTickets subscribes to every ticket change
func (b *Bridge) WatchTickets(ctx context.Context, h Handler) (*Subscription, error) {
	return b.Subscribe(ctx, TicketsTopic, h)
}

// WatchComments subscribes to comment changes of one ticket
func (b *Bridge) WatchComments(ctx context.Context, ticketID string, h Handler) (*Subscription, error) {
	return b.Subscribe(ctx, CommentsTopic(ticketID), h)
}

// Subscribe starts delivering events published on topic to h. The
// returned subscription is released by Close or when ctx ends,
// whichever comes first.
func (b *Bridge) Subscribe(ctx context.Context, topic string, h Handler) (*Subscription, error) {
	ps := b.rdb.Subscribe(ctx, topic)
	// Wait for the subscription to be confirmed so no event published
	// after Subscribe returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:  topic,
		pubsub: ps,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.run(ctx, h)
	return sub, nil
}

// Subscription is a live topic subscription
type Subscription struct {
	topic  string
	pubsub *redis.PubSub
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// Topic returns the subscribed topic
func (s *Subscription) Topic() string {
	return s.topic
}

// Done is closed once the subscription has been released
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close releases the channel and waits for the delivery goroutine to
// exit. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

func (s *Subscription) run(ctx context.Context, h Handler) {
	defer close(s.done)
	defer s.pubsub.Close()

	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logrus.WithFields(logrus.Fields{
					"topic": s.topic,
					"error": err.Error(),
				}).Warn("Dropping malformed change event")
				continue
			}
			// A cancelled subscription must not deliver anything more
			if ctx.Err() != nil {
				return
			}
			h(ev)
		}
	}
}

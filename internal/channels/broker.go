package channels

import (
	"sync"

	"go.uber.org/zap"

	"github.com/extago/extalife/internal/logging"
	"github.com/extago/extalife/internal/protocol"
)

// Kind categorizes broker events.
type Kind string

const (
	// KindUpdate is a full record refresh from a fetch cycle.
	KindUpdate Kind = "update"

	// KindNotification is a gateway-pushed state change.
	KindNotification Kind = "notification"
)

// Topic addresses one stream of events: a kind plus the channel record id
// it concerns. A typed key avoids the collisions that concatenated
// signal-name strings invite.
type Topic struct {
	Kind Kind
	ID   string
}

// Event is one published update.
type Event struct {
	Topic Topic
	Data  protocol.Data
}

const subscriptionBuffer = 16

// Subscription is one subscriber's event stream. Close it when done or the
// broker keeps delivering.
type Subscription struct {
	broker *Broker
	topics map[Topic]struct{} // nil means all topics
	events chan Event
	once   sync.Once
}

// Events returns the subscriber's stream. The channel is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close detaches the subscription and closes its event channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.drop(s)
		close(s.events)
	})
}

func (s *Subscription) wants(topic Topic) bool {
	if s.topics == nil {
		return true
	}
	if _, ok := s.topics[topic]; ok {
		return true
	}
	// kind-wide subscription: id left empty matches every record
	_, ok := s.topics[Topic{Kind: topic.Kind}]
	return ok
}

// Broker fans channel events out to subscribers. Publishing never blocks;
// a subscriber that falls behind loses events rather than stalling the
// session's read loop.
type Broker struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers interest in the given topics. A topic with an empty
// ID matches every record of its kind; no topics at all matches everything.
func (b *Broker) Subscribe(topics ...Topic) *Subscription {
	sub := &Subscription{
		broker: b,
		events: make(chan Event, subscriptionBuffer),
	}
	if len(topics) > 0 {
		sub.topics = make(map[Topic]struct{}, len(topics))
		for _, topic := range topics {
			sub.topics[topic] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers an event to every matching subscriber.
func (b *Broker) Publish(topic Topic, data protocol.Data) {
	event := Event{Topic: topic, Data: data}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		if !sub.wants(topic) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			logging.Debug("dropping event for slow subscriber",
				zap.String("kind", string(topic.Kind)),
				zap.String("id", topic.ID))
		}
	}
}

func (b *Broker) drop(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
	"github.com/krishisakhi/sakhi-agent/internal/observability"
)

type logKey struct {
	user domain.UserID
	plot domain.PlotID
}

// MessageStore is an in-memory domain.MessageStore with push delivery to
// subscribers. Suitable for development and tests only.
type MessageStore struct {
	mu       sync.Mutex
	messages map[logKey][]*domain.Message
	subs     map[logKey][]*subscription
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[logKey][]*domain.Message),
		subs:     make(map[logKey][]*subscription),
	}
}

func (s *MessageStore) AppendMessage(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = domain.MessageID(uuid.NewString())
	}

	key := logKey{user: msg.UserID, plot: msg.PlotID}
	s.messages[key] = append(s.messages[key], msg)

	for _, sub := range s.subs[key] {
		sub.deliver(ctx, msg)
	}
	return msg, nil
}

func (s *MessageStore) ListMessages(ctx context.Context, userID domain.UserID, plotID domain.PlotID) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[logKey{user: userID, plot: plotID}]
	out := make([]*domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// SubscribeMessages replays the existing log in insertion order, then
// pushes live appends until Close.
func (s *MessageStore) SubscribeMessages(ctx context.Context, userID domain.UserID, plotID domain.PlotID) (domain.MessageSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := logKey{user: userID, plot: plotID}
	existing := s.messages[key]

	sub := &subscription{
		events: make(chan *domain.Message, 64+len(existing)),
	}
	sub.unregister = func() { s.remove(key, sub) }

	for _, msg := range existing {
		sub.events <- msg
	}

	s.subs[key] = append(s.subs[key], sub)
	return sub, nil
}

func (s *MessageStore) remove(key logKey, target *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subs[key]
	for i, sub := range subs {
		if sub == target {
			s.subs[key] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

type subscription struct {
	events     chan *domain.Message
	unregister func()
	closeOnce  sync.Once
}

func (s *subscription) Events() <-chan *domain.Message {
	return s.events
}

func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		s.unregister()
		close(s.events)
	})
}

// deliver is best-effort: a subscriber that stopped draining loses
// events rather than blocking every writer. A drop means that live view
// is permanently missing the message, so it is logged. Called with the
// store lock held.
func (s *subscription) deliver(ctx context.Context, msg *domain.Message) {
	select {
	case s.events <- msg:
	default:
		observability.LoggerFromContext(ctx).Warn("subscriber buffer full, dropping message",
			"message_id", msg.ID, "plot_id", msg.PlotID)
	}
}

package chatlog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
	"github.com/krishisakhi/sakhi-agent/internal/observability"
)

// welcomeMessageID marks the synthesized greeting shown on an empty log.
// It is never persisted.
const welcomeMessageID = domain.MessageID("welcome")

// Synchronizer maintains the per-(user, plot) ordered conversation log:
// appends with generated IDs, and at most one live push subscription per
// session. Switching the active plot replaces the previous stream.
type Synchronizer struct {
	store domain.MessageStore
	now   func() time.Time

	mu     sync.Mutex
	active *LiveLog
}

func New(store domain.MessageStore) *Synchronizer {
	return &Synchronizer{
		store: store,
		now:   time.Now,
	}
}

// Append persists msg, assigning an ID and timestamp when unset, and
// returns the persisted record.
func (s *Synchronizer) Append(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	if msg.ID == "" {
		msg.ID = domain.MessageID(uuid.NewString())
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	persisted, err := s.store.AppendMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return persisted, nil
}

// History returns the plot's log ordered by ascending timestamp, ties
// broken by store insertion order.
func (s *Synchronizer) History(ctx context.Context, userID domain.UserID, plotID domain.PlotID) ([]*domain.Message, error) {
	msgs, err := s.store.ListMessages(ctx, userID, plotID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

// Switch tears down the previous live stream, if any, and opens one for
// the given plot. An empty log yields a single synthesized welcome
// message naming the plot.
func (s *Synchronizer) Switch(ctx context.Context, userID domain.UserID, plotID domain.PlotID, plotName string) (*LiveLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Close()
		s.active = nil
	}

	sub, err := s.store.SubscribeMessages(ctx, userID, plotID)
	if err != nil {
		return nil, fmt.Errorf("subscribe messages: %w", err)
	}

	live := newLiveLog(sub, plotName)
	s.active = live

	observability.LoggerFromContext(ctx).Info("chat log subscription opened",
		"user_id", userID, "plot_id", plotID)
	return live, nil
}

// Close tears down the active subscription, if any.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.Close()
		s.active = nil
	}
}

// LiveLog is one live view over a plot's conversation. It consumes
// append events from the store and publishes whole ordered snapshots,
// coalescing to the latest when the consumer lags.
type LiveLog struct {
	updates chan []*domain.Message
	done    chan struct{}

	closeOnce sync.Once
	sub       domain.MessageSubscription

	// owned by the pump goroutine
	ordered  []*domain.Message
	plotName string
}

func newLiveLog(sub domain.MessageSubscription, plotName string) *LiveLog {
	l := &LiveLog{
		updates:  make(chan []*domain.Message, 1),
		done:     make(chan struct{}),
		sub:      sub,
		plotName: plotName,
	}
	go l.pump()
	return l
}

// Updates yields ordered snapshots of the log. The channel closes when
// the live view ends.
func (l *LiveLog) Updates() <-chan []*domain.Message {
	return l.updates
}

func (l *LiveLog) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
		l.sub.Close()
	})
}

func (l *LiveLog) pump() {
	defer close(l.updates)

	// Empty log: greet immediately. The welcome message is replaced by
	// the real log as soon as the first replayed or appended message
	// arrives.
	l.publish()

	for {
		select {
		case <-l.done:
			return
		case msg, ok := <-l.sub.Events():
			if !ok {
				return
			}
			l.insert(msg)
			l.publish()
		}
	}
}

// insert places msg by non-decreasing timestamp; arrival order breaks
// ties, so store insertion order is preserved for equal timestamps.
func (l *LiveLog) insert(msg *domain.Message) {
	i := sort.Search(len(l.ordered), func(i int) bool {
		return l.ordered[i].CreatedAt.After(msg.CreatedAt)
	})
	l.ordered = append(l.ordered, nil)
	copy(l.ordered[i+1:], l.ordered[i:])
	l.ordered[i] = msg
}

func (l *LiveLog) publish() {
	snap := l.snapshot()

	// latest-wins: drop a stale pending snapshot rather than block the pump
	select {
	case l.updates <- snap:
	default:
		select {
		case <-l.updates:
		default:
		}
		select {
		case l.updates <- snap:
		case <-l.done:
		}
	}
}

func (l *LiveLog) snapshot() []*domain.Message {
	if len(l.ordered) == 0 {
		return []*domain.Message{{
			ID:     welcomeMessageID,
			Author: domain.RoleAdvisor,
			Text:   fmt.Sprintf("This is the chat for '%s'. How can I help?", l.plotName),
		}}
	}
	snap := make([]*domain.Message, len(l.ordered))
	copy(snap, l.ordered)
	return snap
}

package chatlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisakhi/sakhi-agent/internal/adapters/storage/memory"
	"github.com/krishisakhi/sakhi-agent/internal/app/chatlog"
	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

func appendAt(t *testing.T, log *chatlog.Synchronizer, text string, at time.Time) *domain.Message {
	t.Helper()
	msg, err := log.Append(context.Background(), &domain.Message{
		UserID:    "u1",
		PlotID:    "p1",
		Author:    domain.RoleFarmer,
		Text:      text,
		CreatedAt: at,
	})
	require.NoError(t, err)
	return msg
}

// waitForSnapshot drains Updates until a snapshot with the wanted length
// arrives. Snapshots coalesce, so intermediate states may be skipped.
func waitForSnapshot(t *testing.T, live *chatlog.LiveLog, wantLen int) []*domain.Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-live.Updates():
			require.True(t, ok, "live log closed before snapshot arrived")
			if len(snap) == wantLen {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot of %d messages", wantLen)
		}
	}
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	log := chatlog.New(memory.NewMessageStore())

	msg, err := log.Append(context.Background(), &domain.Message{
		UserID: "u1", PlotID: "p1", Author: domain.RoleFarmer, Text: "hello",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestHistoryOrdersByTimestamp(t *testing.T) {
	log := chatlog.New(memory.NewMessageStore())
	base := time.Date(2026, 8, 4, 10, 0, 0, 0, time.UTC)

	appendAt(t, log, "second", base.Add(2*time.Minute))
	appendAt(t, log, "first", base.Add(1*time.Minute))
	appendAt(t, log, "third", base.Add(3*time.Minute))

	history, err := log.History(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "first", history[0].Text)
	assert.Equal(t, "second", history[1].Text)
	assert.Equal(t, "third", history[2].Text)
}

func TestLiveLogWelcomeOnEmptyPlot(t *testing.T) {
	log := chatlog.New(memory.NewMessageStore())
	defer log.Close()

	live, err := log.Switch(context.Background(), "u1", "p1", "North Field")
	require.NoError(t, err)

	snap := waitForSnapshot(t, live, 1)
	assert.Equal(t, domain.MessageID("welcome"), snap[0].ID)
	assert.Equal(t, domain.RoleAdvisor, snap[0].Author)
	assert.Equal(t, "This is the chat for 'North Field'. How can I help?", snap[0].Text)

	// the welcome message never reaches the store
	history, err := log.History(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLiveLogOrdersOutOfOrderArrivals(t *testing.T) {
	log := chatlog.New(memory.NewMessageStore())
	defer log.Close()
	base := time.Date(2026, 8, 4, 10, 0, 0, 0, time.UTC)

	live, err := log.Switch(context.Background(), "u1", "p1", "North Field")
	require.NoError(t, err)

	appendAt(t, log, "t2", base.Add(2*time.Minute))
	appendAt(t, log, "t1", base.Add(1*time.Minute))
	appendAt(t, log, "t3", base.Add(3*time.Minute))

	snap := waitForSnapshot(t, live, 3)
	assert.Equal(t, "t1", snap[0].Text)
	assert.Equal(t, "t2", snap[1].Text)
	assert.Equal(t, "t3", snap[2].Text)
}

func TestLiveLogReplaysExistingLog(t *testing.T) {
	log := chatlog.New(memory.NewMessageStore())
	defer log.Close()
	base := time.Date(2026, 8, 4, 10, 0, 0, 0, time.UTC)

	appendAt(t, log, "earlier", base)
	appendAt(t, log, "later", base.Add(time.Minute))

	live, err := log.Switch(context.Background(), "u1", "p1", "North Field")
	require.NoError(t, err)

	snap := waitForSnapshot(t, live, 2)
	assert.Equal(t, "earlier", snap[0].Text)
	assert.Equal(t, "later", snap[1].Text)
}

func TestSwitchClosesPreviousLiveLog(t *testing.T) {
	log := chatlog.New(memory.NewMessageStore())
	defer log.Close()

	first, err := log.Switch(context.Background(), "u1", "p1", "North Field")
	require.NoError(t, err)
	waitForSnapshot(t, first, 1)

	second, err := log.Switch(context.Background(), "u1", "p2", "South Field")
	require.NoError(t, err)

	// the first stream ends; its channel drains and closes
	deadline := time.After(2 * time.Second)
drain:
	for {
		select {
		case _, ok := <-first.Updates():
			if !ok {
				break drain
			}
		case <-deadline:
			t.Fatal("previous live log was not closed on switch")
		}
	}

	snap := waitForSnapshot(t, second, 1)
	assert.Equal(t, "This is the chat for 'South Field'. How can I help?", snap[0].Text)
}

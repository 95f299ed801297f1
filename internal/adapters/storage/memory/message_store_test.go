package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

func appendN(t *testing.T, store *MessageStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.AppendMessage(context.Background(), &domain.Message{
			UserID: "u1",
			PlotID: "p1",
			Author: domain.RoleFarmer,
			Text:   fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}
}

func drain(sub domain.MessageSubscription) []*domain.Message {
	var out []*domain.Message
	for {
		select {
		case msg := <-sub.Events():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestSubscribeReplaysExistingLog(t *testing.T) {
	store := NewMessageStore()
	appendN(t, store, 3)

	sub, err := store.SubscribeMessages(context.Background(), "u1", "p1")
	require.NoError(t, err)
	defer sub.Close()

	got := drain(sub)
	require.Len(t, got, 3)
	assert.Equal(t, "message 0", got[0].Text)
	assert.Equal(t, "message 2", got[2].Text)
}

func TestAppendNeverBlocksOnSlowSubscriber(t *testing.T) {
	store := NewMessageStore()

	sub, err := store.SubscribeMessages(context.Background(), "u1", "p1")
	require.NoError(t, err)
	defer sub.Close()

	// well past the subscriber's buffer; every append must still return
	appendN(t, store, 100)

	msgs, err := store.ListMessages(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Len(t, msgs, 100, "the log itself never loses an append")

	delivered := drain(sub)
	assert.NotEmpty(t, delivered)
	assert.LessOrEqual(t, len(delivered), 100)
}

func TestCloseUnregistersSubscriber(t *testing.T) {
	store := NewMessageStore()

	sub, err := store.SubscribeMessages(context.Background(), "u1", "p1")
	require.NoError(t, err)
	sub.Close()
	sub.Close() // idempotent

	appendN(t, store, 1)

	msgs, err := store.ListMessages(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

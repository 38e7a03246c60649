package realtime

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInbox_UnreadSurvivesLimit(t *testing.T) {
	inbox := NewInbox(3)
	at := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		before := inbox.UnreadCount()
		inbox.Prepend(fmt.Sprintf("update %d", i), at)
		assert.Equal(t, before+1, inbox.UnreadCount())
	}

	items, unread := inbox.Items()
	assert.Len(t, items, 5)
	assert.Equal(t, 5, unread)
	assert.Equal(t, "update 4", items[0].Message)
}

func TestInbox_EvictsOldestReadFirst(t *testing.T) {
	inbox := NewInbox(3)
	at := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	oldest := inbox.Prepend("a", at)
	inbox.Prepend("b", at)
	inbox.Prepend("c", at)
	require.True(t, inbox.MarkAsRead(oldest.ID))

	inbox.Prepend("d", at)

	items, unread := inbox.Items()
	require.Len(t, items, 3)
	assert.Equal(t, 3, unread)
	assert.Equal(t, []string{"d", "c", "b"}, []string{items[0].Message, items[1].Message, items[2].Message})
}

func TestInbox_MarkAllAsReadTrimsToLimit(t *testing.T) {
	inbox := NewInbox(2)
	at := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	for _, msg := range []string{"a", "b", "c", "d"} {
		inbox.Prepend(msg, at)
	}

	inbox.MarkAllAsRead()

	items, unread := inbox.Items()
	require.Len(t, items, 2)
	assert.Zero(t, unread)
	assert.Equal(t, "d", items[0].Message)
	assert.Equal(t, "c", items[1].Message)

	inbox.Prepend("e", at)
	assert.Equal(t, 1, inbox.UnreadCount())
	items, _ = inbox.Items()
	assert.Len(t, items, 2)
}

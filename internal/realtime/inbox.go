package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
)

const defaultInboxLimit = 200

// Inbox holds the notifications received by one session, most recent first.
// It is never persisted. The limit bounds read history only: unread entries
// are kept until read, so every prepend raises the unread count by one.
type Inbox struct {
	mu    sync.RWMutex
	items []domain.ClientNotification
	limit int
}

// NewInbox creates an inbox that trims read entries beyond limit.
func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	return &Inbox{limit: limit}
}

// Prepend records a new unread notification at position 0 and returns it.
// Past the limit, the oldest read entries are evicted.
func (b *Inbox) Prepend(message string, at time.Time) domain.ClientNotification {
	n := domain.ClientNotification{
		ID:        newNotificationID(),
		Message:   message,
		Timestamp: at,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append([]domain.ClientNotification{n}, b.items...)
	b.evictReadLocked()
	return n
}

func (b *Inbox) evictReadLocked() {
	for i := len(b.items) - 1; i >= 0 && len(b.items) > b.limit; i-- {
		if b.items[i].Read {
			b.items = append(b.items[:i], b.items[i+1:]...)
		}
	}
}

// MarkAllAsRead flags every held notification as read.
func (b *Inbox) MarkAllAsRead() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		b.items[i].Read = true
	}
	b.evictReadLocked()
}

// MarkAsRead flags one notification. It reports whether id was found.
func (b *Inbox) MarkAsRead(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == id {
			b.items[i].Read = true
			return true
		}
	}
	return false
}

func (b *Inbox) UnreadCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.unreadLocked()
}

func (b *Inbox) unreadLocked() int {
	unread := 0
	for _, n := range b.items {
		if !n.Read {
			unread++
		}
	}
	return unread
}

// Items returns a copy of the held notifications and the unread count.
func (b *Inbox) Items() ([]domain.ClientNotification, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.ClientNotification, len(b.items))
	copy(out, b.items)
	return out, b.unreadLocked()
}

// newNotificationID returns a time-ordered UUIDv7, falling back to a random
// UUID if the generator fails.
func newNotificationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

package services

import (
	"sync"
	"time"
)

// sendWindow is a sliding-window log over the last max accepted sends.
// A send is accepted only when fewer than max sends were accepted within
// the preceding window.
type sendWindow struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time

	// stamps is a ring; once full, next indexes the oldest entry.
	stamps []time.Time
	next   int
	filled int
}

func newSendWindow(max int, window time.Duration, now func() time.Time) *sendWindow {
	return &sendWindow{
		window: window,
		now:    now,
		stamps: make([]time.Time, max),
	}
}

// allow records the send when accepted. Rejected sends leave no trace.
func (w *sendWindow) allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if w.filled == len(w.stamps) {
		if now.Sub(w.stamps[w.next]) < w.window {
			return false
		}
	} else {
		w.filled++
	}

	w.stamps[w.next] = now
	w.next = (w.next + 1) % len(w.stamps)
	return true
}

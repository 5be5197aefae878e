package orchestrator

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

// eventLog is a bounded append-only ring. Once capacity is exceeded the
// oldest entries are evicted; sequence numbers keep growing so consumers
// can detect the gap.
type eventLog struct {
	mu       sync.Mutex
	buf      []model.Event
	next     int
	size     int
	seq      uint64
	appended uint64
}

func newEventLog(capacity int) *eventLog {
	if capacity < 1 {
		capacity = 1
	}
	return &eventLog{buf: make([]model.Event, capacity)}
}

// Record implements core.EventRecorder. A payload that fails to marshal is
// appended without one rather than dropped.
func (l *eventLog) Record(kind model.EventKind, subject string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = b
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = model.Event{
		Seq:       l.seq,
		Kind:      kind,
		Subject:   subject,
		Timestamp: time.Now(),
		Payload:   raw,
	}
	l.seq++
	l.appended++
	l.next = (l.next + 1) % len(l.buf)
	if l.size < len(l.buf) {
		l.size++
	}
}

// Recent returns up to limit of the newest events in chronological order.
// limit <= 0 returns everything retained.
func (l *eventLog) Recent(limit int) []model.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Event, 0, n)
	start := l.next - n
	if start < 0 {
		start += len(l.buf)
	}
	for i := 0; i < n; i++ {
		out = append(out, l.buf[(start+i)%len(l.buf)])
	}
	return out
}

// Appended is the total number of events ever recorded, evicted or not.
func (l *eventLog) Appended() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appended
}

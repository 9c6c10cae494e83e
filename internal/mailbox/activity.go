package mailbox

import (
	"fmt"
	"sync"
	"time"
)

// Activity kinds recorded by the monitor.
const (
	ActivitySystem      = "system"
	ActivityInbox       = "inbox"
	ActivityRecruitment = "recruitment"
	ActivityAI          = "ai"
	ActivitySkip        = "skip"
	ActivityError       = "error"
)

const maxActivities = 50

// Activity is one entry in the monitor's recent-activity feed.
type Activity struct {
	Time    time.Time `json:"timestamp"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
}

// ActivityLog is a bounded, newest-last feed of monitor events. Old
// entries fall off once the cap is reached.
type ActivityLog struct {
	mu      sync.Mutex
	entries []Activity
	now     func() time.Time
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{now: time.Now}
}

// Add appends a formatted entry, evicting the oldest when full.
func (l *ActivityLog) Add(kind, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Activity{
		Time:    l.now(),
		Type:    kind,
		Message: fmt.Sprintf(format, args...),
	})
	if len(l.entries) > maxActivities {
		l.entries = l.entries[len(l.entries)-maxActivities:]
	}
}

// Recent returns up to n newest entries, oldest first.
func (l *ActivityLog) Recent(n int) []Activity {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Activity, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

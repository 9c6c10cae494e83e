package mailbox

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/anigil002/trackerupdates/internal/models"
)

// Processor consumes recruitment emails; the reconciliation engine
// satisfies it.
type Processor interface {
	ProcessEmail(ctx context.Context, msg models.EmailMessage) ([]string, error)
}

// ErrAlreadyRunning is returned when Start is called on a live monitor.
var ErrAlreadyRunning = errors.New("monitor already running")

// recruitmentKeywords gate which inbox messages reach the engine. The
// match is a case-insensitive substring check on subject plus body.
var recruitmentKeywords = []string{
	"cv", "resume", "candidate", "interview", "recruitment", "hiring",
	"job", "position", "application", "offer", "feedback", "shortlist",
	"profile", "vacancy",
}

// Monitor polls a mailbox source on an interval and routes recruitment
// emails through the processor. Everything else is skipped and noted in
// the activity feed.
type Monitor struct {
	source     Source
	processor  Processor
	activities *ActivityLog
	interval   time.Duration
	log        *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	pending int
}

func NewMonitor(source Source, processor Processor, interval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		source:     source,
		processor:  processor,
		activities: NewActivityLog(),
		interval:   interval,
		log:        logger,
	}
}

// Activities exposes the recent-activity feed.
func (m *Monitor) Activities() *ActivityLog { return m.activities }

// Pending reports how many fetched messages await processing.
func (m *Monitor) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Running reports whether the poll loop is live.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Start launches the poll loop. The first poll happens immediately.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return ErrAlreadyRunning
	}
	if m.source == nil {
		return errors.New("no mailbox source configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.activities.Add(ActivitySystem, "Email monitoring started")
	m.log.Info("mailbox.monitor_started", "interval", m.interval)

	go m.run(ctx, done)
	return nil
}

// Stop halts the poll loop and waits for the in-flight poll to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.activities.Add(ActivitySystem, "Email monitoring stopped")
	m.log.Info("mailbox.monitor_stopped")
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	messages, err := m.source.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.activities.Add(ActivityError, "Failed to fetch emails: %v", err)
			m.log.Warn("mailbox.fetch_failed", "error", err)
		}
		return
	}
	if len(messages) == 0 {
		return
	}

	m.setPending(len(messages))
	m.activities.Add(ActivityInbox, "Fetched %d new email(s)", len(messages))

	for _, msg := range messages {
		m.handle(ctx, msg)
		m.setPending(m.Pending() - 1)
	}
}

func (m *Monitor) handle(ctx context.Context, msg models.EmailMessage) {
	if !isRecruitmentEmail(msg) {
		m.activities.Add(ActivitySkip, "Skipped non-recruitment email: %s", msg.Subject)
		return
	}

	kind := classifyEmail(msg)
	m.activities.Add(ActivityRecruitment, "%s: %s (from %s)", kind, msg.Subject, msg.Sender)

	actions, err := m.processor.ProcessEmail(ctx, msg)
	if err != nil {
		m.activities.Add(ActivityError, "Processing failed for %q: %v", msg.Subject, err)
		m.log.Warn("mailbox.process_failed", "subject", msg.Subject, "error", err)
		return
	}
	for _, action := range actions {
		m.activities.Add(ActivityAI, "%s", action)
	}
	if len(actions) == 0 {
		m.activities.Add(ActivityAI, "No tracker updates derived from %q", msg.Subject)
	}
}

func (m *Monitor) setPending(n int) {
	m.mu.Lock()
	if n < 0 {
		n = 0
	}
	m.pending = n
	m.mu.Unlock()
}

func isRecruitmentEmail(msg models.EmailMessage) bool {
	text := strings.ToLower(msg.Subject + " " + msg.Body)
	for _, kw := range recruitmentKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// classifyEmail buckets a recruitment email by its dominant topic. The
// label is informational; it drives the activity feed, not the engine.
func classifyEmail(msg models.EmailMessage) string {
	text := strings.ToLower(msg.Subject + " " + msg.Body)
	has := func(kw string) bool { return strings.Contains(text, kw) }

	switch {
	case has("cv") || has("resume"):
		return "CV Submission"
	case has("interview") && (has("schedule") || has("invite") || has("time slot")):
		return "Interview Scheduling"
	case has("interview") && (has("feedback") || has("result") || has("outcome")):
		return "Interview Feedback"
	case has("interview"):
		return "Interview Related"
	case has("offer"):
		return "Job Offer"
	case has("feedback"):
		return "Feedback"
	case has("job") && (has("posting") || has("vacancy") || has("opening")):
		return "Job Posting"
	case has("candidate"):
		return "Candidate Information"
	default:
		return "General Recruitment"
	}
}

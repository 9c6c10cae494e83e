package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/anigil002/trackerupdates/internal/directory"
	"github.com/anigil002/trackerupdates/internal/models"
	"github.com/anigil002/trackerupdates/internal/secrets"
	"github.com/anigil002/trackerupdates/internal/tracker"
)

type stubExtractor struct {
	fields models.ExtractedFields
	cmd    models.ParsedCommand
	err    error
}

func (s *stubExtractor) ExtractEmail(context.Context, models.EmailMessage) (models.ExtractedFields, error) {
	return s.fields, s.err
}

func (s *stubExtractor) ParseCommand(context.Context, string) (models.ParsedCommand, error) {
	return s.cmd, s.err
}

func newTestEngine(t *testing.T, stub *stubExtractor) *Engine {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	trackers, err := tracker.Open(dir, logger)
	if err != nil {
		t.Fatalf("tracker.Open: %v", err)
	}
	box, err := secrets.Open(filepath.Join(dir, ".encryption_key"))
	if err != nil {
		t.Fatalf("secrets.Open: %v", err)
	}
	people, err := directory.Open(filepath.Join(dir, "directory.db"), box)
	if err != nil {
		t.Fatalf("directory.Open: %v", err)
	}
	t.Cleanup(func() { people.Close() })

	e := NewEngine(stub, trackers, people, logger)
	e.now = func() time.Time { return time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC) }
	return e
}

func seedJob(t *testing.T, e *Engine, title string) string {
	t.Helper()
	id, err := e.trackers.AddJob(models.Record{
		models.ColJobTitle:    title,
		models.ColProjectName: "Metro Extension",
		models.ColJobLocation: "UAE",
		models.ColJobHM:       "Sara Khan",
	})
	if err != nil {
		t.Fatalf("AddJob(%q): %v", title, err)
	}
	return id
}

func seedCV(t *testing.T, e *Engine, jobID, name string) string {
	t.Helper()
	id, err := e.trackers.AddCV(models.Record{
		models.ColJobID:         jobID,
		models.ColCandidateName: name,
		models.ColAppStatus:     models.CVStatusShared,
	})
	if err != nil {
		t.Fatalf("AddCV(%q): %v", name, err)
	}
	return id
}

func mustFindCV(t *testing.T, e *Engine, cvID string) models.Record {
	t.Helper()
	for _, cv := range e.trackers.CVs() {
		if cv[models.ColCVID] == cvID {
			return cv
		}
	}
	t.Fatalf("CV %s not found", cvID)
	return nil
}

func TestProcessEmail_CVSubmission(t *testing.T) {
	stub := &stubExtractor{fields: models.ExtractedFields{
		"candidate_name": "Jane Doe",
		"position":       "Senior Engineer",
		"email":          "jane@example.com",
	}}
	e := newTestEngine(t, stub)
	jobID := seedJob(t, e, "Senior Engineer")

	actions, err := e.ProcessEmail(context.Background(), models.EmailMessage{Subject: "CV for Jane"})
	if err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("actions = %v, want exactly one", actions)
	}

	cvs := e.trackers.CVs()
	if len(cvs) != 1 {
		t.Fatalf("CV count = %d, want 1", len(cvs))
	}
	cv := cvs[0]
	if cv[models.ColJobID] != jobID {
		t.Errorf("JobID = %q, want %q", cv[models.ColJobID], jobID)
	}
	if cv[models.ColAppStatus] != models.CVStatusShared {
		t.Errorf("status = %q, want %q", cv[models.ColAppStatus], models.CVStatusShared)
	}
	if cv[models.ColCVSource] != "Email" {
		t.Errorf("CV Source = %q, want Email", cv[models.ColCVSource])
	}
	if cv[models.ColDateCVShared] != "2025-03-10" {
		t.Errorf("Date CV Shared = %q, want 2025-03-10", cv[models.ColDateCVShared])
	}
}

func TestProcessEmail_CandidateNameAloneIsNoOp(t *testing.T) {
	stub := &stubExtractor{fields: models.ExtractedFields{"candidate_name": "Jane Doe"}}
	e := newTestEngine(t, stub)
	seedJob(t, e, "Senior Engineer")

	actions, err := e.ProcessEmail(context.Background(), models.EmailMessage{Subject: "Re: Jane"})
	if err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}
	if len(actions) != 0 {
		t.Errorf("actions = %v, want none", actions)
	}
	if got := len(e.trackers.CVs()); got != 0 {
		t.Errorf("CV count = %d, want 0", got)
	}
}

func TestProcessEmail_UnresolvedPositionSkipped(t *testing.T) {
	stub := &stubExtractor{fields: models.ExtractedFields{
		"candidate_name": "Jane Doe",
		"position":       "Marine Biologist",
	}}
	e := newTestEngine(t, stub)
	seedJob(t, e, "Senior Engineer")

	actions, err := e.ProcessEmail(context.Background(), models.EmailMessage{})
	if err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}
	if len(actions) != 0 {
		t.Errorf("actions = %v, want none", actions)
	}
	if got := len(e.trackers.CVs()); got != 0 {
		t.Errorf("CV count = %d, want 0", got)
	}
}

func TestProcessEmail_InterviewScheduling(t *testing.T) {
	stub := &stubExtractor{fields: models.ExtractedFields{
		"candidate_name": "Jane Doe",
		"interview_date": "2025-03-15",
		"interview_time": "10:00",
	}}
	e := newTestEngine(t, stub)
	jobID := seedJob(t, e, "Senior Engineer")
	cvID := seedCV(t, e, jobID, "Jane Doe")

	if _, err := e.ProcessEmail(context.Background(), models.EmailMessage{}); err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}

	cv := mustFindCV(t, e, cvID)
	if cv[models.ColInterviewDate] != "2025-03-15 10:00" {
		t.Errorf("Interview Date = %q, want 2025-03-15 10:00", cv[models.ColInterviewDate])
	}
	if cv[models.ColAppStatus] != models.CVStatusInterviewScheduled {
		t.Errorf("status = %q, want %q", cv[models.ColAppStatus], models.CVStatusInterviewScheduled)
	}
}

func TestProcessEmail_InterviewResultClassification(t *testing.T) {
	tests := []struct {
		name       string
		result     string
		wantStatus string
		wantResult string
	}{
		{"pass keywords", "Candidate passed, selected", models.CVStatusInterviewPassed, "Passed"},
		{"reject keyword", "unfortunately rejected", models.CVStatusRejected, "Rejected"},
		{"no keyword leaves status", "pending", models.CVStatusShared, "pending"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubExtractor{fields: models.ExtractedFields{
				"candidate_name":   "Jane Doe",
				"interview_result": tt.result,
			}}
			e := newTestEngine(t, stub)
			jobID := seedJob(t, e, "Senior Engineer")
			cvID := seedCV(t, e, jobID, "Jane Doe")

			if _, err := e.ProcessEmail(context.Background(), models.EmailMessage{}); err != nil {
				t.Fatalf("ProcessEmail: %v", err)
			}

			cv := mustFindCV(t, e, cvID)
			if cv[models.ColAppStatus] != tt.wantStatus {
				t.Errorf("status = %q, want %q", cv[models.ColAppStatus], tt.wantStatus)
			}
			if cv[models.ColInterviewResults] != tt.wantResult {
				t.Errorf("Interview Results = %q, want %q", cv[models.ColInterviewResults], tt.wantResult)
			}
		})
	}
}

func TestProcessEmail_LongFeedbackSplit(t *testing.T) {
	long := ""
	for len(long) < 150 {
		long += "very detailed feedback "
	}
	stub := &stubExtractor{fields: models.ExtractedFields{
		"candidate_name": "Jane Doe",
		"feedback":       long,
	}}
	e := newTestEngine(t, stub)
	jobID := seedJob(t, e, "Senior Engineer")
	cvID := seedCV(t, e, jobID, "Jane Doe")

	if _, err := e.ProcessEmail(context.Background(), models.EmailMessage{}); err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}

	cv := mustFindCV(t, e, cvID)
	if got := cv[models.ColHMFeedback]; got != long[:100] {
		t.Errorf("HM Feedback = %d chars, want first 100", len(got))
	}
	if cv[models.ColHMComments] != long {
		t.Error("HM Comments should carry the full feedback text")
	}
	if cv[models.ColHMFeedbackDate] != "2025-03-10" {
		t.Errorf("HM Feedback Date = %q, want 2025-03-10", cv[models.ColHMFeedbackDate])
	}
}

func TestProcessEmail_FeedbackTruncatesOnRunes(t *testing.T) {
	long := strings.Repeat("é", 120)
	stub := &stubExtractor{fields: models.ExtractedFields{
		"candidate_name": "Jane Doe",
		"feedback":       long,
	}}
	e := newTestEngine(t, stub)
	jobID := seedJob(t, e, "Senior Engineer")
	cvID := seedCV(t, e, jobID, "Jane Doe")

	if _, err := e.ProcessEmail(context.Background(), models.EmailMessage{}); err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}

	cv := mustFindCV(t, e, cvID)
	summary := cv[models.ColHMFeedback]
	if !utf8.ValidString(summary) {
		t.Errorf("HM Feedback is not valid UTF-8: %q", summary)
	}
	if summary != strings.Repeat("é", 100) {
		t.Errorf("HM Feedback = %d runes, want the first 100 characters intact", utf8.RuneCountInString(summary))
	}
	if cv[models.ColHMComments] != long {
		t.Error("HM Comments should carry the full feedback text")
	}
}

func TestProcessEmail_ExtractorErrorIsNoOp(t *testing.T) {
	stub := &stubExtractor{err: errors.New("model call failed: 503")}
	e := newTestEngine(t, stub)
	seedJob(t, e, "Senior Engineer")

	actions, err := e.ProcessEmail(context.Background(), models.EmailMessage{Subject: "CV for review"})
	if err != nil {
		t.Fatalf("ProcessEmail should treat extraction failure as nothing detected, got %v", err)
	}
	if len(actions) != 0 {
		t.Errorf("actions = %v, want none", actions)
	}
	if got := len(e.trackers.CVs()); got != 0 {
		t.Errorf("CV count = %d, want 0", got)
	}
}

func TestProcessEmail_JobIDWithoutPositionIsNoOp(t *testing.T) {
	e := newTestEngine(t, &stubExtractor{})
	jobID := seedJob(t, e, "Senior Engineer")

	stub := &stubExtractor{fields: models.ExtractedFields{
		"candidate_name": "Jane Doe",
		"job_id":         jobID,
	}}
	e.extractor = stub

	actions, err := e.ProcessEmail(context.Background(), models.EmailMessage{})
	if err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}
	if len(actions) != 0 {
		t.Errorf("actions = %v, want none without a position", actions)
	}
	if got := len(e.trackers.CVs()); got != 0 {
		t.Errorf("CV count = %d, want 0", got)
	}
}

func TestProcessEmail_OfferDetails(t *testing.T) {
	stub := &stubExtractor{fields: models.ExtractedFields{
		"candidate_name": "Jane Doe",
		"offer_details":  "AED 25,000 per month plus housing",
	}}
	e := newTestEngine(t, stub)
	jobID := seedJob(t, e, "Senior Engineer")
	cvID := seedCV(t, e, jobID, "Jane Doe")

	if _, err := e.ProcessEmail(context.Background(), models.EmailMessage{}); err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}

	cv := mustFindCV(t, e, cvID)
	if cv[models.ColPackage] != "25000" {
		t.Errorf("Package = %q, want 25000", cv[models.ColPackage])
	}
	if cv[models.ColAppStatus] != models.CVStatusOfferExtended {
		t.Errorf("status = %q, want %q", cv[models.ColAppStatus], models.CVStatusOfferExtended)
	}
	if cv[models.ColOfferStatus] != "Pending" {
		t.Errorf("Offer Status = %q, want Pending", cv[models.ColOfferStatus])
	}
}

func TestParseWhen(t *testing.T) {
	tests := []struct {
		date, timeOfDay string
		wantParsed      bool
		want            string
	}{
		{"2025-03-15", "10:00", true, "2025-03-15 10:00"},
		{"March 15, 2025", "", true, "2025-03-15"},
		{"next Tuesday sometime", "", false, "next Tuesday sometime"},
	}
	for _, tt := range tests {
		got := parseWhen(tt.date, tt.timeOfDay)
		if got.Parsed != tt.wantParsed {
			t.Errorf("parseWhen(%q, %q).Parsed = %v, want %v", tt.date, tt.timeOfDay, got.Parsed, tt.wantParsed)
		}
		if got.String() != tt.want {
			t.Errorf("parseWhen(%q, %q) = %q, want %q", tt.date, tt.timeOfDay, got.String(), tt.want)
		}
	}
}

func TestExtractAmount(t *testing.T) {
	tests := []struct{ in, want string }{
		{"AED 25,000 per month", "25000"},
		{"salary 1,200,000 annually", "1200000"},
		{"competitive package", ""},
	}
	for _, tt := range tests {
		if got := extractAmount(tt.in); got != tt.want {
			t.Errorf("extractAmount(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

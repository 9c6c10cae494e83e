// Package engine reconciles extracted email fields and interpreted
// commands against the trackers. It owns no I/O of its own: the
// extraction client, the tracker store and the directory store are
// handed in, so everything here is testable with stubs.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anigil002/trackerupdates/internal/directory"
	"github.com/anigil002/trackerupdates/internal/models"
	"github.com/anigil002/trackerupdates/internal/tracker"
)

// Extractor is the slice of the language-model client the engine uses.
type Extractor interface {
	ExtractEmail(ctx context.Context, msg models.EmailMessage) (models.ExtractedFields, error)
	ParseCommand(ctx context.Context, command string) (models.ParsedCommand, error)
}

// JobResolver picks the job a set of extracted fields refers to.
type JobResolver func(jobs []models.Record, query string) (models.Record, bool)

// CVResolver picks the CV record a candidate name refers to.
type CVResolver func(cvs []models.Record, name string) (models.Record, bool)

// Engine applies recruitment updates derived from emails and commands.
type Engine struct {
	extractor  Extractor
	trackers   *tracker.Store
	people     *directory.Store
	resolveJob JobResolver
	resolveCV  CVResolver
	now        func() time.Time
	log        *slog.Logger
}

// NewEngine wires an engine with the default first-match resolvers.
func NewEngine(extractor Extractor, trackers *tracker.Store, people *directory.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		extractor:  extractor,
		trackers:   trackers,
		people:     people,
		resolveJob: FirstJobMatch,
		resolveCV:  FirstCVMatch,
		now:        time.Now,
		log:        logger,
	}
}

// ProcessEmail extracts recruitment fields from the message and applies
// every update the fields support. The branches are independent: one
// email can add a CV, schedule an interview and record feedback. The
// returned strings describe the actions taken, in order.
//
// An extraction failure is treated as nothing detected: it is logged
// and yields no actions and no error, so a model outage or a missing
// API key never surfaces as a processing failure for passive email
// traffic.
func (e *Engine) ProcessEmail(ctx context.Context, msg models.EmailMessage) ([]string, error) {
	fields, err := e.extractor.ExtractEmail(ctx, msg)
	if err != nil {
		e.log.Warn("engine.extraction_failed", "subject", msg.Subject, "error", err)
		return nil, nil
	}

	var actions []string
	if a, ok := e.applyCVSubmission(fields); ok {
		actions = append(actions, a)
	}
	if a, ok := e.applyInterviewSchedule(fields); ok {
		actions = append(actions, a)
	}
	if a, ok := e.applyFeedback(fields); ok {
		actions = append(actions, a)
	}
	if a, ok := e.applyOffer(fields); ok {
		actions = append(actions, a)
	}
	if len(actions) > 0 {
		e.log.Info("engine.email_processed", "subject", msg.Subject, "actions", len(actions))
	}
	return actions, nil
}

// applyCVSubmission adds a CV row when the email names both a candidate
// and a position. An unresolvable position is logged and skipped so a
// stray mention never creates a row against the wrong job.
func (e *Engine) applyCVSubmission(fields models.ExtractedFields) (string, bool) {
	if !fields.Has("candidate_name") || !fields.Has("position") {
		return "", false
	}

	job, ok := e.findJob(fields.Get("job_id"), fields.Get("position"))
	if !ok {
		e.log.Warn("engine.job_unresolved",
			"candidate", fields.Get("candidate_name"),
			"position", fields.Get("position"), "job_id", fields.Get("job_id"))
		return "", false
	}

	source := fields.Get("cv_source")
	if source == "" {
		source = "Email"
	}
	rec := models.Record{
		models.ColJobID:         job[models.ColJobID],
		models.ColCandidateName: fields.Get("candidate_name"),
		models.ColEmail:         fields.Get("email"),
		models.ColMobile:        fields.Get("mobile"),
		models.ColCVSource:      source,
		models.ColDateCVShared:  e.now().Format("2006-01-02"),
		models.ColAppStatus:     models.CVStatusShared,
	}
	for field, column := range map[string]string{
		"current_location": "Current Location",
		"nationality":      "Nationality",
		"notice_period":    "Notice Period",
	} {
		if fields.Has(field) {
			rec[column] = fields.Get(field)
		}
	}
	cvID, err := e.trackers.AddCV(rec)
	if err != nil {
		e.log.Warn("engine.cv_add_failed", "candidate", fields.Get("candidate_name"), "error", err)
		return "", false
	}
	return fmt.Sprintf("Added CV %s for %s against %s", cvID, fields.Get("candidate_name"), job[models.ColJobID]), true
}

func (e *Engine) applyInterviewSchedule(fields models.ExtractedFields) (string, bool) {
	if !fields.Has("candidate_name") || !fields.Has("interview_date") {
		return "", false
	}
	cv, ok := e.resolveCV(e.trackers.CVs(), fields.Get("candidate_name"))
	if !ok {
		e.log.Warn("engine.cv_unresolved", "candidate", fields.Get("candidate_name"))
		return "", false
	}

	when := parseWhen(fields.Get("interview_date"), fields.Get("interview_time"))
	if !when.Parsed {
		e.log.Warn("engine.interview_date_unparsed", "raw", when.Raw)
	}
	err := e.trackers.UpdateCV(cv[models.ColCVID], models.Record{
		models.ColInterviewDate: when.String(),
		models.ColAppStatus:     models.CVStatusInterviewScheduled,
	})
	if err != nil {
		e.log.Warn("engine.cv_update_failed", "cv_id", cv[models.ColCVID], "error", err)
		return "", false
	}
	return fmt.Sprintf("Scheduled interview for %s on %s", fields.Get("candidate_name"), when), true
}

// applyFeedback records hiring-manager feedback and classifies an
// interview result. Long feedback is truncated into the HM Feedback
// column with the full text preserved in HM Comments. A result that
// matches neither the pass nor the reject keywords is recorded verbatim
// and leaves the application status alone.
func (e *Engine) applyFeedback(fields models.ExtractedFields) (string, bool) {
	if !fields.Has("candidate_name") || !(fields.Has("feedback") || fields.Has("interview_result")) {
		return "", false
	}
	cv, ok := e.resolveCV(e.trackers.CVs(), fields.Get("candidate_name"))
	if !ok {
		e.log.Warn("engine.cv_unresolved", "candidate", fields.Get("candidate_name"))
		return "", false
	}

	updates := models.Record{}
	var noted []string
	if fields.Has("feedback") {
		feedback := fields.Get("feedback")
		if r := []rune(feedback); len(r) > 100 {
			updates[models.ColHMFeedback] = string(r[:100])
			updates[models.ColHMComments] = feedback
		} else {
			updates[models.ColHMFeedback] = feedback
		}
		updates[models.ColHMFeedbackDate] = e.now().Format("2006-01-02")
		noted = append(noted, "feedback")
	}
	if fields.Has("interview_result") {
		result := fields.Get("interview_result")
		switch classifyResult(result) {
		case models.CVStatusInterviewPassed:
			updates[models.ColInterviewResults] = "Passed"
			updates[models.ColAppStatus] = models.CVStatusInterviewPassed
			updates[models.ColDateInterviewResult] = e.now().Format("2006-01-02")
		case models.CVStatusRejected:
			updates[models.ColInterviewResults] = "Rejected"
			updates[models.ColAppStatus] = models.CVStatusRejected
			updates[models.ColDateInterviewResult] = e.now().Format("2006-01-02")
		default:
			updates[models.ColInterviewResults] = result
		}
		noted = append(noted, "interview result")
	}

	if err := e.trackers.UpdateCV(cv[models.ColCVID], updates); err != nil {
		e.log.Warn("engine.cv_update_failed", "cv_id", cv[models.ColCVID], "error", err)
		return "", false
	}
	return fmt.Sprintf("Recorded %s for %s", strings.Join(noted, " and "), fields.Get("candidate_name")), true
}

func (e *Engine) applyOffer(fields models.ExtractedFields) (string, bool) {
	if !fields.Has("candidate_name") || !fields.Has("offer_details") {
		return "", false
	}
	cv, ok := e.resolveCV(e.trackers.CVs(), fields.Get("candidate_name"))
	if !ok {
		e.log.Warn("engine.cv_unresolved", "candidate", fields.Get("candidate_name"))
		return "", false
	}

	updates := models.Record{
		models.ColAppStatus:   models.CVStatusOfferExtended,
		models.ColOfferStatus: "Pending",
	}
	if amount := extractAmount(fields.Get("offer_details")); amount != "" {
		updates[models.ColPackage] = amount
	}
	if err := e.trackers.UpdateCV(cv[models.ColCVID], updates); err != nil {
		e.log.Warn("engine.cv_update_failed", "cv_id", cv[models.ColCVID], "error", err)
		return "", false
	}
	return fmt.Sprintf("Recorded offer for %s", fields.Get("candidate_name")), true
}

// findJob honours an explicit job ID before falling back to a title
// match against the open positions.
func (e *Engine) findJob(jobID, title string) (models.Record, bool) {
	jobs := e.trackers.Jobs()
	if jobID != "" {
		for _, job := range jobs {
			if job[models.ColJobID] == jobID {
				return job, true
			}
		}
		return nil, false
	}
	if title == "" {
		return nil, false
	}
	return e.resolveJob(jobs, title)
}

var passKeywords = []string{"pass", "selected", "yes", "approved"}
var rejectKeywords = []string{"fail", "reject", "no"}

// classifyResult maps a free-text interview outcome onto a status.
// Pass keywords win over reject keywords, so "passed, not bad at all"
// still counts as a pass. Returns "" when nothing matched.
func classifyResult(result string) string {
	lower := strings.ToLower(result)
	for _, kw := range passKeywords {
		if strings.Contains(lower, kw) {
			return models.CVStatusInterviewPassed
		}
	}
	for _, kw := range rejectKeywords {
		if strings.Contains(lower, kw) {
			return models.CVStatusRejected
		}
	}
	return ""
}

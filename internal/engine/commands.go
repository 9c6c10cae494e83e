package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/anigil002/trackerupdates/internal/models"
)

// maxSearchDisplay caps how many matches are listed in the response
// text. The full match set still travels in CommandResult.Data.
const maxSearchDisplay = 10

// Interpret runs a free-text instruction through the extraction client
// and executes whatever action it resolves to.
func (e *Engine) Interpret(ctx context.Context, text string) models.CommandResult {
	parsed, err := e.extractor.ParseCommand(ctx, text)
	if err != nil {
		return models.CommandResult{
			Response: "Sorry, I could not interpret that command.",
			Err:      err.Error(),
		}
	}
	return e.Execute(parsed)
}

// Execute dispatches a parsed command. Matching is by keyword rather
// than exact action name, so "add_new_candidate" and "add_candidate"
// land in the same place.
func (e *Engine) Execute(cmd models.ParsedCommand) models.CommandResult {
	action := strings.ToLower(cmd.Action)
	params := cmd.Parameters
	if params == nil {
		params = map[string]any{}
	}

	switch {
	case strings.Contains(action, "add") && strings.Contains(action, "candidate"):
		return e.cmdAddCandidate(params)
	case strings.Contains(action, "update"):
		return e.cmdUpdateStatus(params)
	case strings.Contains(action, "add") && strings.Contains(action, "manager"):
		return e.cmdAddHiringManager(params)
	case strings.Contains(action, "add") && strings.Contains(action, "project"):
		return e.cmdAddProject(params)
	case strings.Contains(action, "search") || strings.Contains(action, "show"):
		return e.cmdSearch(params)
	case strings.Contains(action, "schedule") || strings.Contains(action, "interview"):
		return e.cmdScheduleInterview(params)
	default:
		return models.CommandResult{Response: "Command understood but not yet implemented."}
	}
}

func (e *Engine) cmdAddCandidate(params map[string]any) models.CommandResult {
	name := param(params, "candidate_name")
	if name == "" {
		return models.CommandResult{Response: "A candidate name is required.", Err: "missing candidate_name"}
	}
	job, ok := e.findJob(param(params, "job_id"), param(params, "position"))
	if !ok {
		return models.CommandResult{
			Response: "Could not find a matching position. Provide a job ID or an existing job title.",
			Err:      "job not resolved",
		}
	}

	source := param(params, "cv_source")
	if source == "" {
		source = "Manual"
	}
	rec := models.Record{
		models.ColJobID:         job[models.ColJobID],
		models.ColCandidateName: name,
		models.ColEmail:         param(params, "email"),
		models.ColMobile:        param(params, "mobile"),
		models.ColCVSource:      source,
		models.ColDateCVShared:  e.now().Format("2006-01-02"),
		models.ColAppStatus:     models.CVStatusShared,
	}
	cvID, err := e.trackers.AddCV(rec)
	if err != nil {
		return models.CommandResult{Response: "Failed to add the candidate.", Err: err.Error()}
	}
	return models.CommandResult{
		Response: fmt.Sprintf("Added %s (%s) against %s.", name, cvID, job[models.ColJobID]),
	}
}

func (e *Engine) cmdUpdateStatus(params map[string]any) models.CommandResult {
	name := param(params, "candidate_name")
	status := param(params, "status")
	if name == "" || status == "" {
		return models.CommandResult{Response: "Both a candidate name and a status are required.", Err: "missing parameters"}
	}
	cv, ok := e.resolveCV(e.trackers.CVs(), name)
	if !ok {
		return models.CommandResult{Response: fmt.Sprintf("No CV found for %q.", name), Err: "candidate not found"}
	}

	updates := models.Record{models.ColAppStatus: status}
	if feedback := param(params, "feedback"); feedback != "" {
		if r := []rune(feedback); len(r) > 100 {
			updates[models.ColHMFeedback] = string(r[:100])
			updates[models.ColHMComments] = feedback
		} else {
			updates[models.ColHMFeedback] = feedback
		}
		updates[models.ColHMFeedbackDate] = e.now().Format("2006-01-02")
	}
	if err := e.trackers.UpdateCV(cv[models.ColCVID], updates); err != nil {
		return models.CommandResult{Response: "Failed to update the candidate.", Err: err.Error()}
	}
	return models.CommandResult{
		Response: fmt.Sprintf("Updated %s to %q.", cv[models.ColCandidateName], status),
	}
}

func (e *Engine) cmdAddHiringManager(params map[string]any) models.CommandResult {
	name := param(params, "name")
	if name == "" {
		name = param(params, "hiring_manager")
	}
	if name == "" {
		return models.CommandResult{Response: "A hiring manager name is required.", Err: "missing name"}
	}
	id, err := e.people.AddHiringManager(name, param(params, "email"))
	if err != nil {
		return models.CommandResult{Response: "Failed to add the hiring manager.", Err: err.Error()}
	}
	return models.CommandResult{Response: fmt.Sprintf("Added hiring manager %s (%s).", name, id)}
}

func (e *Engine) cmdAddProject(params map[string]any) models.CommandResult {
	name := param(params, "name")
	if name == "" {
		name = param(params, "project")
	}
	if name == "" {
		return models.CommandResult{Response: "A project name is required.", Err: "missing name"}
	}
	id, err := e.people.AddProject(name)
	if err != nil {
		return models.CommandResult{Response: "Failed to add the project.", Err: err.Error()}
	}
	return models.CommandResult{Response: fmt.Sprintf("Added project %s (%s).", name, id)}
}

// cmdSearch queries the CV tracker when a candidate is named and the
// Master Tracker otherwise. Every criterion is a case-insensitive
// substring match and all given criteria must hold.
func (e *Engine) cmdSearch(params map[string]any) models.CommandResult {
	candidate := param(params, "candidate_name")
	if candidate != "" {
		criteria := map[string]string{models.ColCandidateName: candidate}
		if status := param(params, "status"); status != "" {
			criteria[models.ColAppStatus] = status
		}
		matches := e.trackers.SearchCVs(criteria)
		return searchResult(matches, func(r models.Record) string {
			return fmt.Sprintf("%s: %s - %s (%s)",
				r[models.ColCVID], r[models.ColCandidateName], r[models.ColPosition], r[models.ColAppStatus])
		})
	}

	criteria := map[string]string{}
	if title := firstParam(params, "job_title", "position", "query"); title != "" {
		criteria[models.ColJobTitle] = title
	}
	if status := param(params, "status"); status != "" {
		criteria[models.ColJobStatus] = status
	}
	if location := param(params, "location"); location != "" {
		criteria[models.ColJobLocation] = location
	}
	matches := e.trackers.SearchJobs(criteria)
	return searchResult(matches, func(r models.Record) string {
		return fmt.Sprintf("%s: %s (%s)",
			r[models.ColJobID], r[models.ColJobTitle], r[models.ColJobStatus])
	})
}

func (e *Engine) cmdScheduleInterview(params map[string]any) models.CommandResult {
	name := param(params, "candidate_name")
	date := param(params, "interview_date")
	if name == "" || date == "" {
		return models.CommandResult{Response: "Both a candidate name and an interview date are required.", Err: "missing parameters"}
	}
	cv, ok := e.resolveCV(e.trackers.CVs(), name)
	if !ok {
		return models.CommandResult{Response: fmt.Sprintf("No CV found for %q.", name), Err: "candidate not found"}
	}

	when := parseWhen(date, param(params, "interview_time")).String()
	err := e.trackers.UpdateCV(cv[models.ColCVID], models.Record{
		models.ColInterviewDate: when,
		models.ColAppStatus:     models.CVStatusInterviewScheduled,
	})
	if err != nil {
		return models.CommandResult{Response: "Failed to schedule the interview.", Err: err.Error()}
	}
	return models.CommandResult{
		Response: fmt.Sprintf("Scheduled interview for %s on %s.", cv[models.ColCandidateName], when),
	}
}

func searchResult(matches []models.Record, describe func(models.Record) string) models.CommandResult {
	if len(matches) == 0 {
		return models.CommandResult{Response: "No matching records found.", Data: []models.Record{}}
	}
	var lines []string
	for i, rec := range matches {
		if i == maxSearchDisplay {
			lines = append(lines, fmt.Sprintf("... +%d more", len(matches)-maxSearchDisplay))
			break
		}
		lines = append(lines, describe(rec))
	}
	return models.CommandResult{
		Response: fmt.Sprintf("Found %d record(s):\n%s", len(matches), strings.Join(lines, "\n")),
		Data:     matches,
	}
}

func param(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func firstParam(params map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := param(params, key); v != "" {
			return v
		}
	}
	return ""
}

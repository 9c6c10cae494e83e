package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/anigil002/trackerupdates/internal/models"
)

// FirstJobMatch returns the first job whose title contains the query or
// is contained by it, case-insensitively. Emails rarely quote the exact
// posted title, so containment in either direction is accepted.
func FirstJobMatch(jobs []models.Record, query string) (models.Record, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, false
	}
	for _, job := range jobs {
		title := strings.ToLower(job[models.ColJobTitle])
		if title == "" {
			continue
		}
		if strings.Contains(title, q) || strings.Contains(q, title) {
			return job, true
		}
	}
	return nil, false
}

// FirstCVMatch returns the first CV row whose candidate name contains
// the query or is contained by it, case-insensitively.
func FirstCVMatch(cvs []models.Record, name string) (models.Record, bool) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nil, false
	}
	for _, cv := range cvs {
		candidate := strings.ToLower(cv[models.ColCandidateName])
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, q) || strings.Contains(q, candidate) {
			return cv, true
		}
	}
	return nil, false
}

// When is a best-effort parsed interview moment. Parsed distinguishes
// a real timestamp from the raw-text fallback, so consumers never
// mistake unparsed prose for a date.
type When struct {
	Time    time.Time
	Raw     string
	Parsed  bool
	hasTime bool
}

// parseWhen normalizes a natural-language interview date, with an
// optional separate time component. Anything unparseable is kept
// verbatim in Raw with Parsed false.
func parseWhen(date, timeOfDay string) When {
	combined := strings.TrimSpace(strings.TrimSpace(date) + " " + strings.TrimSpace(timeOfDay))
	parsed, err := dateparse.ParseAny(combined)
	if err != nil {
		return When{Raw: combined}
	}
	return When{Time: parsed, Raw: combined, Parsed: true, hasTime: timeOfDay != ""}
}

// String renders the sortable form when parsed, the raw text otherwise.
func (w When) String() string {
	if !w.Parsed {
		return w.Raw
	}
	if w.hasTime {
		return w.Time.Format("2006-01-02 15:04")
	}
	return w.Time.Format("2006-01-02")
}

var amountPattern = regexp.MustCompile(`[0-9][0-9,]*`)

// extractAmount pulls the first number out of free-text offer details,
// dropping thousands separators. Returns "" when there is no number.
func extractAmount(details string) string {
	match := amountPattern.FindString(details)
	return strings.ReplaceAll(match, ",", "")
}

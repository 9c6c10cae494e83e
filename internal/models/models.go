package models

import "time"

// Job statuses tracked in the Master Tracker.
const (
	JobStatusOpen   = "Open"
	JobStatusFilled = "Filled"
	JobStatusClosed = "Closed"
)

// Application statuses the engine writes to the CV Tracker. The column
// itself is free text.
const (
	CVStatusShared             = "CV Shared"
	CVStatusInterviewScheduled = "Interview Scheduled"
	CVStatusInterviewPassed    = "Interview Passed"
	CVStatusRejected           = "Rejected"
	CVStatusOfferExtended      = "Offer Extended"
	CVStatusHired              = "Hired"
)

// Master Tracker column names referenced by code.
const (
	ColJobID           = "JobID"
	ColPositionCreated = "Position Created Date"
	ColJobTitle        = "Job Title"
	ColJobLocation     = "Job Location (Country)"
	ColProjectName     = "Project Name"
	ColJobStatus       = "Job Status"
	ColJobHM           = "Hiring Manager"
)

// CV Tracker column names referenced by code.
const (
	ColCVID                = "CVID"
	ColPosition            = "Position"
	ColHiringManager       = "Hiring Manager"
	ColProject             = "Project"
	ColCandidateName       = "Candidate Name"
	ColAppStatus           = "Application Status"
	ColCVSource            = "CV Source"
	ColDateCVShared        = "Date CV Shared"
	ColHMFeedback          = "HM Feedback"
	ColHMFeedbackDate      = "HM Feedback Date"
	ColHMComments          = "HM Comments"
	ColInterviewDate       = "Interview Date"
	ColInterviewResults    = "Interview Results"
	ColDateInterviewResult = "Date Interview Result"
	ColPackage             = "Package"
	ColOfferStatus         = "Offer Status"
	ColEmail               = "Email"
	ColMobile              = "Mobile"
	ColLastModified        = "Last Modified"
)

// MasterColumns is the Master Tracker header row, in sheet order.
var MasterColumns = []string{
	ColJobID, ColPositionCreated, ColJobTitle, ColJobLocation,
	ColProjectName, "Max Budgeted Salary", "Accepted Salary", "Is Job Ad Published?",
	"TA Partner", "Sourcing Partner", ColJobHM, ColJobStatus,
	"Business Line", "Service Line",
}

// CVColumns is the CV Tracker header row, in sheet order.
var CVColumns = []string{
	ColCVID, ColJobID, ColPosition, ColHiringManager, ColProject, ColCandidateName,
	ColAppStatus, ColCVSource, ColDateCVShared, ColHMFeedback,
	ColHMFeedbackDate, ColHMComments, ColInterviewDate, ColInterviewResults,
	ColDateInterviewResult, ColPackage, "Date Offer Requested", "Date Offer Issued",
	ColOfferStatus, "Date Offer Accepted or Rejected", "Remarks", "ETA",
	"Date Onboard", ColEmail, ColMobile, "Current Location", "Notice Period",
	"Agreed Start Date", "Nationality", ColLastModified,
}

// Record is one tracker row, keyed by column name. A missing key means
// the column was never set; an empty string is a set-but-blank cell.
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ExtractedFields is the transient field mapping produced by the
// extraction client. Absence of a key means "not mentioned", which the
// engine treats differently from an empty value.
type ExtractedFields map[string]string

// Has reports whether the field was mentioned with a non-empty value.
func (f ExtractedFields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != ""
}

// Get returns the field value, or "" when absent.
func (f ExtractedFields) Get(key string) string {
	return f[key]
}

// ParsedCommand is the action+parameters shape produced by running a
// free-text command through the extraction client.
type ParsedCommand struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
}

// CommandResult is what the command interpreter hands back: a display
// response, and for searches the raw matched records.
type CommandResult struct {
	Response string   `json:"response"`
	Data     []Record `json:"data,omitempty"`
	Err      string   `json:"error,omitempty"`
}

// Recipient is one addressee of an ingested email.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Attachment describes an email attachment. Only metadata is carried;
// attachment bodies are never downloaded.
type Attachment struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// EmailMessage is a raw message delivered by the ingestion source.
type EmailMessage struct {
	Folder       string       `json:"folder"`
	Subject      string       `json:"subject"`
	Sender       string       `json:"sender"`
	SenderName   string       `json:"sender_name"`
	Recipients   []Recipient  `json:"recipients"`
	Body         string       `json:"body"`
	ReceivedTime time.Time    `json:"received_time"`
	Attachments  []Attachment `json:"attachments"`
}

// HiringManager is a directory entry.
type HiringManager struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Project is a directory entry.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Candidate holds candidate identity fields in the directory.
type Candidate struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Mobile          string `json:"mobile"`
	CurrentLocation string `json:"current_location"`
	Nationality     string `json:"nationality"`
	NoticePeriod    string `json:"notice_period"`
}

// Location is a directory entry.
type Location struct {
	ID      string `json:"id"`
	Country string `json:"country_name"`
}

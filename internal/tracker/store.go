package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anigil002/trackerupdates/internal/models"
)

// Business-rule violations surfaced as sentinel errors, never panics.
var (
	ErrDuplicateJob = errors.New("duplicate job found")
	ErrInvalidJobID = errors.New("invalid JobID")
	ErrJobNotFound  = errors.New("job not found")
	ErrCVNotFound   = errors.New("CV not found")
)

const (
	masterSheet = "Master Tracker"
	cvSheet     = "CV Tracker"

	masterFile = "MasterTracker.xlsx"
	cvFile     = "CVTracker.xlsx"

	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
	idDateLayout    = "060102"
)

// Store keeps the two recruitment trackers as Excel workbooks. Every
// operation reads the whole table and every mutation rewrites the whole
// file. A single writer is assumed; there is no cross-process lock, so
// two processes racing on the same workbook can lose updates.
type Store struct {
	masterPath string
	cvPath     string

	mu  sync.Mutex
	now func() time.Time
	log *slog.Logger
}

// Open prepares the tracker store under dataDir, creating empty
// workbooks with formatted headers on first use.
func Open(dataDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		masterPath: filepath.Join(dataDir, masterFile),
		cvPath:     filepath.Join(dataDir, cvFile),
		now:        time.Now,
		log:        logger,
	}

	if _, err := os.Stat(s.masterPath); os.IsNotExist(err) {
		if err := saveTable(s.masterPath, masterSheet, models.MasterColumns, nil); err != nil {
			return nil, fmt.Errorf("failed to create master tracker: %w", err)
		}
	}
	if _, err := os.Stat(s.cvPath); os.IsNotExist(err) {
		if err := saveTable(s.cvPath, cvSheet, models.CVColumns, nil); err != nil {
			return nil, fmt.Errorf("failed to create CV tracker: %w", err)
		}
	}

	return s, nil
}

// MasterPath returns the Master Tracker workbook path.
func (s *Store) MasterPath() string { return s.masterPath }

// CVPath returns the CV Tracker workbook path.
func (s *Store) CVPath() string { return s.cvPath }

// Jobs returns every Master Tracker row in sheet order.
func (s *Store) Jobs() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readMaster()
}

// CVs returns every CV Tracker row in sheet order.
func (s *Store) CVs() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCV()
}

// AddJob validates and appends a job, assigning a JobID when the record
// carries none. Duplicate (title, project, location) triples are
// rejected with ErrDuplicateJob and leave the table untouched.
func (s *Store) AddJob(rec models.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.readMaster()
	for _, row := range rows {
		if row[models.ColJobTitle] == rec[models.ColJobTitle] &&
			row[models.ColProjectName] == rec[models.ColProjectName] &&
			row[models.ColJobLocation] == rec[models.ColJobLocation] {
			return "", ErrDuplicateJob
		}
	}

	rec = rec.Clone()
	if rec[models.ColJobID] == "" {
		rec[models.ColJobID] = nextID(rows, models.ColJobID, "JOB", s.now())
	}
	if _, ok := rec[models.ColPositionCreated]; !ok {
		rec[models.ColPositionCreated] = s.now().Format(dateLayout)
	}
	if rec[models.ColJobStatus] == "" {
		rec[models.ColJobStatus] = models.JobStatusOpen
	}

	rows = append(rows, rec)
	if err := saveTable(s.masterPath, masterSheet, models.MasterColumns, rows); err != nil {
		return "", fmt.Errorf("failed to save master tracker: %w", err)
	}
	return rec[models.ColJobID], nil
}

// AddCV validates and appends a CV record. The referenced JobID must
// exist in the Master Tracker; Position, Hiring Manager and Project are
// snapshotted from the job when the record does not carry them.
func (s *Store) AddCV(rec models.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.readCV()

	var job models.Record
	if rec[models.ColJobID] != "" {
		for _, j := range s.readMaster() {
			if j[models.ColJobID] == rec[models.ColJobID] {
				job = j
				break
			}
		}
	}
	if job == nil {
		return "", ErrInvalidJobID
	}

	rec = rec.Clone()
	if rec[models.ColCVID] == "" {
		rec[models.ColCVID] = nextID(rows, models.ColCVID, "CV", s.now())
	}
	if rec[models.ColPosition] == "" {
		rec[models.ColPosition] = job[models.ColJobTitle]
	}
	if rec[models.ColHiringManager] == "" {
		rec[models.ColHiringManager] = job[models.ColJobHM]
	}
	if rec[models.ColProject] == "" {
		rec[models.ColProject] = job[models.ColProjectName]
	}
	rec[models.ColLastModified] = s.now().Format(timestampLayout)

	rows = append(rows, rec)
	if err := saveTable(s.cvPath, cvSheet, models.CVColumns, rows); err != nil {
		return "", fmt.Errorf("failed to save CV tracker: %w", err)
	}
	return rec[models.ColCVID], nil
}

// UpdateJob merges the partial fields into the job with the given ID.
func (s *Store) UpdateJob(jobID string, updates models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateJobLocked(jobID, updates)
}

func (s *Store) updateJobLocked(jobID string, updates models.Record) error {
	rows := s.readMaster()
	found := false
	for _, row := range rows {
		if row[models.ColJobID] == jobID {
			for k, v := range updates {
				row[k] = v
			}
			found = true
		}
	}
	if !found {
		return ErrJobNotFound
	}
	if err := saveTable(s.masterPath, masterSheet, models.MasterColumns, rows); err != nil {
		return fmt.Errorf("failed to save master tracker: %w", err)
	}
	return nil
}

// UpdateCV merges the partial fields into the CV record with the given
// ID and stamps Last Modified. When the update sets Application Status
// to Hired, the parent job is marked Filled before the call returns.
func (s *Store) UpdateCV(cvID string, updates models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.readCV()
	var target models.Record
	for _, row := range rows {
		if row[models.ColCVID] == cvID {
			for k, v := range updates {
				row[k] = v
			}
			row[models.ColLastModified] = s.now().Format(timestampLayout)
			target = row
		}
	}
	if target == nil {
		return ErrCVNotFound
	}
	if err := saveTable(s.cvPath, cvSheet, models.CVColumns, rows); err != nil {
		return fmt.Errorf("failed to save CV tracker: %w", err)
	}

	if updates[models.ColAppStatus] == models.CVStatusHired {
		jobID := target[models.ColJobID]
		if err := s.updateJobLocked(jobID, models.Record{models.ColJobStatus: models.JobStatusFilled}); err != nil {
			s.log.Warn("tracker.hired_propagation_failed", "cv_id", cvID, "job_id", jobID, "error", err)
		}
	}
	return nil
}

// SearchJobs filters jobs by case-insensitive substring match. Criteria
// are conjunctive; keys that are not Master Tracker columns are ignored.
func (s *Store) SearchJobs(criteria map[string]string) []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterRows(s.readMaster(), criteria, models.MasterColumns)
}

// SearchCVs filters CV records the same way SearchJobs filters jobs.
func (s *Store) SearchCVs(criteria map[string]string) []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterRows(s.readCV(), criteria, models.CVColumns)
}

// readMaster and readCV degrade to an empty table when the workbook is
// unreadable; I/O faults never leave the store as raw errors on reads.
func (s *Store) readMaster() []models.Record {
	rows, err := readTable(s.masterPath, masterSheet)
	if err != nil {
		s.log.Warn("tracker.read_failed", "path", s.masterPath, "error", err)
		return nil
	}
	return rows
}

func (s *Store) readCV() []models.Record {
	rows, err := readTable(s.cvPath, cvSheet)
	if err != nil {
		s.log.Warn("tracker.read_failed", "path", s.cvPath, "error", err)
		return nil
	}
	return rows
}

func filterRows(rows []models.Record, criteria map[string]string, columns []string) []models.Record {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}

	out := rows
	for key, value := range criteria {
		if !known[key] || value == "" {
			continue
		}
		needle := strings.ToLower(value)
		var kept []models.Record
		for _, row := range out {
			if strings.Contains(strings.ToLower(row[key]), needle) {
				kept = append(kept, row)
			}
		}
		out = kept
	}
	return out
}

// nextID produces {PREFIX}-{YYMMDD}-{NNN}: one past the highest numeric
// suffix among the day's existing IDs in this table.
func nextID(rows []models.Record, idColumn, prefix string, now time.Time) string {
	dayPrefix := fmt.Sprintf("%s-%s-", prefix, now.Format(idDateLayout))
	max := 0
	for _, row := range rows {
		id := row[idColumn]
		if !strings.HasPrefix(id, dayPrefix) {
			continue
		}
		if n, err := strconv.Atoi(id[len(dayPrefix):]); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", dayPrefix, max+1)
}

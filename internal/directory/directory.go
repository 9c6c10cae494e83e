// Package directory keeps the relational side of the tracker: hiring
// managers, projects, candidates, locations and system configuration.
package directory

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anigil002/trackerupdates/internal/models"
	"github.com/anigil002/trackerupdates/internal/secrets"
)

// ErrDuplicate marks inserts that violate a uniqueness rule.
var ErrDuplicate = errors.New("record already exists")

const schema = `
CREATE TABLE IF NOT EXISTS hiring_managers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS locations (
	id TEXT PRIMARY KEY,
	country_name TEXT UNIQUE NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS candidates (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	mobile TEXT,
	current_location_id TEXT,
	nationality TEXT,
	notice_period TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (current_location_id) REFERENCES locations(id)
);
CREATE TABLE IF NOT EXISTS system_config (
	key TEXT PRIMARY KEY,
	value TEXT,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// Store wraps the sqlite database holding directory entities.
type Store struct {
	db  *sql.DB
	box *secrets.Box
	now func() time.Time
}

// Open opens (and if needed initializes) the directory database. The
// secrets box is used for config values stored encrypted.
func Open(path string, box *secrets.Box) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize directory schema: %w", err)
	}
	return &Store{db: db, box: box, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// GenerateID produces {PREFIX}-{YYMMDD}-{NNNN}. The sequence is one
// more than the count of today's IDs across every directory table, so
// two records of different kinds created the same day get strictly
// increasing suffixes.
func (s *Store) GenerateID(prefix string) (string, error) {
	datePart := s.now().Format("060102")
	pattern := "%-" + datePart + "-%"

	const q = `SELECT
		(SELECT COUNT(*) FROM hiring_managers WHERE id LIKE ?) +
		(SELECT COUNT(*) FROM projects WHERE id LIKE ?) +
		(SELECT COUNT(*) FROM locations WHERE id LIKE ?) +
		(SELECT COUNT(*) FROM candidates WHERE id LIKE ?)`

	var count int
	if err := s.db.QueryRow(q, pattern, pattern, pattern, pattern).Scan(&count); err != nil {
		return "", fmt.Errorf("failed to count existing IDs: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, datePart, count+1), nil
}

// AddHiringManager inserts a hiring manager; duplicate emails are
// rejected with ErrDuplicate.
func (s *Store) AddHiringManager(name, email string) (string, error) {
	id, err := s.GenerateID("HM")
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		"INSERT INTO hiring_managers (id, name, email) VALUES (?, ?, ?)",
		id, name, email,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("failed to insert hiring manager: %w", err)
	}
	return id, nil
}

// HiringManagers lists hiring managers ordered by name.
func (s *Store) HiringManagers() ([]models.HiringManager, error) {
	rows, err := s.db.Query("SELECT id, name, email FROM hiring_managers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query hiring managers: %w", err)
	}
	defer rows.Close()

	var out []models.HiringManager
	for rows.Next() {
		var hm models.HiringManager
		if err := rows.Scan(&hm.ID, &hm.Name, &hm.Email); err != nil {
			return nil, err
		}
		out = append(out, hm)
	}
	return out, rows.Err()
}

// AddProject inserts a project; duplicate names are rejected with
// ErrDuplicate.
func (s *Store) AddProject(name string) (string, error) {
	id, err := s.GenerateID("PROJ")
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec("INSERT INTO projects (id, name) VALUES (?, ?)", id, name)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("failed to insert project: %w", err)
	}
	return id, nil
}

// Projects lists projects ordered by name.
func (s *Store) Projects() ([]models.Project, error) {
	rows, err := s.db.Query("SELECT id, name FROM projects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddCandidate inserts a candidate, creating its location on first use.
func (s *Store) AddCandidate(c models.Candidate) (string, error) {
	id, err := s.GenerateID("CAND")
	if err != nil {
		return "", err
	}

	var locationID sql.NullString
	if c.CurrentLocation != "" {
		locID, err := s.locationID(c.CurrentLocation)
		if err != nil {
			return "", err
		}
		locationID = sql.NullString{String: locID, Valid: true}
	}

	_, err = s.db.Exec(
		`INSERT INTO candidates (id, name, email, mobile, current_location_id, nationality, notice_period)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, c.Name, c.Email, c.Mobile, locationID, c.Nationality, c.NoticePeriod,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert candidate: %w", err)
	}
	return id, nil
}

func (s *Store) locationID(country string) (string, error) {
	var id string
	err := s.db.QueryRow("SELECT id FROM locations WHERE country_name = ?", country).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		id, err = s.GenerateID("LOC")
		if err != nil {
			return "", err
		}
		if _, err := s.db.Exec("INSERT INTO locations (id, country_name) VALUES (?, ?)", id, country); err != nil {
			return "", fmt.Errorf("failed to insert location: %w", err)
		}
		return id, nil
	default:
		return "", fmt.Errorf("failed to look up location: %w", err)
	}
}

const candidateSelect = `
	SELECT c.id, c.name, COALESCE(c.email, ''), COALESCE(c.mobile, ''),
		COALESCE(l.country_name, ''), COALESCE(c.nationality, ''), COALESCE(c.notice_period, '')
	FROM candidates c
	LEFT JOIN locations l ON c.current_location_id = l.id`

// Candidates lists candidates ordered by name.
func (s *Store) Candidates() ([]models.Candidate, error) {
	return s.queryCandidates(candidateSelect+" ORDER BY c.name", nil)
}

// SearchCandidates filters candidates by substring on name, location
// and nationality. Empty criteria values are ignored.
func (s *Store) SearchCandidates(criteria map[string]string) ([]models.Candidate, error) {
	q := candidateSelect + " WHERE 1=1"
	var args []any
	if v := criteria["name"]; v != "" {
		q += " AND c.name LIKE ?"
		args = append(args, "%"+v+"%")
	}
	if v := criteria["location"]; v != "" {
		q += " AND l.country_name LIKE ?"
		args = append(args, "%"+v+"%")
	}
	if v := criteria["nationality"]; v != "" {
		q += " AND c.nationality LIKE ?"
		args = append(args, "%"+v+"%")
	}
	q += " ORDER BY c.name"
	return s.queryCandidates(q, args)
}

func (s *Store) queryCandidates(q string, args []any) ([]models.Candidate, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Mobile, &c.CurrentLocation, &c.Nationality, &c.NoticePeriod); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Locations lists known locations ordered by country name.
func (s *Store) Locations() ([]models.Location, error) {
	rows, err := s.db.Query("SELECT id, country_name FROM locations ORDER BY country_name")
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var out []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Country); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SetConfig stores a configuration value, encrypting it at rest when
// asked to.
func (s *Store) SetConfig(key, value string, encrypt bool) error {
	if encrypt {
		sealed, err := s.box.Encrypt(value)
		if err != nil {
			return err
		}
		value = sealed
	}
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO system_config (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to store config %s: %w", key, err)
	}
	return nil
}

// GetConfig reads a configuration value; an unset key yields "".
func (s *Store) GetConfig(key string, decrypt bool) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM system_config WHERE key = ?", key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to read config %s: %w", key, err)
	}
	if decrypt && value != "" {
		return s.box.Decrypt(value)
	}
	return value, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

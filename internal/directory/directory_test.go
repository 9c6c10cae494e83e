package directory

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/anigil002/trackerupdates/internal/models"
	"github.com/anigil002/trackerupdates/internal/secrets"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	box, err := secrets.Open(filepath.Join(dir, ".encryption_key"))
	if err != nil {
		t.Fatalf("secrets.Open() failed: %v", err)
	}
	s, err := Open(filepath.Join(dir, "directory.db"), box)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestGenerateID_IncreasesAcrossKinds tests that records of different
// kinds created the same day share one increasing sequence.
func TestGenerateID_IncreasesAcrossKinds(t *testing.T) {
	s := newTestStore(t)

	hmID, err := s.AddHiringManager("Sara Khan", "sara@example.com")
	if err != nil {
		t.Fatalf("AddHiringManager() failed: %v", err)
	}
	projID, err := s.AddProject("Metro Extension")
	if err != nil {
		t.Fatalf("AddProject() failed: %v", err)
	}

	suffix := func(id string) int {
		parts := strings.Split(id, "-")
		if len(parts) != 3 {
			t.Fatalf("ID %q does not match PREFIX-YYMMDD-NNNN", id)
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			t.Fatalf("ID %q has non-numeric suffix", id)
		}
		return n
	}

	if !strings.HasPrefix(hmID, "HM-") {
		t.Errorf("hiring manager ID = %q, want HM- prefix", hmID)
	}
	if !strings.HasPrefix(projID, "PROJ-") {
		t.Errorf("project ID = %q, want PROJ- prefix", projID)
	}
	if suffix(projID) <= suffix(hmID) {
		t.Errorf("suffixes not increasing across kinds: %q then %q", hmID, projID)
	}
}

// TestAddHiringManager_DuplicateEmail tests uniqueness on email.
func TestAddHiringManager_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddHiringManager("Sara Khan", "sara@example.com"); err != nil {
		t.Fatalf("AddHiringManager() failed: %v", err)
	}
	_, err := s.AddHiringManager("Sara K.", "sara@example.com")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("AddHiringManager() duplicate error = %v, want ErrDuplicate", err)
	}

	hms, err := s.HiringManagers()
	if err != nil {
		t.Fatalf("HiringManagers() failed: %v", err)
	}
	if len(hms) != 1 {
		t.Errorf("hiring manager count = %d, want 1", len(hms))
	}
}

// TestAddCandidate_CreatesLocationOnFirstUse tests location reuse.
func TestAddCandidate_CreatesLocationOnFirstUse(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"Jane Doe", "John Roe"} {
		_, err := s.AddCandidate(models.Candidate{
			Name:            name,
			CurrentLocation: "UAE",
			Nationality:     "British",
		})
		if err != nil {
			t.Fatalf("AddCandidate(%q) failed: %v", name, err)
		}
	}

	locs, err := s.Locations()
	if err != nil {
		t.Fatalf("Locations() failed: %v", err)
	}
	if len(locs) != 1 {
		t.Fatalf("location count = %d, want 1 (reused)", len(locs))
	}
	if locs[0].Country != "UAE" {
		t.Errorf("location = %q, want UAE", locs[0].Country)
	}

	got, err := s.SearchCandidates(map[string]string{"location": "UA"})
	if err != nil {
		t.Fatalf("SearchCandidates() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("SearchCandidates(location=UA) = %d rows, want 2", len(got))
	}
}

// TestConfig_EncryptedRoundTrip tests encrypted config storage.
func TestConfig_EncryptedRoundTrip(t *testing.T) {
	s := newTestStore(t)

	const key = "ai_api_key"
	const value = "AIzaSyB-example-key"

	if err := s.SetConfig(key, value, true); err != nil {
		t.Fatalf("SetConfig() failed: %v", err)
	}

	raw, err := s.GetConfig(key, false)
	if err != nil {
		t.Fatalf("GetConfig(raw) failed: %v", err)
	}
	if raw == value {
		t.Errorf("config stored in plaintext")
	}

	got, err := s.GetConfig(key, true)
	if err != nil {
		t.Fatalf("GetConfig(decrypt) failed: %v", err)
	}
	if got != value {
		t.Errorf("GetConfig() = %q, want %q", got, value)
	}

	missing, err := s.GetConfig("unset_key", true)
	if err != nil {
		t.Fatalf("GetConfig(unset) failed: %v", err)
	}
	if missing != "" {
		t.Errorf("GetConfig(unset) = %q, want empty", missing)
	}
}

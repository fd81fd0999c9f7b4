package thesis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// Store reads and writes thesis files under a root directory. Each company
// gets a subdirectory named by its identifier holding baseline.md,
// full_thesis.md, dated update files, and targets.json.
type Store struct {
	dir    string
	logger arbor.ILogger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger arbor.ILogger) *Store {
	return &Store{dir: dir, logger: logger}
}

func (s *Store) companyPath(identifier, file string) string {
	return filepath.Join(s.dir, identifier, file)
}

func (s *Store) readText(path string) (string, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(raw)), true
}

func (s *Store) writeText(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create thesis dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadBaseline returns the baseline thesis for a company, or false when none
// has been generated yet.
func (s *Store) LoadBaseline(identifier string) (string, bool) {
	return s.readText(s.companyPath(identifier, "baseline.md"))
}

// SaveBaseline persists the baseline thesis.
func (s *Store) SaveBaseline(identifier, content string) error {
	return s.writeText(s.companyPath(identifier, "baseline.md"), content)
}

// LoadFullThesis returns the evolving full thesis, falling back to the
// baseline when no full thesis exists yet.
func (s *Store) LoadFullThesis(identifier string) (string, bool) {
	if text, ok := s.readText(s.companyPath(identifier, "full_thesis.md")); ok {
		return text, true
	}
	return s.LoadBaseline(identifier)
}

// SaveFullThesis persists the full thesis.
func (s *Store) SaveFullThesis(identifier, content string) error {
	return s.writeText(s.companyPath(identifier, "full_thesis.md"), content)
}

// LoadUpdate returns the summary written on the given day, or false when
// none exists.
func (s *Store) LoadUpdate(identifier string, day time.Time) (string, bool) {
	name := fmt.Sprintf("update_%s.md", day.Format("20060102"))
	return s.readText(s.companyPath(identifier, name))
}

// SaveUpdate persists a dated summary for the given day.
func (s *Store) SaveUpdate(identifier, content string, day time.Time) error {
	name := fmt.Sprintf("update_%s.md", day.Format("20060102"))
	return s.writeText(s.companyPath(identifier, name), content)
}

// LoadTargets returns the stored price targets, or nil when missing or
// unparseable.
func (s *Store) LoadTargets(identifier string) *Targets {
	raw, err := os.ReadFile(s.companyPath(identifier, "targets.json"))
	if err != nil {
		return nil
	}
	var targets Targets
	if err := json.Unmarshal(raw, &targets); err != nil {
		s.logger.Error().Err(err).Str("identifier", identifier).Msg("Failed to load targets")
		return nil
	}
	return &targets
}

// SaveTargets persists the price targets.
func (s *Store) SaveTargets(identifier string, targets *Targets) error {
	raw, err := json.MarshalIndent(targets, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal targets: %w", err)
	}
	return s.writeText(s.companyPath(identifier, "targets.json"), string(raw))
}

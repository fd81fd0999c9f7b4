package ipo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
)

// cacheEnvelope wraps a cached IPO list with enough metadata to decide
// whether it can be reused on a later run.
type cacheEnvelope[T any] struct {
	GeneratedAt time.Time `json:"generated_at"`
	RunID       string    `json:"run_id"`
	WindowDays  int       `json:"window_days"`
	Items       []T       `json:"items"`
}

// Cache persists normalized IPO lists as JSON files so repeated runs on the
// same day can skip the model queries. A cached list is reusable only when
// its window matches the requested one and it is non-empty; otherwise the
// caller fetches fresh data.
type Cache[T any] struct {
	path   string
	logger arbor.ILogger
}

// NewRecentCache returns the cache for recently-priced IPO lists.
func NewRecentCache(dataDir string, logger arbor.ILogger) *Cache[RecentIPO] {
	return &Cache[RecentIPO]{path: filepath.Join(dataDir, "recent_ipos.json"), logger: logger}
}

// NewUpcomingCache returns the cache for pipeline IPO lists.
func NewUpcomingCache(dataDir string, logger arbor.ILogger) *Cache[UpcomingIPO] {
	return &Cache[UpcomingIPO]{path: filepath.Join(dataDir, "upcoming_ipos.json"), logger: logger}
}

// Load returns the cached items when the cache exists, parses, matches the
// requested window, and is non-empty. The second return reports usability;
// a missing or stale cache is not an error.
func (c *Cache[T]) Load(windowDays int) ([]T, bool) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}
	var envelope cacheEnvelope[T]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Error().Err(err).Str("path", c.path).Msg("Failed to parse cached JSON")
		return nil, false
	}
	if envelope.WindowDays != windowDays || len(envelope.Items) == 0 {
		return nil, false
	}
	c.logger.Info().Str("path", c.path).Int("count", len(envelope.Items)).Msg("Using cached IPO list")
	return envelope.Items, true
}

// Save writes the items with generation metadata, creating the data
// directory as needed. Empty lists are written too so the envelope records
// the attempt, but Load will not reuse them.
func (c *Cache[T]) Save(windowDays int, items []T) error {
	envelope := cacheEnvelope[T]{
		GeneratedAt: time.Now(),
		RunID:       uuid.New().String(),
		WindowDays:  windowDays,
		Items:       items,
	}
	raw, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache %s: %w", c.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", c.path, err)
	}
	c.logger.Info().Str("path", c.path).Int("count", len(items)).Msg("Wrote IPO list cache")
	return nil
}

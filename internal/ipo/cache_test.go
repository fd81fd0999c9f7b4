package ipo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func sampleRecent() []RecentIPO {
	date := day("2026-08-20")
	return []RecentIPO{
		{
			Name:           "Acme Corp.",
			Ticker:         strPtr("ACME"),
			IPODate:        &date,
			IPOPrice:       floatPtr(22.0),
			Exchange:       strPtr("NYSE"),
			IPOType:        strPtr("operating_company"),
			DateConfidence: strPtr("high"),
			Status:         strPtr("priced"),
			SourceCount:    2,
			SourceQuality:  QualityMultiSource,
			Sources: []Source{
				{Title: "Calendar", URL: "https://example.com/a", Date: "2026-08-20"},
				{Title: "Filing", URL: "https://example.com/b"},
			},
		},
		{
			Name:          "No Ticker Yet LLC",
			SourceCount:   1,
			SourceQuality: QualitySingleSource,
			Sources:       []Source{{Title: "Rumor", URL: "https://example.com/c"}},
		},
	}
}

func TestCache_RoundTripPreservesFields(t *testing.T) {
	dir := t.TempDir()
	cache := NewRecentCache(dir, arbor.NewLogger())
	original := sampleRecent()

	require.NoError(t, cache.Save(90, original))

	loaded, ok := cache.Load(90)
	require.True(t, ok)
	assert.Equal(t, original, loaded)
}

func TestCache_WindowMismatchInvalidates(t *testing.T) {
	dir := t.TempDir()
	cache := NewRecentCache(dir, arbor.NewLogger())
	require.NoError(t, cache.Save(90, sampleRecent()))

	_, ok := cache.Load(30)
	assert.False(t, ok, "a different window must force a refetch")
}

func TestCache_EmptyListNotReused(t *testing.T) {
	dir := t.TempDir()
	cache := NewRecentCache(dir, arbor.NewLogger())
	require.NoError(t, cache.Save(90, nil))

	_, ok := cache.Load(90)
	assert.False(t, ok, "empty cached lists are never reused")
}

func TestCache_MissingFile(t *testing.T) {
	cache := NewRecentCache(t.TempDir(), arbor.NewLogger())

	_, ok := cache.Load(90)
	assert.False(t, ok)
}

func TestCache_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	cache := NewRecentCache(dir, arbor.NewLogger())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recent_ipos.json"), []byte("{not json"), 0o644))

	_, ok := cache.Load(90)
	assert.False(t, ok)
}

func TestCache_UpcomingRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache := NewUpcomingCache(dir, arbor.NewLogger())
	original := []UpcomingIPO{
		{
			Name:            "Stripe Inc.",
			ExpectedDate:    strPtr("Q1 2027"),
			Stage:           strPtr(StageRumored),
			IndicativePrice: floatPtr(40.0),
			EdgarConfirmed:  false,
			EdgarNote:       strPtr(NoteNoEdgar),
			SourceCount:     1,
			SourceQuality:   QualitySingleSource,
			Sources:         []Source{{Title: "News", URL: "https://example.com/s"}},
		},
	}

	require.NoError(t, cache.Save(60, original))

	loaded, ok := cache.Load(60)
	require.True(t, ok)
	assert.Equal(t, original, loaded)
}

package ipo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(arbor.NewLogger())
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func recentItem(overrides map[string]interface{}) map[string]interface{} {
	item := map[string]interface{}{
		"name":            "Acme Corp.",
		"ticker":          "acme",
		"ipo_date":        "2026-08-20",
		"ipo_price":       22.0,
		"exchange":        "NYSE",
		"type":            "operating_company",
		"status":          "priced",
		"date_confidence": "high",
		"sources": []interface{}{
			map[string]interface{}{"title": "Calendar", "url": "https://example.com/a"},
		},
	}
	for k, v := range overrides {
		item[k] = v
	}
	return item
}

func TestNormalizeRecent_BasicFields(t *testing.T) {
	cutoff := day("2026-06-01")
	result := testNormalizer().NormalizeRecent([]map[string]interface{}{recentItem(nil)}, cutoff)

	require.Len(t, result, 1)
	ipo := result[0]
	assert.Equal(t, "Acme Corp.", ipo.Name)
	require.NotNil(t, ipo.Ticker)
	assert.Equal(t, "ACME", *ipo.Ticker, "tickers are uppercased")
	require.NotNil(t, ipo.IPODate)
	assert.Equal(t, day("2026-08-20"), *ipo.IPODate)
	require.NotNil(t, ipo.IPOPrice)
	assert.Equal(t, 22.0, *ipo.IPOPrice)
	assert.Equal(t, 1, ipo.SourceCount)
	assert.Equal(t, QualitySingleSource, ipo.SourceQuality)
}

func TestNormalizeRecent_RejectsSpacsAndEmptyNames(t *testing.T) {
	cutoff := day("2026-06-01")
	items := []map[string]interface{}{
		recentItem(map[string]interface{}{"type": "SPAC", "ticker": "SPC"}),
		recentItem(map[string]interface{}{"name": "  - "}),
		recentItem(map[string]interface{}{"name": "https:// ()"}),
		recentItem(map[string]interface{}{"ticker": "KEEP"}),
	}

	result := testNormalizer().NormalizeRecent(items, cutoff)

	require.Len(t, result, 1)
	assert.Equal(t, "KEEP", *result[0].Ticker)
	assert.NotEqual(t, "spac", *result[0].IPOType)
}

func TestNormalizeRecent_CutoffFiltering(t *testing.T) {
	cutoff := day("2026-06-01")
	items := []map[string]interface{}{
		recentItem(map[string]interface{}{"ticker": "OLD", "ipo_date": "2026-05-31"}),
		recentItem(map[string]interface{}{"ticker": "EDGE", "ipo_date": "2026-06-01"}),
		recentItem(map[string]interface{}{"ticker": "FUZZ", "ipo_date": "sometime in June"}),
	}

	result := testNormalizer().NormalizeRecent(items, cutoff)

	require.Len(t, result, 2)
	assert.Equal(t, "EDGE", *result[0].Ticker, "on-cutoff dates are kept")
	assert.Equal(t, "FUZZ", *result[1].Ticker, "unparseable dates are kept")
	assert.Nil(t, result[1].IPODate)
}

func TestNormalizeRecent_CutoffInWesternZone(t *testing.T) {
	// A local-midnight cutoff west of UTC sits after UTC midnight of the
	// same calendar day; an IPO dated exactly on the cutoff day must still
	// be kept.
	denver := time.FixedZone("UTC-7", -7*3600)
	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, denver)
	items := []map[string]interface{}{
		recentItem(map[string]interface{}{"ticker": "EDGE", "ipo_date": "2026-06-01"}),
		recentItem(map[string]interface{}{"ticker": "OLD", "ipo_date": "2026-05-31"}),
	}

	result := testNormalizer().NormalizeRecent(items, cutoff)

	require.Len(t, result, 1)
	assert.Equal(t, "EDGE", *result[0].Ticker)
}

func TestNormalizeRecent_MarkdownLinkNames(t *testing.T) {
	cutoff := day("2026-06-01")
	items := []map[string]interface{}{
		recentItem(map[string]interface{}{"name": "[Acme Corp.](https://example.com/acme)"}),
	}

	result := testNormalizer().NormalizeRecent(items, cutoff)

	require.Len(t, result, 1)
	assert.Equal(t, "Acme Corp.", result[0].Name)
}

func TestNormalizeRecent_DedupPrefersMoreSources(t *testing.T) {
	cutoff := day("2026-06-01")
	twoSources := []interface{}{
		map[string]interface{}{"title": "A", "url": "https://example.com/a"},
		map[string]interface{}{"title": "B", "url": "https://example.com/b"},
	}
	items := []map[string]interface{}{
		recentItem(map[string]interface{}{"name": "Acme Corp.", "date_confidence": "high"}),
		recentItem(map[string]interface{}{"name": "Acme Corporation", "sources": twoSources, "date_confidence": "low"}),
	}

	result := testNormalizer().NormalizeRecent(items, cutoff)

	require.Len(t, result, 1)
	assert.Equal(t, "Acme Corporation", result[0].Name, "more sources wins regardless of confidence")
	assert.Equal(t, 2, result[0].SourceCount)
	assert.Equal(t, QualityMultiSource, result[0].SourceQuality)
}

func TestNormalizeRecent_DedupTieBreaksOnConfidence(t *testing.T) {
	cutoff := day("2026-06-01")
	items := []map[string]interface{}{
		recentItem(map[string]interface{}{"name": "First Seen", "date_confidence": "low"}),
		recentItem(map[string]interface{}{"name": "Second Seen", "date_confidence": "high"}),
		recentItem(map[string]interface{}{"name": "Third Seen", "date_confidence": "high"}),
	}

	result := testNormalizer().NormalizeRecent(items, cutoff)

	require.Len(t, result, 1)
	assert.Equal(t, "Second Seen", result[0].Name, "higher confidence replaces; full tie keeps earlier")
}

func TestNormalizeRecent_PriceCoercion(t *testing.T) {
	cutoff := day("2026-06-01")
	items := []map[string]interface{}{
		recentItem(map[string]interface{}{"ticker": "STR", "ipo_price": "$18.50"}),
		recentItem(map[string]interface{}{"ticker": "BAD", "ipo_price": "around twenty"}),
		recentItem(map[string]interface{}{"ticker": "NIL", "ipo_price": nil}),
	}

	result := testNormalizer().NormalizeRecent(items, cutoff)

	require.Len(t, result, 3)
	require.NotNil(t, result[0].IPOPrice)
	assert.Equal(t, 18.5, *result[0].IPOPrice)
	assert.Nil(t, result[1].IPOPrice)
	assert.Nil(t, result[2].IPOPrice)
}

func upcomingItem(overrides map[string]interface{}) map[string]interface{} {
	item := map[string]interface{}{
		"name":            "Beta Inc.",
		"ticker":          "beta",
		"expected_date":   "2026-09-10",
		"date_status":     "set",
		"stage":           "pricing_announced",
		"type":            "operating_company",
		"edgar_confirmed": true,
		"sources": []interface{}{
			map[string]interface{}{"title": "Calendar", "url": "https://example.com/b"},
		},
	}
	for k, v := range overrides {
		item[k] = v
	}
	return item
}

func TestNormalizeUpcoming_WeekendDateFlagged(t *testing.T) {
	today := day("2026-09-01")
	items := []map[string]interface{}{
		// 2026-09-05 is a Saturday.
		upcomingItem(map[string]interface{}{"expected_date": "2026-09-05"}),
	}

	result := testNormalizer().NormalizeUpcoming(items, today)

	require.Len(t, result, 1)
	require.NotNil(t, result[0].DateNote)
	assert.Equal(t, NoteWeekendDate, *result[0].DateNote)
}

func TestNormalizeUpcoming_WeekendNoteDoesNotOverride(t *testing.T) {
	today := day("2026-09-01")
	items := []map[string]interface{}{
		upcomingItem(map[string]interface{}{"expected_date": "2026-09-05", "date_note": "Direct listing"}),
	}

	result := testNormalizer().NormalizeUpcoming(items, today)

	require.Len(t, result, 1)
	assert.Equal(t, "Direct listing", *result[0].DateNote)
}

func TestNormalizeUpcoming_PastDatesDropped(t *testing.T) {
	today := day("2026-09-01")
	items := []map[string]interface{}{
		upcomingItem(map[string]interface{}{"ticker": "PAST", "expected_date": "2026-08-28"}),
		upcomingItem(map[string]interface{}{"ticker": "TODAY", "expected_date": "2026-09-01"}),
		upcomingItem(map[string]interface{}{"ticker": "TBD", "expected_date": "TBD"}),
		upcomingItem(map[string]interface{}{"ticker": "QTR", "expected_date": "Q1 2027"}),
	}

	result := testNormalizer().NormalizeUpcoming(items, today)

	require.Len(t, result, 3)
	assert.Equal(t, "TODAY", *result[0].Ticker)
	assert.Equal(t, "TBD", *result[1].Ticker, "free-form dates are kept as-is")
	assert.Equal(t, "Q1 2027", *result[2].ExpectedDate)
}

func TestNormalizeUpcoming_TodayKeptInWesternZone(t *testing.T) {
	// "Today" arrives as a local wall-clock time; the parsed expected date
	// is UTC midnight. Same calendar day must not count as past.
	bogota := time.FixedZone("UTC-5", -5*3600)
	today := time.Date(2026, 9, 1, 8, 0, 0, 0, bogota)
	items := []map[string]interface{}{
		upcomingItem(map[string]interface{}{"ticker": "TODAY", "expected_date": "2026-09-01"}),
		upcomingItem(map[string]interface{}{"ticker": "PAST", "expected_date": "2026-08-31"}),
	}

	result := testNormalizer().NormalizeUpcoming(items, today)

	require.Len(t, result, 1)
	assert.Equal(t, "TODAY", *result[0].Ticker)
}

func TestNormalizeUpcoming_EdgarNoteDefault(t *testing.T) {
	today := day("2026-09-01")
	items := []map[string]interface{}{
		upcomingItem(map[string]interface{}{"ticker": "UNC", "edgar_confirmed": false}),
		upcomingItem(map[string]interface{}{"ticker": "NOTED", "edgar_confirmed": false, "edgar_note": "Foreign filer"}),
		upcomingItem(map[string]interface{}{"ticker": "CONF", "edgar_confirmed": true}),
	}

	result := testNormalizer().NormalizeUpcoming(items, today)

	require.Len(t, result, 3)
	assert.Equal(t, NoteNoEdgar, *result[0].EdgarNote)
	assert.Equal(t, "Foreign filer", *result[1].EdgarNote)
	assert.Nil(t, result[2].EdgarNote)
}

func TestNormalizeUpcoming_DedupByNameWithoutTicker(t *testing.T) {
	today := day("2026-09-01")
	items := []map[string]interface{}{
		upcomingItem(map[string]interface{}{"ticker": "", "name": "Stripe Inc.", "edgar_confirmed": false}),
		upcomingItem(map[string]interface{}{"ticker": "", "name": "stripe inc.", "edgar_confirmed": true}),
	}

	result := testNormalizer().NormalizeUpcoming(items, today)

	require.Len(t, result, 1)
	assert.True(t, result[0].EdgarConfirmed, "EDGAR-confirmed duplicate replaces unconfirmed")
	assert.Nil(t, result[0].Ticker)
}

func TestNormalizeUpcoming_DedupByTicker(t *testing.T) {
	today := day("2026-09-01")
	twoSources := []interface{}{
		map[string]interface{}{"title": "A", "url": "https://example.com/a"},
		map[string]interface{}{"title": "B", "url": "https://example.com/b"},
	}
	items := []map[string]interface{}{
		upcomingItem(map[string]interface{}{"name": "Beta Inc.", "sources": twoSources}),
		upcomingItem(map[string]interface{}{"name": "Beta Incorporated"}),
	}

	result := testNormalizer().NormalizeUpcoming(items, today)

	require.Len(t, result, 1)
	assert.Equal(t, "Beta Inc.", result[0].Name, "earlier entry with more sources survives")
}

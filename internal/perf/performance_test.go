package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipodigest/internal/ipo"
	"github.com/ternarybob/ipodigest/internal/prices"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func timePtr(t time.Time) *time.Time { return &t }

func testCalculator() *Calculator {
	return NewCalculator(arbor.NewLogger())
}

func TestCompute_SinceIPOReturn(t *testing.T) {
	record := ipo.RecentIPO{
		Name:     "Acme Corp.",
		Ticker:   strPtr("ACME"),
		IPODate:  timePtr(day("2026-08-01")),
		IPOPrice: floatPtr(20.0),
	}
	series := prices.Series{
		{Date: day("2026-08-03"), Close: 21.0},
		{Date: day("2026-08-28"), Close: 25.0},
	}

	result := testCalculator().Compute(record, series)

	require.NotNil(t, result.SinceIPO)
	assert.Equal(t, 0.25, *result.SinceIPO, "$20 offer to $25 close is exactly +25%")
	require.NotNil(t, result.CurrentPrice)
	assert.Equal(t, 25.0, *result.CurrentPrice)
}

func TestCompute_BackfillsMissingIPOPrice(t *testing.T) {
	record := ipo.RecentIPO{
		Name:    "Acme Corp.",
		IPODate: timePtr(day("2026-08-01")),
	}
	series := prices.Series{
		{Date: day("2026-07-30"), Close: 99.0}, // pre-IPO bar must not be used
		{Date: day("2026-08-03"), Close: 22.0},
		{Date: day("2026-08-28"), Close: 33.0},
	}

	result := testCalculator().Compute(record, series)

	require.NotNil(t, result.IPOPrice)
	assert.Equal(t, 22.0, *result.IPOPrice)
	require.NotNil(t, result.SinceIPO)
	assert.InDelta(t, 0.5, *result.SinceIPO, 1e-12)
}

func TestCompute_EmptySeries(t *testing.T) {
	record := ipo.RecentIPO{
		Name:     "Acme Corp.",
		IPOPrice: floatPtr(20.0),
	}

	result := testCalculator().Compute(record, nil)

	assert.Nil(t, result.CurrentPrice)
	assert.Nil(t, result.SinceIPO)
	assert.Nil(t, result.Return1W)
	assert.Nil(t, result.Return1M)
	require.NotNil(t, result.IPOPrice, "the offer price carries through untouched")
}

func TestCompute_TrailingReturns(t *testing.T) {
	record := ipo.RecentIPO{Name: "Acme Corp."}
	series := prices.Series{
		{Date: day("2026-07-20"), Close: 10.0},
		{Date: day("2026-08-14"), Close: 16.0},
		{Date: day("2026-08-21"), Close: 20.0},
		{Date: day("2026-08-28"), Close: 22.0},
	}

	result := testCalculator().Compute(record, series)

	require.NotNil(t, result.Return1W)
	assert.InDelta(t, 0.1, *result.Return1W, 1e-12, "20 to 22 over the last week")
	require.NotNil(t, result.Return1M)
	assert.InDelta(t, 1.2, *result.Return1M, 1e-12, "10 to 22 over the last month")
}

func TestCompute_MissingLookbackYieldsNil(t *testing.T) {
	record := ipo.RecentIPO{Name: "Fresh Listing Inc."}
	// Only three days of history; no bar exists 7 days before the end.
	series := prices.Series{
		{Date: day("2026-08-26"), Close: 20.0},
		{Date: day("2026-08-27"), Close: 21.0},
		{Date: day("2026-08-28"), Close: 22.0},
	}

	result := testCalculator().Compute(record, series)

	assert.Nil(t, result.Return1W, "insufficient history must yield absent, not zero")
	assert.Nil(t, result.Return1M)
}

func TestCompute_ZeroPricesGuarded(t *testing.T) {
	record := ipo.RecentIPO{
		Name:     "Zero Corp.",
		IPOPrice: floatPtr(0.0),
	}
	series := prices.Series{
		{Date: day("2026-07-20"), Close: 0.0},
		{Date: day("2026-08-28"), Close: 22.0},
	}

	result := testCalculator().Compute(record, series)

	assert.Nil(t, result.SinceIPO, "zero offer price cannot divide")
	assert.Nil(t, result.Return1M, "zero lookback price cannot divide")
}

package charts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/ipodigest/internal/prices"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func timePtr(t time.Time) *time.Time { return &t }

// dailySeries builds one point per day from start to end inclusive at a
// fixed price.
func dailySeries(start, end string, price float64) prices.Series {
	var s prices.Series
	for d := day(start); !d.After(day(end)); d = d.AddDate(0, 0, 1) {
		s = append(s, prices.Point{Date: d, Close: price})
	}
	return s
}

func TestSelectWindow_ClampsToBenchmarkStart(t *testing.T) {
	stock := dailySeries("2023-01-01", "2024-01-01", 10)
	bench := dailySeries("2023-06-01", "2024-01-01", 100)

	window, err := SelectWindow(stock, bench, 365, nil)

	require.NoError(t, err)
	assert.Equal(t, day("2023-06-01"), window.Start, "window cannot start before the benchmark has data")
	assert.Equal(t, day("2024-01-01"), window.End)
	assert.Equal(t, 214, window.ActualDays)
	assert.Equal(t, "214d", window.Label, "truncated windows are labelled with actual days")
}

func TestSelectWindow_FullWindowKeepsRequestedLabel(t *testing.T) {
	stock := dailySeries("2023-01-01", "2024-01-01", 10)
	bench := dailySeries("2023-01-01", "2024-01-01", 100)

	window, err := SelectWindow(stock, bench, 30, nil)

	require.NoError(t, err)
	assert.Equal(t, day("2023-12-02"), window.Start)
	assert.Equal(t, "30d", window.Label)
	assert.Equal(t, 30, window.ActualDays)
}

func TestSelectWindow_PurchaseDateLabel(t *testing.T) {
	stock := dailySeries("2026-08-10", "2026-08-28", 10)
	bench := dailySeries("2026-01-01", "2026-08-28", 100)
	purchase := timePtr(day("2026-08-10"))

	window, err := SelectWindow(stock, bench, 180, purchase)

	require.NoError(t, err)
	assert.Equal(t, day("2026-08-10"), window.Start)
	assert.Equal(t, "since listing", window.Label)
}

func TestSelectWindow_PurchaseDateBoundsStart(t *testing.T) {
	stock := dailySeries("2026-01-01", "2026-08-28", 10)
	bench := dailySeries("2026-01-01", "2026-08-28", 100)
	purchase := timePtr(day("2026-08-01"))

	window, err := SelectWindow(stock, bench, 180, purchase)

	require.NoError(t, err)
	assert.Equal(t, day("2026-08-01"), window.Start, "purchase date trims pre-listing history")
	assert.Equal(t, "since listing", window.Label)
}

func TestSelectWindow_EndIsLastSharedDate(t *testing.T) {
	stock := dailySeries("2026-06-01", "2026-08-28", 10)
	bench := dailySeries("2026-06-01", "2026-08-14", 100)

	window, err := SelectWindow(stock, bench, 30, nil)

	require.NoError(t, err)
	assert.Equal(t, day("2026-08-14"), window.End)
}

func TestSelectWindow_InsufficientData(t *testing.T) {
	stock := dailySeries("2026-06-01", "2026-08-28", 10)

	_, err := SelectWindow(stock, nil, 30, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = SelectWindow(nil, stock, 30, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	// Disjoint ranges leave the window empty.
	bench := dailySeries("2020-01-01", "2020-02-01", 100)
	_, err = SelectWindow(stock, bench, 30, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestNormalize(t *testing.T) {
	series := prices.Series{
		{Date: day("2026-08-10"), Close: 20.0},
		{Date: day("2026-08-11"), Close: 25.0},
		{Date: day("2026-08-12"), Close: 15.0},
	}

	values := Normalize(series)

	assert.Equal(t, []float64{100, 125, 75}, values)
}

func TestNormalize_ZeroBase(t *testing.T) {
	series := prices.Series{
		{Date: day("2026-08-10"), Close: 0.0},
		{Date: day("2026-08-11"), Close: 25.0},
	}

	assert.Equal(t, []float64{0, 0}, Normalize(series), "zero base flattens instead of dividing by zero")
}

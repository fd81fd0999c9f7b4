package prices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleSeries() Series {
	return Series{
		{Date: day("2026-08-17"), Close: 20.0},
		{Date: day("2026-08-18"), Close: 21.5},
		{Date: day("2026-08-20"), Close: 22.0},
		{Date: day("2026-08-21"), Close: 25.0},
	}
}

func TestSeriesLastAndFirst(t *testing.T) {
	s := sampleSeries()

	first, ok := s.First()
	require.True(t, ok)
	assert.Equal(t, 20.0, first.Close)

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 25.0, last.Close)

	_, ok = Series{}.Last()
	assert.False(t, ok)
}

func TestPriceOnOrAfter(t *testing.T) {
	s := sampleSeries()

	// 2026-08-19 has no bar; the next trading day serves.
	p, ok := s.PriceOnOrAfter(day("2026-08-19"))
	require.True(t, ok)
	assert.Equal(t, 22.0, p.Close)

	p, ok = s.PriceOnOrAfter(day("2026-08-17"))
	require.True(t, ok)
	assert.Equal(t, 20.0, p.Close)

	_, ok = s.PriceOnOrAfter(day("2026-09-01"))
	assert.False(t, ok)
}

func TestPriceOnOrBefore(t *testing.T) {
	s := sampleSeries()

	p, ok := s.PriceOnOrBefore(day("2026-08-19"))
	require.True(t, ok)
	assert.Equal(t, 21.5, p.Close)

	_, ok = s.PriceOnOrBefore(day("2026-08-16"))
	assert.False(t, ok)
}

func TestSeriesSlice(t *testing.T) {
	s := sampleSeries()

	window := s.Slice(day("2026-08-18"), day("2026-08-20"))
	require.Len(t, window, 2)
	assert.Equal(t, 21.5, window[0].Close)
	assert.Equal(t, 22.0, window[1].Close)

	assert.Empty(t, s.Slice(day("2026-09-01"), day("2026-09-10")))
}

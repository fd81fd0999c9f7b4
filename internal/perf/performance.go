// Package perf computes return figures for recently-priced IPOs from their
// daily adjusted close series.
package perf

import (
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipodigest/internal/ipo"
	"github.com/ternarybob/ipodigest/internal/prices"
)

// Performance carries the computed return figures for one IPO. Nil fields
// mean the inputs were missing or unusable, not zero performance.
type Performance struct {
	Name         string
	Ticker       *string
	IPODate      *time.Time
	IPOPrice     *float64
	CurrentPrice *float64
	SinceIPO     *float64
	Return1W     *float64
	Return1M     *float64
}

// Calculator computes IPO performance figures.
type Calculator struct {
	logger arbor.ILogger
}

// NewCalculator creates a calculator with the given logger.
func NewCalculator(logger arbor.ILogger) *Calculator {
	return &Calculator{logger: logger}
}

// Compute derives performance for one IPO. When the record lacks an offer
// price, the first traded close on or after the IPO date backfills it.
// Returns are fractional: 0.25 means up 25 percent.
func (c *Calculator) Compute(record ipo.RecentIPO, series prices.Series) Performance {
	result := Performance{
		Name:    record.Name,
		Ticker:  record.Ticker,
		IPODate: record.IPODate,
	}

	if last, ok := series.Last(); ok {
		current := last.Close
		result.CurrentPrice = &current
	}

	ipoPrice := record.IPOPrice
	if ipoPrice == nil && record.IPODate != nil {
		if p, ok := series.PriceOnOrAfter(*record.IPODate); ok {
			fallback := p.Close
			ipoPrice = &fallback
			c.logger.Info().
				Str("name", record.Name).
				Float64("price", fallback).
				Msg("IPO price missing, using first post-IPO close")
		}
	}
	result.IPOPrice = ipoPrice

	if ipoPrice != nil && *ipoPrice != 0 && result.CurrentPrice != nil {
		since := (*result.CurrentPrice - *ipoPrice) / *ipoPrice
		result.SinceIPO = &since
	}

	result.Return1W = trailingReturn(series, 7)
	result.Return1M = trailingReturn(series, 30)
	return result
}

// trailingReturn computes the return from the last close at or before
// end-days to the final close. Nil when the series is too short to reach
// back that far, or when the start price is zero.
func trailingReturn(series prices.Series, days int) *float64 {
	last, ok := series.Last()
	if !ok {
		return nil
	}
	start, ok := series.PriceOnOrBefore(last.Date.AddDate(0, 0, -days))
	if !ok {
		return nil
	}
	if start.Close == 0 {
		return nil
	}
	r := (last.Close - start.Close) / start.Close
	return &r
}

// Package charts renders the stock-versus-benchmark comparison charts used
// in the digest email. Window selection and tick placement are separated
// from rendering so they can be tested without producing images.
package charts

import (
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/ipodigest/internal/prices"
)

// ErrInsufficientData reports that the selected window leaves one of the
// series empty, so nothing can be charted.
var ErrInsufficientData = errors.New("not enough data to chart")

// Request describes one comparison chart.
type Request struct {
	Symbol       string
	Benchmark    string
	WindowDays   int
	OutputPath   string
	PurchaseDate *time.Time
}

// Window is the resolved charting range with both series sliced to it.
type Window struct {
	Start      time.Time
	End        time.Time
	ActualDays int
	Label      string
	Stock      prices.Series
	Bench      prices.Series
}

// SelectWindow resolves the effective charting range. The end is the last
// date both series cover; the start is the requested lookback clamped to
// where both series (and the purchase date, when known) begin. The label
// reads "since listing" when the purchase date bounds the window, the
// actual day count when data availability does, and the requested day
// count otherwise.
func SelectWindow(stock, bench prices.Series, requestedDays int, purchaseDate *time.Time) (Window, error) {
	stockLast, ok := stock.Last()
	if !ok {
		return Window{}, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	benchLast, ok := bench.Last()
	if !ok {
		return Window{}, fmt.Errorf("%w: empty benchmark series", ErrInsufficientData)
	}
	end := stockLast.Date
	if benchLast.Date.Before(end) {
		end = benchLast.Date
	}

	stockFirst, _ := stock.First()
	benchFirst, _ := bench.First()
	earliest := stockFirst.Date
	if benchFirst.Date.After(earliest) {
		earliest = benchFirst.Date
	}
	if purchaseDate != nil && purchaseDate.After(earliest) {
		earliest = *purchaseDate
	}

	start := end.AddDate(0, 0, -requestedDays)
	if earliest.After(start) {
		start = earliest
	}

	stockSlice := stock.Slice(start, end)
	benchSlice := bench.Slice(start, end)
	if len(stockSlice) == 0 || len(benchSlice) == 0 {
		return Window{}, fmt.Errorf("%w: window %s to %s", ErrInsufficientData,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	actualDays := int(end.Sub(start).Hours() / 24)
	label := fmt.Sprintf("%dd", requestedDays)
	if actualDays < requestedDays {
		if purchaseDate != nil && !purchaseDate.Before(start) {
			label = "since listing"
		} else {
			label = fmt.Sprintf("%dd", actualDays)
		}
	}

	return Window{
		Start:      start,
		End:        end,
		ActualDays: actualDays,
		Label:      label,
		Stock:      stockSlice,
		Bench:      benchSlice,
	}, nil
}

// Normalize rebases a series to 100 at its first point. A zero base yields
// an all-zero curve rather than dividing by zero.
func Normalize(series prices.Series) []float64 {
	values := make([]float64, len(series))
	if len(series) == 0 {
		return values
	}
	base := series[0].Close
	if base == 0 {
		return values
	}
	for i, p := range series {
		values[i] = p.Close / base * 100
	}
	return values
}

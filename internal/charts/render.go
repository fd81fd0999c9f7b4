package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ternarybob/ipodigest/internal/prices"
)

var markerGray = drawing.Color{R: 128, G: 128, B: 128, A: 255}

// Render draws the comparison chart for one IPO and writes it as a PNG to
// the request's output path, creating directories as needed. Both curves
// are rebased to 100 at the window start; a dashed vertical marker flags
// the IPO date when it falls inside the window.
func Render(stock, bench prices.Series, req Request) (string, error) {
	window, err := SelectWindow(stock, bench, req.WindowDays, req.PurchaseDate)
	if err != nil {
		return "", fmt.Errorf("chart %s: %w", req.Symbol, err)
	}

	stockNorm := Normalize(window.Stock)
	benchNorm := Normalize(window.Bench)

	var axisTicks []chart.Tick
	for _, tick := range TickPolicy(window) {
		axisTicks = append(axisTicks, chart.Tick{
			Value: chart.TimeToFloat64(tick.Date),
			Label: tick.Label,
		})
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    req.Symbol,
			XValues: seriesDates(window.Stock),
			YValues: stockNorm,
			Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2},
		},
		chart.TimeSeries{
			Name:    req.Benchmark,
			XValues: seriesDates(window.Bench),
			YValues: benchNorm,
			Style:   chart.Style{StrokeColor: chart.ColorOrange, StrokeWidth: 2},
		},
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s vs %s (%s)", req.Symbol, req.Benchmark, window.Label),
		Width:  900,
		Height: 450,
		XAxis: chart.XAxis{
			Ticks: axisTicks,
		},
		YAxis: chart.YAxis{
			Name: "Index (100=Start)",
		},
		Series: series,
	}

	if req.PurchaseDate != nil && !req.PurchaseDate.Before(window.Start) && !req.PurchaseDate.After(window.End) {
		markerValue := chart.TimeToFloat64(*req.PurchaseDate)
		graph.XAxis.GridLines = []chart.GridLine{{Value: markerValue}}
		graph.XAxis.GridMajorStyle = chart.Style{
			StrokeColor:     markerGray,
			StrokeWidth:     1,
			StrokeDashArray: []float64{4, 4},
		}
		graph.Series = append(graph.Series, chart.AnnotationSeries{
			Annotations: []chart.Value2{{
				XValue: markerValue,
				YValue: valueAt(window.Stock, stockNorm, *req.PurchaseDate),
				Label:  "IPO",
			}},
			Style: chart.Style{StrokeColor: markerGray, FontColor: markerGray},
		})
	}

	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	out, err := os.Create(req.OutputPath)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	defer out.Close()

	if err := graph.Render(chart.PNG, out); err != nil {
		return "", fmt.Errorf("render chart %s: %w", req.Symbol, err)
	}
	return req.OutputPath, nil
}

func seriesDates(series prices.Series) []time.Time {
	dates := make([]time.Time, len(series))
	for i, p := range series {
		dates[i] = p.Date
	}
	return dates
}

// valueAt returns the normalized value at the last point on or before the
// given day, defaulting to the window base when the day precedes the data.
func valueAt(series prices.Series, normalized []float64, day time.Time) float64 {
	value := 100.0
	for i, p := range series {
		if p.Date.After(day) {
			break
		}
		value = normalized[i]
	}
	return value
}

// Package report assembles the HTML digest email from IPO rows, executive
// summaries, and chart assets.
package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ternarybob/ipodigest/internal/thesis"
)

// placeholder marks absent values in the tables.
const placeholder = "—"

// ChartAsset is one rendered chart destined for inline embedding. ContentID
// is the MIME Content-ID the HTML references via cid: URLs.
type ChartAsset struct {
	Symbol      string
	WindowLabel string
	FilePath    string
	ContentID   string
}

// RecentRow is one line of the recent IPO table.
type RecentRow struct {
	Name           string
	Ticker         *string
	IPODate        *time.Time
	IPOPrice       *float64
	SinceIPO       *float64
	Return1W       *float64
	Return1M       *float64
	Recommendation string
}

// UpcomingRow is one line of the upcoming IPO table.
type UpcomingRow struct {
	Name            string
	Ticker          *string
	IndicativePrice *float64
	PriceConfidence *string
	ExpectedDate    *string
	DateStatus      *string
	BusinessSummary *string
	Recommendation  string
}

// Identifier returns the row's ticker when present, otherwise its name.
func (r RecentRow) Identifier() string {
	if r.Ticker != nil {
		return *r.Ticker
	}
	return r.Name
}

// Identifier returns the row's ticker when present, otherwise its name.
func (r UpcomingRow) Identifier() string {
	if r.Ticker != nil {
		return *r.Ticker
	}
	return r.Name
}

type chartView struct {
	ContentID string
	Alt       string
	Label     string
}

type cardView struct {
	Header  string
	Charts  []chartView
	Summary template.HTML
}

type recentRowView struct {
	Ticker, Name, IPODate, IPOPrice string
	SinceIPO, Return1W, Return1M    string
	Recommendation                  string
}

type upcomingRowView struct {
	Ticker, Name, IndicativePrice, PriceConfidence string
	ExpectedDate, DateStatus, Business             string
	Recommendation                                 string
}

type emailData struct {
	RecentRows    []recentRowView
	UpcomingRows  []upcomingRowView
	RecentCards   []cardView
	UpcomingCards []cardView
}

var emailTemplate = template.Must(template.New("digest").Parse(digestHTML))

// Build renders the full digest email HTML. Summaries are keyed by row
// identifier; charts attach to recent cards by symbol.
func Build(
	recentRows []RecentRow,
	upcomingRows []UpcomingRow,
	recentSummaries map[string]thesis.Summary,
	upcomingSummaries map[string]thesis.Summary,
	charts []ChartAsset,
) (string, error) {
	chartsBySymbol := make(map[string][]ChartAsset)
	for _, asset := range charts {
		chartsBySymbol[asset.Symbol] = append(chartsBySymbol[asset.Symbol], asset)
	}

	data := emailData{}
	for _, row := range recentRows {
		data.RecentRows = append(data.RecentRows, recentRowView{
			Ticker:         textOr(row.Ticker),
			Name:           row.Name,
			IPODate:        dateOr(row.IPODate),
			IPOPrice:       FormatCurrency(row.IPOPrice),
			SinceIPO:       FormatPct(row.SinceIPO),
			Return1W:       FormatPct(row.Return1W),
			Return1M:       FormatPct(row.Return1M),
			Recommendation: row.Recommendation,
		})
		data.RecentCards = append(data.RecentCards, cardView{
			Header:  cardHeader(row.Name, row.Ticker),
			Charts:  chartViews(chartsBySymbol[row.Identifier()]),
			Summary: summaryHTML(recentSummaries, row.Identifier()),
		})
	}
	for _, row := range upcomingRows {
		data.UpcomingRows = append(data.UpcomingRows, upcomingRowView{
			Ticker:          textOr(row.Ticker),
			Name:            row.Name,
			IndicativePrice: FormatCurrency(row.IndicativePrice),
			PriceConfidence: textOr(row.PriceConfidence),
			ExpectedDate:    textOr(row.ExpectedDate),
			DateStatus:      textOr(row.DateStatus),
			Business:        textOr(row.BusinessSummary),
			Recommendation:  row.Recommendation,
		})
		data.UpcomingCards = append(data.UpcomingCards, cardView{
			Header:  cardHeader(row.Name, row.Ticker),
			Summary: summaryHTML(upcomingSummaries, row.Identifier()),
		})
	}

	var out strings.Builder
	if err := emailTemplate.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return out.String(), nil
}

func summaryHTML(summaries map[string]thesis.Summary, key string) template.HTML {
	text := "No summary available."
	if summary, ok := summaries[key]; ok && summary.Text != "" {
		text = summary.Text
	}
	return MarkdownToHTML(text)
}

func chartViews(assets []ChartAsset) []chartView {
	views := make([]chartView, 0, len(assets))
	for _, asset := range assets {
		views = append(views, chartView{
			ContentID: asset.ContentID,
			Alt:       asset.Symbol + " " + asset.WindowLabel,
			Label:     asset.WindowLabel,
		})
	}
	return views
}

func cardHeader(name string, ticker *string) string {
	if ticker != nil {
		return fmt.Sprintf("%s (%s)", name, *ticker)
	}
	return name
}

// FormatPct renders a fractional return as a percentage, or a dash when
// absent.
func FormatPct(value *float64) string {
	if value == nil {
		return placeholder
	}
	return fmt.Sprintf("%.2f%%", *value*100)
}

// FormatCurrency renders a dollar amount, or a dash when absent.
func FormatCurrency(value *float64) string {
	if value == nil {
		return placeholder
	}
	return fmt.Sprintf("$%.2f", *value)
}

func textOr(value *string) string {
	if value == nil || *value == "" {
		return placeholder
	}
	return *value
}

func dateOr(value *time.Time) string {
	if value == nil {
		return placeholder
	}
	return value.Format("01/02/2006")
}

const digestHTML = `<html>
  <head>
    <style>
      body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #ffffff; color: #111111; }
      h1 { font-size: 20px; margin-bottom: 10px; }
      h2 { font-size: 16px; margin-top: 24px; }
      table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
      th, td { padding: 8px; text-align: left; border-bottom: 1px solid #eeeeee; font-size: 12px; }
      .header-row { background-color: #f5f5f5; font-weight: bold; }
      .card { border: 1px solid #eeeeee; border-radius: 8px; padding: 12px; margin-bottom: 16px; }
      .charts { display: flex; gap: 8px; flex-wrap: wrap; }
      .chart { flex: 1 1 200px; }
      .thesis-content { line-height: 1.6; margin-top: 12px; }
      .thesis-content p { margin: 8px 0; }
      .thesis-content strong { font-weight: bold; color: #222222; }
      .thesis-content em { font-style: italic; }
    </style>
  </head>
  <body>
    <h1>IPO Weekly Update</h1>
    <h2>Recent IPOs</h2>
    <table>
      <thead>
        <tr>
          <th>Ticker</th><th>Name</th><th>IPO Date</th><th>IPO Price</th>
          <th>Since IPO</th><th>1w</th><th>1m</th><th>Recommendation</th>
        </tr>
      </thead>
      <tbody>
        {{range .RecentRows}}<tr>
          <td>{{.Ticker}}</td><td>{{.Name}}</td><td>{{.IPODate}}</td><td>{{.IPOPrice}}</td>
          <td>{{.SinceIPO}}</td><td>{{.Return1W}}</td><td>{{.Return1M}}</td><td>{{.Recommendation}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{range .RecentCards}}<div class="card">
      <h3>{{.Header}}</h3>
      {{if .Charts}}<div class="charts">
        {{range .Charts}}<div class="chart">
          <img src="cid:{{.ContentID}}" alt="{{.Alt}}" width="100%" />
          <div>{{.Label}}</div>
        </div>
        {{end}}
      </div>{{end}}
      <div class="thesis-content">{{.Summary}}</div>
    </div>
    {{end}}
    <h2>Upcoming IPOs</h2>
    <table>
      <thead>
        <tr>
          <th>Ticker</th><th>Name</th><th>Indicative Price</th><th>Price Confidence</th>
          <th>IPO Date</th><th>Date Status</th><th>Business</th><th>Recommendation</th>
        </tr>
      </thead>
      <tbody>
        {{range .UpcomingRows}}<tr>
          <td>{{.Ticker}}</td><td>{{.Name}}</td><td>{{.IndicativePrice}}</td><td>{{.PriceConfidence}}</td>
          <td>{{.ExpectedDate}}</td><td>{{.DateStatus}}</td><td>{{.Business}}</td><td>{{.Recommendation}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{range .UpcomingCards}}<div class="card">
      <h3>{{.Header}}</h3>
      <div class="thesis-content">{{.Summary}}</div>
    </div>
    {{end}}
  </body>
</html>
`

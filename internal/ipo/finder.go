package ipo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipodigest/internal/llm"
)

// Finder discovers recently-priced and pipeline IPOs through web-search
// backed model queries and normalizes the results into domain records.
type Finder struct {
	llm        *llm.Service
	normalizer *Normalizer
	logger     arbor.ILogger
}

// NewFinder creates a finder on top of the given model service.
func NewFinder(service *llm.Service, logger arbor.ILogger) *Finder {
	return &Finder{
		llm:        service,
		normalizer: NewNormalizer(logger),
		logger:     logger,
	}
}

// FetchRecent queries the model for US IPOs that priced within the trailing
// window and returns normalized records. A response that does not contain a
// JSON array yields an empty slice with a warning, not an error.
func (f *Finder) FetchRecent(ctx context.Context, windowDays int) ([]RecentIPO, error) {
	today := time.Now()
	cutoff := today.AddDate(0, 0, -windowDays)
	f.logger.Info().
		Int("window_days", windowDays).
		Str("cutoff", cutoff.Format("2006-01-02")).
		Msg("Fetching recent IPOs")

	prompt := recentPrompt(today, cutoff, windowDays)
	response, err := f.llm.Query(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("recent IPO query: %w", err)
	}

	items, ok := asItemList(llm.ExtractJSONBlock(response.Text))
	if !ok {
		f.logger.Warn().Msg("Recent IPO list parsing failed; expected JSON array")
		return []RecentIPO{}, nil
	}

	ipos := f.normalizer.NormalizeRecent(items, cutoff)
	f.logger.Info().Int("count", len(ipos)).Msg("Parsed recent IPOs from model response")
	return ipos, nil
}

// FetchUpcoming queries the model for the US IPO pipeline over the forward
// window and returns normalized records.
func (f *Finder) FetchUpcoming(ctx context.Context, windowDays int) ([]UpcomingIPO, error) {
	today := time.Now()
	horizon := today.AddDate(0, 0, windowDays)
	f.logger.Info().
		Int("window_days", windowDays).
		Str("horizon", horizon.Format("2006-01-02")).
		Msg("Fetching upcoming IPOs")

	prompt := upcomingPrompt(today, windowDays)
	response, err := f.llm.Query(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("upcoming IPO query: %w", err)
	}

	items, ok := asItemList(llm.ExtractJSONBlock(response.Text))
	if !ok {
		f.logger.Warn().Msg("Upcoming IPO list parsing failed; expected JSON array")
		return []UpcomingIPO{}, nil
	}

	ipos := f.normalizer.NormalizeUpcoming(items, today)
	f.logger.Info().Int("count", len(ipos)).Msg("Parsed upcoming IPOs from model response")
	return ipos, nil
}

// asItemList coerces an extracted payload into a list of object items.
// Non-object array entries are skipped.
func asItemList(payload interface{}) ([]map[string]interface{}, bool) {
	raw, ok := payload.([]interface{})
	if !ok {
		return nil, false
	}
	items := make([]map[string]interface{}, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]interface{}); ok {
			items = append(items, m)
		}
	}
	return items, true
}

func recentPrompt(today, cutoff time.Time, windowDays int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today's date is %s.\n\n", today.Format("2006-01-02"))
	fmt.Fprintf(&b, "You are building a COMPREHENSIVE list of RECENTLY PRICED US IPOs. Find all IPOs that priced or began trading on or after %s and up to %s.\n\n",
		cutoff.Format("2006-01-02"), today.Format("2006-01-02"))
	b.WriteString(`CRITICAL INSTRUCTIONS:
- **Search EACH ranked source below and aggregate all unique IPOs.**
`)
	fmt.Fprintf(&b, "- A comprehensive US IPO list for %d days typically has 15-40 entries. If your list is significantly shorter, search again.\n", windowDays)
	b.WriteString(`- **Only include operating companies.** Exclude SPACs, blank-check companies, shell listings, and unit offerings.
- **Name field must be the clean legal company name only** (no hyperlinks, no extra descriptors).
- Only include companies where the date is verified by sources.
- You MAY include single-source entries, but flag them with date_confidence="low".
- After building the list, do a second completeness pass to ensure no IPOs in the window were missed.

SEARCH THESE SOURCES (ranked):
1) Renaissance Capital - IPO Calendar (renaissancecapital.com)
2) IPO Scoop - IPO Calendar + Recently Priced (iposcoop.com)
3) SEC EDGAR (S-1 / F-1 filings) - for verification
4) Nasdaq IPO listings (nasdaq.com)
5) NYSE IPO Center (nyse.com)
6) Yahoo Finance IPO Calendar
7) StockAnalysis IPO Calendar (stockanalysis.com)
8) MarketWatch IPO Calendar

EXAMPLE ENTRIES:
{"ticker": "MDLN", "name": "Medline Inc.", "ipo_date": "2025-12-17", "ipo_price": 22.0, "exchange": "NYSE", "status": "priced", "date_confidence": "high", "sources": [...]}
{"ticker": "WLTH", "name": "Wealthfront Corp.", "ipo_date": "2025-12-12", "ipo_price": 18.5, "exchange": "Nasdaq", "status": "priced", "date_confidence": "high", "sources": [...]}
{"ticker": "BLLN", "name": "BillionToOne, Inc.", "ipo_date": "2025-11-06", "ipo_price": 15.0, "exchange": "Nasdaq", "status": "priced", "date_confidence": "medium", "sources": [...]}

Return JSON ONLY (no markdown) with this structure:
[
  {
    "ticker": "TICKER",
    "name": "Company Name",
    "ipo_date": "YYYY-MM-DD",
    "ipo_price": 12.0,
    "exchange": "NYSE/Nasdaq/Other",
    "type": "operating_company",
    "status": "priced/started-trading",
    "date_confidence": "high/medium/low",
    "sources": [
      {"title": "...", "url": "...", "date": "YYYY-MM-DD"}
    ]
  }
]

Notes:
- If ticker is unknown, set it to null.
- If IPO price is unclear, set it to null and still include the company.
- If the date is not verified by sources, exclude the company.
- Keep sources minimal but credible.
`)
	return b.String()
}

func upcomingPrompt(today time.Time, windowDays int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today's date is %s.\n\n", today.Format("2006-01-02"))
	fmt.Fprintf(&b, "You are building a COMPREHENSIVE list of the US IPO pipeline. Include ALL companies that:\n1. Have announced pricing dates in the next %d days\n", windowDays)
	b.WriteString(`2. Have active S-1/F-1 filings and could price soon
3. Are in roadshow or have effective registration
4. Are filed and waiting to go effective
5. Are rumored to be going public soon

CRITICAL INSTRUCTIONS:
- **Search EACH ranked source below and aggregate all unique IPO candidates.**
- A comprehensive US IPO pipeline typically has 15-40 entries. If your list is significantly shorter, search again.
- One source is acceptable (this is a rumor mill), but still check EDGAR for confirmation.
- If ticker isn't available, use company name.
- **Name field must be the clean legal company name only** (no hyperlinks, no extra descriptors).
- Single-source entries are acceptable; mark date_confidence accordingly.
- Exclude SPACs, blank-check companies, and shell listings.
- Check EDGAR for a filing; set edgar_confirmed accordingly. If not confirmed, set edgar_note to "No confirmation on EDGAR".
- If no specific date is available, use "TBD" for expected_date and appropriate stage.

SEARCH THESE SOURCES (ranked):
1) Renaissance Capital - IPO Calendar + News (renaissancecapital.com)
2) IPO Scoop - IPO Calendar + IPOs Recently Filed (iposcoop.com)
3) SEC EDGAR (S-1 / F-1 filings) - for confirmation
4) Nasdaq / NYSE IPO pages
5) Yahoo Finance IPO Calendar
6) MarketWatch IPO Calendar

IPO STAGES to include:
- "pricing_announced" - Has a confirmed pricing date
- "roadshow" - Currently in investor roadshow
- "effective" - Registration effective, waiting to price
- "filed" - S-1/F-1 filed, not yet effective
- "rumored" - Reported as planning IPO but not yet filed

EXAMPLE ENTRIES:
{"ticker": "RDDT", "name": "Reddit Inc.", "expected_date": "2026-01-22", "date_status": "set", "stage": "pricing_announced", "edgar_confirmed": true, ...}
{"ticker": null, "name": "Stripe Inc.", "expected_date": "Q1 2026", "date_status": "rumored", "stage": "rumored", "edgar_confirmed": false, "edgar_note": "No confirmation on EDGAR", ...}
{"ticker": "PANW", "name": "Example Corp", "expected_date": "TBD", "date_status": "filed", "stage": "filed", "edgar_confirmed": true, ...}

Return JSON ONLY (no markdown) with this structure:
[
  {
    "ticker": "TICKER or null",
    "name": "Company Name",
    "expected_date": "YYYY-MM-DD or 'Q1 2026' or 'TBD'",
    "date_status": "set/expected/rumored/filed",
    "date_confidence": "high/medium/low",
    "date_note": "short clarification if needed",
    "stage": "pricing_announced/roadshow/effective/filed/rumored",
    "type": "operating_company/other",
    "edgar_confirmed": true/false,
    "edgar_note": "No confirmation on EDGAR if not confirmed",
    "indicative_price": 18.0,
    "price_confidence": "high/medium/low",
    "business_summary": "Few words on what the company does",
    "sources": [
      {"title": "...", "url": "...", "date": "YYYY-MM-DD"}
    ]
  }
]
`)
	return b.String()
}

// Package ipo holds the domain records for recently-priced and upcoming IPOs
// and the normalization pass that builds them from loosely-typed model output.
package ipo

import "time"

// Source quality labels derived from provenance counts.
const (
	QualitySingleSource = "single-source"
	QualityMultiSource  = "multi-source"
)

// Advisory notes attached during normalization.
const (
	NoteWeekendDate = "Weekend date; verify pricing or first trade date"
	NoteNoEdgar     = "No confirmation on EDGAR"
)

// Upcoming IPO stages as reported by the model.
const (
	StagePricingAnnounced = "pricing_announced"
	StageRoadshow         = "roadshow"
	StageEffective        = "effective"
	StageFiled            = "filed"
	StageRumored          = "rumored"
)

// Source is one provenance entry backing an IPO record.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date,omitempty"`
}

// RecentIPO is one IPO that has already priced. Optional fields are pointers;
// absent means the model did not supply a usable value.
type RecentIPO struct {
	Name           string     `json:"name"`
	Ticker         *string    `json:"ticker"`
	IPODate        *time.Time `json:"ipo_date"`
	IPOPrice       *float64   `json:"ipo_price"`
	Exchange       *string    `json:"exchange"`
	IPOType        *string    `json:"ipo_type"`
	DateKind       *string    `json:"date_kind"`
	DateConfidence *string    `json:"date_confidence"`
	Status         *string    `json:"status"`
	DateNote       *string    `json:"date_note"`
	SourceCount    int        `json:"source_count"`
	SourceQuality  string     `json:"source_quality"`
	Sources        []Source   `json:"sources"`
}

// UpcomingIPO is one IPO not yet priced. ExpectedDate stays free-form: it may
// be an ISO date, a quarter label like "Q1 2026", or "TBD".
type UpcomingIPO struct {
	Name            string   `json:"name"`
	Ticker          *string  `json:"ticker"`
	ExpectedDate    *string  `json:"expected_date"`
	DateStatus      *string  `json:"date_status"`
	DateConfidence  *string  `json:"date_confidence"`
	DateNote        *string  `json:"date_note"`
	Stage           *string  `json:"stage"`
	IndicativePrice *float64 `json:"indicative_price"`
	PriceConfidence *string  `json:"price_confidence"`
	BusinessSummary *string  `json:"business_summary"`
	IPOType         *string  `json:"ipo_type"`
	EdgarConfirmed  bool     `json:"edgar_confirmed"`
	EdgarNote       *string  `json:"edgar_note"`
	SourceCount     int      `json:"source_count"`
	SourceQuality   string   `json:"source_quality"`
	Sources         []Source `json:"sources"`
}

// Identifier returns the ticker when present, otherwise the company name.
// Used to key thesis files and report rows.
func (r *RecentIPO) Identifier() string {
	if r.Ticker != nil {
		return *r.Ticker
	}
	return r.Name
}

// Identifier returns the ticker when present, otherwise the company name.
func (u *UpcomingIPO) Identifier() string {
	if u.Ticker != nil {
		return *u.Ticker
	}
	return u.Name
}

// sourceQuality derives the trust label from the provenance count.
func sourceQuality(count int) string {
	if count <= 1 {
		return QualitySingleSource
	}
	return QualityMultiSource
}

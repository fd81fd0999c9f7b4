package ipo

import (
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipodigest/internal/common"
)

// confidenceRank orders date confidence labels for deduplication tie-breaks.
// Unranked labels score zero.
var confidenceRank = map[string]int{
	"high":   3,
	"medium": 2,
	"low":    1,
}

// Normalizer turns loosely-typed model items into validated domain records.
// Items failing mandatory checks are skipped silently; soft issues are logged.
type Normalizer struct {
	logger arbor.ILogger
}

// NewNormalizer creates a normalizer with the given logger.
func NewNormalizer(logger arbor.ILogger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeRecent validates and deduplicates recently-priced IPO items.
// Items are rejected when the name sanitizes to empty, the parsed IPO date
// precedes the cutoff, or the entry is a SPAC. Unparseable dates are kept
// with a nil date. Duplicate tickers resolve to the record with more sources,
// ties broken by higher date confidence.
func (n *Normalizer) NormalizeRecent(items []map[string]interface{}, cutoff time.Time) []RecentIPO {
	var parsed []RecentIPO
	seenTickers := make(map[string]int) // ticker -> index in parsed

	for _, item := range items {
		name := sanitizeName(stringField(item, "name"))
		if name == "" {
			continue
		}
		ipoDate := common.ParseFlexibleDate(stringField(item, "ipo_date"))
		if ipoDate != nil && common.BeforeDay(*ipoDate, cutoff) {
			continue
		}
		ipoType := strings.ToLower(stringField(item, "type"))
		if ipoType == "spac" {
			continue
		}

		sources := parseSources(item["sources"])
		ticker := normalizeTicker(stringField(item, "ticker"))

		record := RecentIPO{
			Name:           name,
			Ticker:         ticker,
			IPODate:        ipoDate,
			IPOPrice:       normalizePrice(item["ipo_price"]),
			Exchange:       optionalString(item, "exchange"),
			IPOType:        optionalValue(ipoType),
			DateKind:       optionalString(item, "date_kind"),
			DateConfidence: optionalString(item, "date_confidence"),
			Status:         optionalString(item, "status"),
			DateNote:       optionalString(item, "date_note"),
			SourceCount:    len(sources),
			SourceQuality:  sourceQuality(len(sources)),
			Sources:        sources,
		}

		if ticker != nil {
			if existingIdx, ok := seenTickers[*ticker]; ok {
				existing := parsed[existingIdx]
				if preferRecent(record, existing) {
					parsed[existingIdx] = record
				}
				continue
			}
			seenTickers[*ticker] = len(parsed)
		}
		parsed = append(parsed, record)
	}
	return parsed
}

// NormalizeUpcoming validates and deduplicates pipeline IPO items. Beyond the
// shared sanitization, entries whose expected date parses to a day before
// today are dropped as stale, weekend dates get an advisory note, and
// unconfirmed EDGAR entries get a default note. Deduplication keys on ticker
// when present, otherwise on the case-folded name.
func (n *Normalizer) NormalizeUpcoming(items []map[string]interface{}, today time.Time) []UpcomingIPO {
	var parsed []UpcomingIPO
	seenTickers := make(map[string]int)
	seenNames := make(map[string]int) // for entries without a ticker

	for _, item := range items {
		name := sanitizeName(stringField(item, "name"))
		if name == "" {
			continue
		}
		ipoType := strings.ToLower(stringField(item, "type"))
		if ipoType == "spac" {
			continue
		}

		expectedDate := optionalString(item, "expected_date")
		dateNote := optionalString(item, "date_note")
		var parsedDate *time.Time
		if expectedDate != nil {
			parsedDate = common.ParseFlexibleDate(*expectedDate)
		}
		if parsedDate != nil {
			// Weekend dates are suspicious for IPO pricing; keep but flag.
			if isWeekend(*parsedDate) && dateNote == nil {
				note := NoteWeekendDate
				dateNote = &note
			}
			if common.BeforeDay(*parsedDate, today) {
				// An "upcoming" IPO with a past date has likely already priced.
				n.logger.Debug().
					Str("name", name).
					Str("expected_date", parsedDate.Format("2006-01-02")).
					Msg("Dropping upcoming IPO with past date")
				continue
			}
		}

		sources := parseSources(item["sources"])
		edgarConfirmed := boolField(item, "edgar_confirmed")
		edgarNote := optionalString(item, "edgar_note")
		if !edgarConfirmed && edgarNote == nil {
			note := NoteNoEdgar
			edgarNote = &note
		}
		ticker := normalizeTicker(stringField(item, "ticker"))

		record := UpcomingIPO{
			Name:            name,
			Ticker:          ticker,
			ExpectedDate:    expectedDate,
			DateStatus:      optionalString(item, "date_status"),
			DateConfidence:  optionalString(item, "date_confidence"),
			DateNote:        dateNote,
			Stage:           optionalValue(strings.ToLower(stringField(item, "stage"))),
			IndicativePrice: normalizePrice(item["indicative_price"]),
			PriceConfidence: optionalString(item, "price_confidence"),
			BusinessSummary: optionalString(item, "business_summary"),
			IPOType:         optionalValue(ipoType),
			EdgarConfirmed:  edgarConfirmed,
			EdgarNote:       edgarNote,
			SourceCount:     len(sources),
			SourceQuality:   sourceQuality(len(sources)),
			Sources:         sources,
		}

		if ticker != nil {
			if existingIdx, ok := seenTickers[*ticker]; ok {
				if preferUpcoming(record, parsed[existingIdx]) {
					parsed[existingIdx] = record
				}
				continue
			}
		}
		nameKey := strings.ToLower(strings.TrimSpace(name))
		if ticker == nil {
			if existingIdx, ok := seenNames[nameKey]; ok {
				if preferUpcoming(record, parsed[existingIdx]) {
					parsed[existingIdx] = record
				}
				continue
			}
		}

		if ticker != nil {
			seenTickers[*ticker] = len(parsed)
		} else {
			seenNames[nameKey] = len(parsed)
		}
		parsed = append(parsed, record)
	}
	return parsed
}

// preferRecent reports whether the candidate should replace the existing
// record: more sources win, ties resolve to higher date confidence. On a
// full tie the earlier-seen record survives.
func preferRecent(candidate, existing RecentIPO) bool {
	if candidate.SourceCount != existing.SourceCount {
		return candidate.SourceCount > existing.SourceCount
	}
	return rankConfidence(candidate.DateConfidence) > rankConfidence(existing.DateConfidence)
}

// preferUpcoming reports whether the candidate should replace the existing
// record: more sources win, otherwise an EDGAR-confirmed candidate beats an
// unconfirmed one. On a full tie the earlier-seen record survives.
func preferUpcoming(candidate, existing UpcomingIPO) bool {
	if candidate.SourceCount > existing.SourceCount {
		return true
	}
	return candidate.EdgarConfirmed && !existing.EdgarConfirmed
}

func rankConfidence(confidence *string) int {
	if confidence == nil {
		return 0
	}
	return confidenceRank[strings.ToLower(*confidence)]
}

// sanitizeName cleans model-supplied company names: markdown link syntax is
// reduced to its text, URL fragments and empty parens are removed, and
// surrounding whitespace/dashes are trimmed.
func sanitizeName(value string) string {
	text := strings.TrimSpace(value)
	if text == "" {
		return ""
	}
	if strings.HasPrefix(text, "[") && strings.Contains(text, "](") && strings.HasSuffix(text, ")") {
		text = strings.SplitN(text, "](", 2)[0]
		text = strings.TrimSpace(strings.TrimLeft(text, "["))
	}
	text = strings.ReplaceAll(text, "http://", "")
	text = strings.ReplaceAll(text, "https://", "")
	text = strings.TrimSpace(strings.ReplaceAll(text, "()", ""))
	return strings.Trim(text, " -\t")
}

// normalizeTicker uppercases and trims a ticker, returning nil when empty.
func normalizeTicker(value string) *string {
	text := strings.ToUpper(strings.TrimSpace(value))
	if text == "" {
		return nil
	}
	return &text
}

// normalizePrice coerces a model-supplied price into a float. String values
// may carry a leading "$"; anything unparseable becomes absent, not a reject.
func normalizePrice(value interface{}) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		text := strings.TrimSpace(strings.ReplaceAll(v, "$", ""))
		if text == "" {
			return nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// parseSources converts the raw sources array into Source entries, keeping
// the model's ordering.
func parseSources(value interface{}) []Source {
	raw, ok := value.([]interface{})
	if !ok {
		return nil
	}
	var sources []Source
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		sources = append(sources, Source{
			Title: stringField(m, "title"),
			URL:   stringField(m, "url"),
			Date:  stringField(m, "date"),
		})
	}
	return sources
}

func stringField(item map[string]interface{}, key string) string {
	if v, ok := item[key].(string); ok {
		return v
	}
	return ""
}

func boolField(item map[string]interface{}, key string) bool {
	v, _ := item[key].(bool)
	return v
}

// optionalString trims a string field, returning nil when empty or missing.
func optionalString(item map[string]interface{}, key string) *string {
	return optionalValue(strings.TrimSpace(stringField(item, key)))
}

func optionalValue(text string) *string {
	if text == "" {
		return nil
	}
	return &text
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

package thesis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipodigest/internal/llm"
	"github.com/ternarybob/ipodigest/internal/perf"
	"github.com/ternarybob/ipodigest/internal/prices"
)

// Summary is one generated executive summary. Updated is false when a
// summary written earlier the same day was reused instead of regenerated.
type Summary struct {
	Identifier string
	Text       string
	Updated    bool
}

// Service generates and caches research theses through the model service.
type Service struct {
	llm          *llm.Service
	store        *Store
	templatePath string
	logger       arbor.ILogger
}

// NewService creates a thesis service. templatePath points at the research
// request template containing the "<Insert Ticker>" placeholder.
func NewService(llmService *llm.Service, store *Store, templatePath string, logger arbor.ILogger) *Service {
	return &Service{
		llm:          llmService,
		store:        store,
		templatePath: templatePath,
		logger:       logger,
	}
}

// Store exposes the underlying file store.
func (s *Service) Store() *Store {
	return s.store
}

// GenerateBaseline produces the deep-dive baseline thesis and price targets
// for a company and persists both. The targets JSON block is stripped from
// the stored thesis text.
func (s *Service) GenerateBaseline(ctx context.Context, identifier string) (string, *Targets, error) {
	s.logger.Info().Str("identifier", identifier).Msg("Generating baseline thesis")

	template, err := s.loadTemplate()
	if err != nil {
		return "", nil, err
	}
	response, err := s.llm.Query(ctx, baselinePrompt(identifier, template))
	if err != nil {
		return "", nil, fmt.Errorf("baseline query for %s: %w", identifier, err)
	}

	targets := ParseTargets(response.Text, s.logger)
	thesisText := strings.TrimSpace(response.Text)
	if targets != nil {
		if jsonStart := strings.Index(response.Text, "{"); jsonStart != -1 {
			thesisText = strings.TrimSpace(response.Text[:jsonStart])
		}
	}
	if thesisText == "" {
		return "", nil, fmt.Errorf("baseline thesis empty for %s", identifier)
	}

	if err := s.store.SaveBaseline(identifier, thesisText); err != nil {
		return "", nil, err
	}
	if err := s.store.SaveFullThesis(identifier, thesisText); err != nil {
		return "", nil, err
	}
	if targets != nil {
		targets.LastUpdated = time.Now().Format("2006-01-02")
		targets.UpdatedBy = "baseline_generation"
		if err := s.store.SaveTargets(identifier, targets); err != nil {
			return "", nil, err
		}
	} else {
		s.logger.Warn().Str("identifier", identifier).Msg("Targets missing; summary may be less actionable")
	}

	s.logger.Info().Str("identifier", identifier).Msg("Baseline generated")
	return thesisText, targets, nil
}

// EnsureBaseline returns the stored baseline and targets, generating them
// first when absent.
func (s *Service) EnsureBaseline(ctx context.Context, identifier string) (string, *Targets, error) {
	if baseline, ok := s.store.LoadBaseline(identifier); ok {
		return baseline, s.store.LoadTargets(identifier), nil
	}
	return s.GenerateBaseline(ctx, identifier)
}

// GenerateRecentSummary produces the executive summary for a recently-priced
// IPO. A summary already written today is reused; a blank model response
// degrades to the baseline text rather than failing the run.
func (s *Service) GenerateRecentSummary(
	ctx context.Context,
	identifier, baseline string,
	targets *Targets,
	performance perf.Performance,
	news []prices.NewsArticle,
) (Summary, error) {
	today := time.Now()
	if existing, ok := s.store.LoadUpdate(identifier, today); ok {
		s.logger.Info().Str("identifier", identifier).Msg("Reusing cached summary")
		return Summary{Identifier: identifier, Text: existing, Updated: false}, nil
	}

	s.logger.Info().Str("identifier", identifier).Msg("Generating recent IPO summary")
	response, err := s.llm.Query(ctx, recentSummaryPrompt(identifier, baseline, targets, performance, news))
	if err != nil {
		return Summary{}, fmt.Errorf("recent summary query for %s: %w", identifier, err)
	}

	summary := strings.TrimSpace(response.Text)
	if summary == "" {
		summary = baseline
	}
	if err := s.store.SaveUpdate(identifier, summary, today); err != nil {
		return Summary{}, err
	}
	s.logger.Info().Str("identifier", identifier).Int("chars", len(summary)).Msg("Recent IPO summary generated")
	return Summary{Identifier: identifier, Text: summary, Updated: true}, nil
}

// GenerateUpcomingSummary produces the executive summary for a pipeline IPO.
func (s *Service) GenerateUpcomingSummary(
	ctx context.Context,
	identifier, baseline string,
	targets *Targets,
	expectedDate *string,
	indicativePrice *float64,
	priceConfidence *string,
) (Summary, error) {
	today := time.Now()
	if existing, ok := s.store.LoadUpdate(identifier, today); ok {
		s.logger.Info().Str("identifier", identifier).Msg("Reusing cached summary")
		return Summary{Identifier: identifier, Text: existing, Updated: false}, nil
	}

	s.logger.Info().Str("identifier", identifier).Msg("Generating upcoming IPO summary")
	response, err := s.llm.Query(ctx, upcomingSummaryPrompt(identifier, baseline, expectedDate, indicativePrice, priceConfidence))
	if err != nil {
		return Summary{}, fmt.Errorf("upcoming summary query for %s: %w", identifier, err)
	}

	summary := strings.TrimSpace(response.Text)
	if summary == "" {
		summary = baseline
	}
	if err := s.store.SaveUpdate(identifier, summary, today); err != nil {
		return Summary{}, err
	}
	s.logger.Info().Str("identifier", identifier).Int("chars", len(summary)).Msg("Upcoming IPO summary generated")
	return Summary{Identifier: identifier, Text: summary, Updated: true}, nil
}

func (s *Service) loadTemplate() (string, error) {
	raw, err := os.ReadFile(s.templatePath)
	if err != nil {
		return "", fmt.Errorf("research template not found: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func baselinePrompt(identifier, template string) string {
	base := strings.ReplaceAll(template, "<Insert Ticker>", identifier)
	return base + `

CRITICAL: You have access to web search. You MUST use it to find current, real information.
Suggested sources (not a limit): SEC filings, Nasdaq/NYSE IPO pages, Renaissance Capital, company IR pages,
Reuters/Bloomberg/FT/WSJ, industry research, and recent earnings/press releases.

Your job: create a deep, structured profile and assess whether this company has 5x upside potential.

After generating the thesis, YOU MUST determine price targets (base/bull/bear) and provide a JSON block:
{
  "base_target": <price target>,
  "bull_target": <bull case target>,
  "bear_target": <bear case target>,
  "target_rationale": {
    "base": "<reason>",
    "bull": "<reason>",
    "bear": "<reason>"
  },
  "key_metrics": [{"metric": "...", "current_value": "...", "target": "..."}],
  "watchlist": [{"event": "...", "expected_date": "...", "importance": "high/medium/low"}],
  "investment_horizon": "<time horizon>",
  "risk_level": "<low/medium/high>"
}

IMPORTANT: cite sources with URLs and publication dates when possible.
`
}

func recentSummaryPrompt(identifier, baseline string, targets *Targets, performance perf.Performance, news []prices.NewsArticle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a several-paragraph executive summary for a RECENT IPO: %s.\n\nCONTEXT:\n", identifier)

	ipoDate := "unknown"
	if performance.IPODate != nil {
		ipoDate = performance.IPODate.Format("2006-01-02")
	}
	fmt.Fprintf(&b, "- IPO Date: %s\n", ipoDate)
	if performance.IPOPrice != nil {
		fmt.Fprintf(&b, "- IPO Price: $%.2f\n", *performance.IPOPrice)
	}
	if performance.CurrentPrice != nil {
		fmt.Fprintf(&b, "- Current Price: $%.2f\n", *performance.CurrentPrice)
	}
	if performance.SinceIPO != nil {
		fmt.Fprintf(&b, "- Performance since IPO: %.2f%%\n", *performance.SinceIPO*100)
	}
	if performance.Return1W != nil || performance.Return1M != nil {
		var parts []string
		if performance.Return1W != nil {
			parts = append(parts, fmt.Sprintf("%.2f%% (1W)", *performance.Return1W*100))
		}
		if performance.Return1M != nil {
			parts = append(parts, fmt.Sprintf("%.2f%% (1M)", *performance.Return1M*100))
		}
		fmt.Fprintf(&b, "- Recent performance: %s\n", strings.Join(parts, ", "))
	}
	if targets != nil {
		fmt.Fprintf(&b, "- Targets: Base $%.2f, Bull $%.2f, Bear $%.2f\n",
			targets.BaseTarget, targets.BullTarget, targets.BearTarget)
	}

	fmt.Fprintf(&b, "- Deep Dive Profile:\n%s\n\n- Recent News:\n", baseline)
	for i, article := range news {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", article.Title, article.Source)
	}

	b.WriteString(`
REQUIREMENTS:
1. Summarize company profile, business model, and IPO thesis (2-3 paragraphs).
2. Discuss post-IPO performance since pricing and the last month/week if available.
3. Provide price targets (base/bull/bear) and rationale in plain language.
4. Make a recommendation using EXACT format: "Decision: STRONG BUY/BUY/PASS".
5. Explicitly evaluate 5x upside potential; if realistic, explain why.
6. Mention an entry/participation price level if relevant.

Tone: professional, concise, actionable. Cite sources if you used web search.`)
	return b.String()
}

func upcomingSummaryPrompt(identifier, baseline string, expectedDate *string, indicativePrice *float64, priceConfidence *string) string {
	date := "unknown"
	if expectedDate != nil {
		date = *expectedDate
	}
	priceLine := "Indicative price: unknown"
	if indicativePrice != nil {
		confidence := "unknown"
		if priceConfidence != nil {
			confidence = *priceConfidence
		}
		priceLine = fmt.Sprintf("Indicative price: $%.2f (confidence: %s)", *indicativePrice, confidence)
	}

	return fmt.Sprintf(`Generate a short executive summary for an UPCOMING IPO: %s.

CONTEXT:
- Expected IPO date: %s
- %s
- Deep Dive Profile:
%s

REQUIREMENTS:
1. Provide a concise business description (few sentences).
2. State what makes this IPO interesting or risky.
3. Provide price targets (base/bull/bear) and rationale.
4. Recommend whether to participate using EXACT format: "Decision: STRONG BUY/BUY/PASS".
5. Explicitly evaluate 5x upside potential; if realistic, explain why.
6. Provide a participation price range if possible, and be clear on confidence.

Tone: professional, concise, actionable. Cite sources if you used web search.`, identifier, date, priceLine, baseline)
}

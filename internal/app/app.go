// Package app wires the digest pipeline: IPO discovery, price history,
// performance, theses, charts, report assembly, and delivery.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipodigest/internal/charts"
	"github.com/ternarybob/ipodigest/internal/common"
	"github.com/ternarybob/ipodigest/internal/ipo"
	"github.com/ternarybob/ipodigest/internal/llm"
	"github.com/ternarybob/ipodigest/internal/mailer"
	"github.com/ternarybob/ipodigest/internal/perf"
	"github.com/ternarybob/ipodigest/internal/prices"
	"github.com/ternarybob/ipodigest/internal/report"
	"github.com/ternarybob/ipodigest/internal/thesis"
)

const fallbackBaseline = "Baseline thesis generation failed."

// chartWindows are the comparison chart variants rendered per recent IPO.
var chartWindows = []struct {
	Days  int
	Label string
}{
	{30, "1M"},
	{180, "6M"},
}

// Options are the per-run flags.
type Options struct {
	Refresh   bool // refetch IPO lists even when a usable cache exists
	NoEmail   bool // generate the local report only
	TestEmail bool // deliver to the test recipient list
}

// App is the assembled digest pipeline.
type App struct {
	config        *common.Config
	logger        arbor.ILogger
	finder        *ipo.Finder
	pricesClient  *prices.Client
	calculator    *perf.Calculator
	thesisService *thesis.Service
	mailerService *mailer.Service
	recentCache   *ipo.Cache[ipo.RecentIPO]
	upcomingCache *ipo.Cache[ipo.UpcomingIPO]
}

// New builds the pipeline from configuration.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	llmService, err := llm.NewService(&config.LLM, logger)
	if err != nil {
		return nil, err
	}

	pricesClient := prices.NewClient(config.Prices.APIKey,
		prices.WithBaseURL(config.Prices.BaseURL),
		prices.WithLogger(logger),
		prices.WithRateLimit(config.Prices.RatePerSec),
	)

	store := thesis.NewStore(config.Report.ThesisDir, logger)

	return &App{
		config:        config,
		logger:        logger,
		finder:        ipo.NewFinder(llmService, logger),
		pricesClient:  pricesClient,
		calculator:    perf.NewCalculator(logger),
		thesisService: thesis.NewService(llmService, store, config.Report.TemplatePath, logger),
		mailerService: mailer.NewService(&config.Email, logger),
		recentCache:   ipo.NewRecentCache(config.Report.DataDir, logger),
		upcomingCache: ipo.NewUpcomingCache(config.Report.DataDir, logger),
	}, nil
}

// Run executes one full digest cycle: discover IPOs, fetch prices, build
// per-company sections, write the report, and deliver it. Per-company
// failures degrade that company's section; only configuration and discovery
// failures abort the run.
func (a *App) Run(ctx context.Context, opts Options) error {
	a.logger.Info().Msg("Starting IPO update report generation")

	recentIPOs, err := a.loadOrFetchRecent(ctx, opts.Refresh)
	if err != nil {
		return err
	}
	upcomingIPOs, err := a.loadOrFetchUpcoming(ctx, opts.Refresh)
	if err != nil {
		return err
	}
	a.logger.Info().Int("count", len(recentIPOs)).Msg("Recent IPOs loaded")
	a.logger.Info().Int("count", len(upcomingIPOs)).Msg("Upcoming IPOs loaded")

	seriesMap, err := a.fetchSeries(ctx, recentIPOs)
	if err != nil {
		return err
	}
	benchSeries := seriesMap[a.config.Report.BenchmarkSymbol]

	recentRows, recentSummaries, chartAssets := a.processRecent(ctx, recentIPOs, seriesMap, benchSeries)
	upcomingRows, upcomingSummaries := a.processUpcoming(ctx, upcomingIPOs)

	html, err := report.Build(recentRows, upcomingRows, recentSummaries, upcomingSummaries, chartAssets)
	if err != nil {
		return err
	}

	reportPath, err := a.writeReport(html)
	if err != nil {
		return err
	}
	a.logger.Info().Str("path", reportPath).Msg("Report saved")

	if opts.NoEmail {
		a.logger.Info().Msg("Email sending suppressed (--no-email flag used)")
	} else {
		recipients := a.config.Email.Recipients(opts.TestEmail)
		a.logger.Info().Int("recipients", len(recipients)).Msg("Sending digest email")
		if err := a.mailerService.SendDigest(recipients, "IPO Weekly Update", html, chartAssets); err != nil {
			return fmt.Errorf("email delivery failed: %w", err)
		}
		a.logger.Info().Msg("Email sent successfully")
	}

	a.logger.Info().Msg("IPO update report generation completed")
	return nil
}

func (a *App) loadOrFetchRecent(ctx context.Context, refresh bool) ([]ipo.RecentIPO, error) {
	windowDays := a.config.Report.RecentWindowDays
	if !refresh {
		if cached, ok := a.recentCache.Load(windowDays); ok {
			return cached, nil
		}
	}

	fetched, err := a.finder.FetchRecent(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("fetch recent IPOs: %w", err)
	}
	if err := a.recentCache.Save(windowDays, fetched); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to write recent IPO cache")
	}
	return fetched, nil
}

func (a *App) loadOrFetchUpcoming(ctx context.Context, refresh bool) ([]ipo.UpcomingIPO, error) {
	windowDays := a.config.Report.UpcomingWindowDays
	if !refresh {
		if cached, ok := a.upcomingCache.Load(windowDays); ok {
			return cached, nil
		}
	}

	fetched, err := a.finder.FetchUpcoming(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("fetch upcoming IPOs: %w", err)
	}
	if err := a.upcomingCache.Save(windowDays, fetched); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to write upcoming IPO cache")
	}
	return fetched, nil
}

// fetchSeries retrieves daily series for every recent IPO ticker plus the
// benchmark in one paced batch.
func (a *App) fetchSeries(ctx context.Context, recentIPOs []ipo.RecentIPO) (map[string]prices.Series, error) {
	tickerSet := make(map[string]bool)
	for _, record := range recentIPOs {
		if record.Ticker != nil {
			tickerSet[*record.Ticker] = true
		}
	}
	tickers := make([]string, 0, len(tickerSet))
	for ticker := range tickerSet {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	symbols := append(tickers, a.config.Report.BenchmarkSymbol)

	seriesMap, err := a.pricesClient.DailyAdjustedBatch(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("price history fetch: %w", err)
	}
	return seriesMap, nil
}

func (a *App) processRecent(
	ctx context.Context,
	recentIPOs []ipo.RecentIPO,
	seriesMap map[string]prices.Series,
	benchSeries prices.Series,
) ([]report.RecentRow, map[string]thesis.Summary, []report.ChartAsset) {
	var rows []report.RecentRow
	var chartAssets []report.ChartAsset
	summaries := make(map[string]thesis.Summary)

	for _, record := range recentIPOs {
		identifier := record.Identifier()
		a.logger.Info().Str("name", record.Name).Str("identifier", identifier).Msg("Processing recent IPO")

		var series prices.Series
		if record.Ticker != nil {
			series = seriesMap[*record.Ticker]
		}
		performance := a.calculator.Compute(record, series)

		baseline, targets := a.ensureBaseline(ctx, identifier)

		var news []prices.NewsArticle
		if record.Ticker != nil {
			fetched, err := a.pricesClient.RecentNews(ctx, *record.Ticker)
			if err != nil {
				a.logger.Warn().Err(err).Str("ticker", *record.Ticker).Msg("News fetch failed")
			} else {
				news = fetched
			}
		}

		summary, err := a.thesisService.GenerateRecentSummary(ctx, identifier, baseline, targets, performance, news)
		if err != nil {
			a.logger.Error().Err(err).Str("identifier", identifier).Msg("Summary generation failed")
			summary = thesis.Summary{Identifier: identifier, Text: baseline, Updated: false}
		}
		summaries[identifier] = summary

		rows = append(rows, report.RecentRow{
			Name:           record.Name,
			Ticker:         record.Ticker,
			IPODate:        record.IPODate,
			IPOPrice:       performance.IPOPrice,
			SinceIPO:       performance.SinceIPO,
			Return1W:       performance.Return1W,
			Return1M:       performance.Return1M,
			Recommendation: report.ExtractRecommendation(summary.Text),
		})

		if record.Ticker != nil && len(series) > 0 && len(benchSeries) > 0 {
			chartAssets = append(chartAssets, a.renderCharts(*record.Ticker, record.IPODate, series, benchSeries)...)
		}
	}
	return rows, summaries, chartAssets
}

func (a *App) renderCharts(ticker string, ipoDate *time.Time, series, benchSeries prices.Series) []report.ChartAsset {
	var assets []report.ChartAsset
	for _, window := range chartWindows {
		outputPath := filepath.Join(a.config.Report.ChartsDir, fmt.Sprintf("%s_%s.png", ticker, window.Label))
		_, err := charts.Render(series, benchSeries, charts.Request{
			Symbol:       ticker,
			Benchmark:    a.config.Report.BenchmarkSymbol,
			WindowDays:   window.Days,
			OutputPath:   outputPath,
			PurchaseDate: ipoDate,
		})
		if err != nil {
			a.logger.Warn().Err(err).Str("ticker", ticker).Str("label", window.Label).Msg("Skipping chart")
			continue
		}
		assets = append(assets, report.ChartAsset{
			Symbol:      ticker,
			WindowLabel: window.Label,
			FilePath:    outputPath,
			ContentID:   fmt.Sprintf("%s-%s", ticker, window.Label),
		})
		a.logger.Info().Str("ticker", ticker).Str("label", window.Label).Msg("Chart generated")
	}
	return assets
}

func (a *App) processUpcoming(ctx context.Context, upcomingIPOs []ipo.UpcomingIPO) ([]report.UpcomingRow, map[string]thesis.Summary) {
	var rows []report.UpcomingRow
	summaries := make(map[string]thesis.Summary)

	for _, record := range upcomingIPOs {
		identifier := record.Identifier()
		a.logger.Info().Str("name", record.Name).Str("identifier", identifier).Msg("Processing upcoming IPO")

		baseline, targets := a.ensureBaseline(ctx, identifier)

		summary, err := a.thesisService.GenerateUpcomingSummary(ctx, identifier, baseline, targets,
			record.ExpectedDate, record.IndicativePrice, record.PriceConfidence)
		if err != nil {
			a.logger.Error().Err(err).Str("identifier", identifier).Msg("Summary generation failed")
			summary = thesis.Summary{Identifier: identifier, Text: baseline, Updated: false}
		}
		summaries[identifier] = summary

		rows = append(rows, report.UpcomingRow{
			Name:            record.Name,
			Ticker:          record.Ticker,
			IndicativePrice: record.IndicativePrice,
			PriceConfidence: record.PriceConfidence,
			ExpectedDate:    record.ExpectedDate,
			DateStatus:      record.DateStatus,
			BusinessSummary: record.BusinessSummary,
			Recommendation:  report.ExtractRecommendation(summary.Text),
		})
	}
	return rows, summaries
}

// ensureBaseline loads or generates the deep-dive thesis, degrading to a
// stub so one failed generation does not drop the company from the report.
func (a *App) ensureBaseline(ctx context.Context, identifier string) (string, *thesis.Targets) {
	baseline, targets, err := a.thesisService.EnsureBaseline(ctx, identifier)
	if err != nil {
		a.logger.Error().Err(err).Str("identifier", identifier).Msg("Baseline generation failed")
		return fallbackBaseline, nil
	}
	return baseline, targets
}

func (a *App) writeReport(html string) (string, error) {
	if err := os.MkdirAll(a.config.Report.ReportsDir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	path := filepath.Join(a.config.Report.ReportsDir, fmt.Sprintf("ipo_update_%s.html", time.Now().Format("20060102")))
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipodigest/internal/app"
	"github.com/ternarybob/ipodigest/internal/common"
)

var (
	configPath     = flag.String("config", "", "Configuration file path")
	refresh        = flag.Bool("refresh", false, "Refresh IPO lists even if cache exists")
	noEmail        = flag.Bool("no-email", false, "Suppress email sending (generate local report only)")
	testEmail      = flag.Bool("test-email", false, "Send report to the test recipient list")
	recentWindow   = flag.Int("recent-window-days", 0, "Recent IPO lookback window (overrides config)")
	upcomingWindow = flag.Int("upcoming-window-days", 0, "Upcoming IPO horizon window (overrides config)")
	schedule       = flag.String("schedule", "", "Cron expression for periodic runs (e.g. \"0 7 * * MON\")")
	showVersion    = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("ipodigest version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover a config file next to the binary when none is given.
	if *configPath == "" {
		if _, err := os.Stat("ipodigest.toml"); err == nil {
			*configPath = "ipodigest.toml"
		}
	}

	config, err := common.LoadConfig(*configPath)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	if *recentWindow > 0 {
		config.Report.RecentWindowDays = *recentWindow
	}
	if *upcomingWindow > 0 {
		config.Report.UpcomingWindowDays = *upcomingWindow
	}

	logger := common.NewLogger(config)
	common.PrintBanner(common.GetVersion())

	if err := config.Validate(!*noEmail, *testEmail); err != nil {
		logger.Fatal().Err(err).Msg("Configuration invalid")
		os.Exit(1)
	}

	digest, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize")
		os.Exit(1)
	}

	opts := app.Options{
		Refresh:   *refresh,
		NoEmail:   *noEmail,
		TestEmail: *testEmail,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *schedule == "" {
		if err := digest.Run(ctx, opts); err != nil {
			logger.Fatal().Err(err).Msg("Run failed")
			os.Exit(1)
		}
		return
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(*schedule, func() {
		if err := digest.Run(ctx, opts); err != nil {
			logger.Error().Err(err).Msg("Scheduled run failed")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Str("schedule", *schedule).Msg("Invalid cron schedule")
		os.Exit(1)
	}

	logger.Info().Str("schedule", *schedule).Msg("Scheduler started")
	scheduler.Start()

	<-ctx.Done()
	logger.Info().Msg("Shutting down scheduler")
	scheduler.Stop()
}

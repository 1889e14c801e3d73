package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edsradar/edsradar/internal/board"
	"github.com/edsradar/edsradar/internal/config"
	"github.com/edsradar/edsradar/internal/feed"
	"github.com/edsradar/edsradar/internal/httpapi"
	"github.com/edsradar/edsradar/internal/ingest"
	"github.com/edsradar/edsradar/internal/logger"
	"github.com/edsradar/edsradar/internal/models"
	"github.com/edsradar/edsradar/internal/storage"
	"github.com/edsradar/edsradar/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(
		cfg.Storage.Driver,
		cfg.Storage.DSN,
		cfg.Storage.MaxAlertRows,
	)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	feedClient := feed.NewClient(
		cfg.Feeds.StationURL,
		cfg.Feeds.CompetitorURL,
		cfg.Feeds.WarURL,
		cfg.Feeds.AlertsURL,
		cfg.Feeds.Timeout,
	)

	dashboard := board.New(cfg.Feeds.DefaultRegion)

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if cfg.Telegram.Enabled && telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	server := httpapi.New(cfg, dashboard, store)
	go func() {
		logger.Info("REST API listening on %s", cfg.ListenAddr())
		if err := server.Run(ctx); err != nil {
			logger.Error("HTTP server stopped: %v", err)
			cancel()
		}
	}()

	logger.Info("Starting refresh service (interval: %v, region: %s)",
		cfg.Feeds.PollInterval,
		cfg.Feeds.DefaultRegion,
	)

	ticker := time.NewTicker(cfg.Feeds.PollInterval)
	defer ticker.Stop()

	consecutiveFailures := 0

	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Refresh cycle failed: %v", err)
			if consecutiveFailures == 1 && cfg.Telegram.Enabled && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		} else {
			if consecutiveFailures > 0 && cfg.Telegram.Enabled && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	logger.Debug("Running initial refresh cycle")
	handleCycleResult(runRefreshCycle(ctx, feedClient, dashboard, store, telegramClient, cfg))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled refresh cycle")
			handleCycleResult(runRefreshCycle(ctx, feedClient, dashboard, store, telegramClient, cfg))
		}
	}
}

// runRefreshCycle pulls all four feeds and installs a fresh snapshot on
// the board. The station feed is the backbone: if it fails, the cycle
// fails. The other feeds degrade to empty collections with a warning so
// one broken endpoint does not blank the whole dashboard.
func runRefreshCycle(
	ctx context.Context,
	feedClient *feed.Client,
	dashboard *board.Board,
	store *storage.Storage,
	telegramClient *telegram.Client,
	cfg *config.Config,
) error {
	startTime := time.Now()
	logger.Info("Starting refresh cycle")

	records, err := feedClient.FetchStations(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch stations: %w", err)
	}
	logger.Info("Fetched %d station records", len(records))

	competitors, err := feedClient.FetchCompetitors(ctx)
	if err != nil {
		logger.Warn("Failed to fetch competitors, keeping empty set: %v", err)
		competitors = nil
	}

	warStations, err := feedClient.FetchWarStations(ctx)
	if err != nil {
		logger.Warn("Failed to fetch war stations, keeping empty set: %v", err)
		warStations = nil
	}

	priceAlerts, err := feedClient.FetchAlerts(ctx)
	if err != nil {
		logger.Warn("Failed to fetch alerts, keeping empty set: %v", err)
		priceAlerts = nil
	}

	corrections, err := store.ListCorrections()
	if err != nil {
		logger.Warn("Failed to load coordinate corrections: %v", err)
		corrections = nil
	}

	stations := ingest.BuildStations(records, corrections)
	logger.Debug("Aggregated %d records into %d stations (%d corrections applied)",
		len(records), len(stations), len(corrections))

	groups := dashboard.Replace(board.Snapshot{
		Records:     records,
		Stations:    stations,
		Competitors: competitors,
		WarStations: warStations,
		Alerts:      priceAlerts,
		FetchedAt:   time.Now(),
	})

	if len(priceAlerts) > 0 {
		if err := store.LogAlerts(priceAlerts); err != nil {
			logger.Warn("Failed to persist alert log: %v", err)
		}
	}

	if len(groups) > 0 {
		totalAlerts := 0
		for _, g := range groups {
			totalAlerts += len(g.Alerts)
		}
		logger.Info("Grouped alerts: %d stations (%d alerts)", len(groups), totalAlerts)

		if cfg.Telegram.Enabled && telegramClient != nil {
			logger.Debug("Sending %d alert groups to Telegram", len(groups))
			if err := telegramClient.Send(groups); err != nil {
				logger.Error("Failed to send Telegram notification: %v", err)
			} else {
				logger.Info("Sent Telegram notification with %d alert groups", len(groups))
			}
		} else {
			logger.Debug("Alerts present but Telegram notifications disabled or client not initialized")
		}
	} else {
		logger.Info("No active alerts this cycle")
	}

	logWarSummary(warStations)

	duration := time.Since(startTime)
	logger.Info("Refresh cycle completed in %v", duration)

	return nil
}

func logWarSummary(warStations []models.MarketWarStation) {
	if len(warStations) == 0 {
		return
	}
	active := 0
	for _, w := range warStations {
		if w.Active && w.WarPrice {
			active++
		}
	}
	logger.Info("Market-war snapshot: %d stations tracked, %d in active price war", len(warStations), active)
}

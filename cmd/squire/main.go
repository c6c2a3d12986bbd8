package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rtpsquire/squire/internal/api"
	"github.com/rtpsquire/squire/internal/archive"
	"github.com/rtpsquire/squire/internal/auth"
	"github.com/rtpsquire/squire/internal/config"
	"github.com/rtpsquire/squire/internal/database"
	"github.com/rtpsquire/squire/internal/exchange"
	"github.com/rtpsquire/squire/internal/jobs"
	"github.com/rtpsquire/squire/internal/notion"
	"github.com/rtpsquire/squire/internal/sheets"
	"github.com/rtpsquire/squire/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (overrides "+config.EnvConfigPath+")")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *configPath != "" {
		os.Setenv(config.EnvConfigPath, *configPath)
	}

	bootLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting squire",
		"version", version.Version,
		"commit", version.Commit,
		"jobs", strings.Join(cfg.Jobs, ","),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("run finished with errors", "error", err)
		os.Exit(1)
	}

	logger.Info("squire finished")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	adapters, err := buildAdapters(cfg, logger)
	if err != nil {
		return err
	}

	svc, err := sheets.NewService(ctx, sheets.Credentials{
		ServiceAccountFile: cfg.Sheets.ServiceAccountFile,
		UserTokenFile:      cfg.Sheets.UserTokenFile,
		UserSecretFile:     cfg.Sheets.UserSecretFile,
	})
	if err != nil {
		return fmt.Errorf("connect sheets: %w", err)
	}
	store := sheets.NewStore(
		sheets.NewGoogleValues(svc, cfg.Sheets.SpreadsheetID),
		sheets.Config{
			OrderBookSheet: cfg.Sheets.OrderBookSheet,
			NewOrdersSheet: cfg.Sheets.NewOrdersSheet,
			Breaker:        cfg.Sheets.Breaker,
			Location:       cfg.Location(),
		},
		logger,
	)

	opts := []jobs.Option{
		jobs.WithLogger(logger),
		jobs.WithLocation(cfg.Location()),
	}

	if cfg.Archive.Enabled() {
		pool, err := database.Connect(ctx, cfg.Archive)
		if err != nil {
			return fmt.Errorf("connect archive: %w", err)
		}
		defer pool.Close()

		sink := archive.New(pool, logger)
		if err := sink.EnsureSchema(ctx); err != nil {
			return err
		}
		logger.Info("archiving orders",
			"host", cfg.Archive.Host,
			"database", cfg.Archive.Name,
			"run_id", sink.RunID(),
		)
		opts = append(opts, jobs.WithSink(sink))
		defer func() {
			stats := sink.Stats()
			logger.Info("archive stats", "orders", stats.Orders, "batches", stats.Batches, "errors", stats.Errors)
		}()
	}

	var selected []jobs.Job
	for _, name := range cfg.Jobs {
		switch name {
		case config.JobOrderBook:
			selected = append(selected, jobs.NewOrderBook(store, adapters, opts...))
		case config.JobNewOrders:
			selected = append(selected, jobs.NewNewOrders(store, adapters, opts...))
		case config.JobJournalOrders:
			client := notion.NewClient(cfg.Notion.BaseURL, cfg.Notion.Token, cfg.Notion.Version, apiOptions(cfg, logger)...)
			docs := notion.NewStore(client, cfg.Notion.JournalDatabaseID, logger)
			selected = append(selected, jobs.NewJournal(docs, store, opts...))
		}
	}

	return jobs.NewRunner(selected, logger).Run(ctx)
}

// buildAdapters creates one adapter per configured account, keyed by account name.
func buildAdapters(cfg *config.Config, logger *slog.Logger) (map[string]exchange.Adapter, error) {
	adapters := make(map[string]exchange.Adapter)
	add := func(name string, a exchange.Adapter) error {
		if _, dup := adapters[name]; dup {
			return fmt.Errorf("duplicate account name %q", name)
		}
		adapters[name] = a
		return nil
	}

	for _, acct := range cfg.Exchanges.Binance {
		creds, err := auth.NewCredentials(acct.Name, acct.APIKey, acct.APISecret)
		if err != nil {
			return nil, fmt.Errorf("binance account %q: %w", acct.Name, err)
		}
		client := api.NewClient("binance", cfg.Exchanges.BinanceURL, apiOptions(cfg, logger)...)
		if err := add(acct.Name, exchange.NewBinance(creds, client, logger)); err != nil {
			return nil, err
		}
	}

	for _, acct := range cfg.Exchanges.Mexc {
		creds, err := auth.NewCredentials(acct.Name, acct.APIKey, acct.APISecret)
		if err != nil {
			return nil, fmt.Errorf("mexc account %q: %w", acct.Name, err)
		}
		spot := api.NewClient("mexc", cfg.Exchanges.MexcSpotURL, apiOptions(cfg, logger)...)
		futures := api.NewClient("mexc-futures", cfg.Exchanges.MexcFuturesURL, apiOptions(cfg, logger)...)
		if err := add(acct.Name, exchange.NewMexc(creds, spot, futures, logger)); err != nil {
			return nil, err
		}
	}

	return adapters, nil
}

func apiOptions(cfg *config.Config, logger *slog.Logger) []api.ClientOption {
	return []api.ClientOption{
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"BrokerageReport/internal/collector"
	"BrokerageReport/internal/config"
	"BrokerageReport/internal/notifier"
	"BrokerageReport/internal/scheduler"
)

var once bool

func main() {
	rootCmd := &cobra.Command{
		Use:           "report-bot",
		Short:         "Daily brokerage report delivered to Telegram",
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Flags().BoolVar(&once, "once", false, "run the report immediately and exit")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(lvl).
		With().Timestamp().Logger()
}

func run(cmd *cobra.Command, _ []string) error {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	logger := newLogger(cfg.Logging.Level)
	logger.Info().Msg("report bot starting")

	db, dialect, err := collector.OpenDB(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	fetcher, err := collector.NewSQLFetcher(db, dialect, cfg.TableSpec(), logger)
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}
	logger.Info().Str("source", fetcher.Name()).Str("table", cfg.Database.Table).Msg("data source ready")
	col := collector.NewCollector(fetcher, logger)

	minDelay, maxDelay := cfg.RetryDelays()
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy,
		notifier.RetryPolicy{Attempts: cfg.Delivery.Retries, MinDelay: minDelay, MaxDelay: maxDelay}, logger)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, col, tn, cfg.Location(), logger)

	if once {
		logger.Info().Msg("running report once")
		return sched.RunOnce(ctx)
	}

	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	logger.Info().Msg("report bot is running, press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, stopping")
	sched.Stop()
	logger.Info().Msg("report bot stopped")
	return nil
}

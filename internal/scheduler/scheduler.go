package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"BrokerageReport/internal/calculator"
	"BrokerageReport/internal/collector"
	"BrokerageReport/internal/model"
	"BrokerageReport/internal/notifier"
)

// Collector produces the report figures for a window.
type Collector interface {
	Collect(ctx context.Context, w model.ReportWindow) (*model.ReportNumbers, error)
}

// Sender delivers a finished message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string) error
}

// Scheduler runs the report pipeline on a daily cron trigger or on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Collector Collector
	Notifier  Sender
	Location  *time.Location
	Ctx       context.Context

	// Now is replaceable in tests.
	Now    func() time.Time
	logger zerolog.Logger
}

// NewScheduler creates a Scheduler whose trigger fires in loc.
// Overlapping firings are skipped rather than queued.
func NewScheduler(ctx context.Context, col Collector, sender Sender, loc *time.Location, logger zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger.With().Str("component", "cron").Logger()}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Collector: col,
		Notifier:  sender,
		Location:  loc,
		Ctx:       ctx,
		Now:       time.Now,
		logger:    logger,
	}
}

// Register installs the daily report task.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	s.logger.Info().Str("cron", dailyCron).Str("timezone", s.Location.String()).Msg("daily report registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the trigger and waits for a running cycle to return.
// Cancel the scheduler's context first to cut short a pending retry pause.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunOnce executes one full cycle immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.RunCycle(ctx)
}

func (s *Scheduler) dailyTask() {
	// Failures are already logged; the next firing starts fresh.
	_ = s.RunCycle(s.Ctx)
}

// RunCycle resolves the window, collects figures, formats and delivers the report.
// A data failure means nothing is sent.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	logger := s.logger.With().Str("cycle", uuid.NewString()).Logger()

	today := s.Now().In(s.Location)
	window := calculator.ResolveWindow(today)
	logger.Info().
		Str("report_date", window.ReportDate.Format("2006-01-02")).
		Str("data_date", window.DataDate.Format("2006-01-02")).
		Msg("running report cycle")

	numbers, err := s.Collector.Collect(ctx, window)
	if err != nil {
		if errors.Is(err, collector.ErrDataAccess) {
			logger.Error().Err(err).Msg("report not sent due to database error")
		} else {
			logger.Error().Err(err).Msg("report not sent, collection failed")
		}
		return fmt.Errorf("collect: %w", err)
	}

	message := notifier.FormatReport(window, numbers)

	if err := s.Notifier.SendWithRetry(ctx, message); err != nil {
		logger.Error().Err(err).Msg("report not sent due to telegram error")
		return fmt.Errorf("deliver: %w", err)
	}
	logger.Info().Msg("report delivered")
	return nil
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/allocgrid/internal/config"
	"github.com/mamadbah2/allocgrid/internal/domain/models"
)

const jobTimeout = 2 * time.Minute

// Reloader refreshes the allocation dataset.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Publisher pushes an export grid to the configured spreadsheet.
type Publisher interface {
	PublishToSheets(ctx context.Context, viewCtx models.ViewContext) (int, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	reloader  Reloader
	publisher Publisher
	logger    *zap.Logger
}

// NewScheduler registers the reload job and, when publisher is set and an export
// schedule is configured, the sheets export job.
func NewScheduler(cfg config.SchedulerConfig, reloader Reloader, publisher Publisher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		reloader:  reloader,
		publisher: publisher,
		logger:    logger,
	}

	if cfg.ReloadSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.ReloadSchedule, s.reload); err != nil {
			return nil, fmt.Errorf("schedule reload %q: %w", cfg.ReloadSchedule, err)
		}
	}
	if cfg.ExportSchedule != "" && publisher != nil {
		if _, err := s.cron.AddFunc(cfg.ExportSchedule, s.publish); err != nil {
			return nil, fmt.Errorf("schedule export %q: %w", cfg.ExportSchedule, err)
		}
	}
	return s, nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.Int("jobs", s.Jobs()))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) reload() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.reloader.Reload(ctx); err != nil {
		s.logger.Error("scheduled reload failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled reload completed")
}

func (s *Scheduler) publish() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	rows, err := s.publisher.PublishToSheets(ctx, models.ContextDetail)
	if err != nil {
		s.logger.Error("scheduled sheets export failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled sheets export completed", zap.Int("rows", rows))
}

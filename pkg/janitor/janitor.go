// Package janitor runs scheduled registry cleanup so long-lived processes
// do not accumulate finished workflows.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vetflow/vetflow/pkg/orchestrator"
)

type Config struct {
	CronExpr string
	MaxAge   time.Duration
}

type Janitor struct {
	manager *orchestrator.Manager
	logger  *slog.Logger
	config  Config
	cron    *cron.Cron
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewJanitor(manager *orchestrator.Manager, logger *slog.Logger, config Config) *Janitor {
	return &Janitor{
		manager: manager,
		logger:  logger.With("module", "janitor"),
		config:  config,
	}
}

func (j *Janitor) Validate() error {
	if j.config.MaxAge <= 0 {
		return errors.New("cleanup max age must be positive")
	}

	if j.config.CronExpr == "" {
		return errors.New("cleanup cron expression is required")
	}

	if _, err := cron.ParseStandard(j.config.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression '%s': %w", j.config.CronExpr, err)
	}

	return nil
}

func (j *Janitor) Start(ctx context.Context) error {
	if err := j.Validate(); err != nil {
		return err
	}

	j.logger.Info("Starting cleanup scheduler", "cron", j.config.CronExpr, "max_age", j.config.MaxAge)
	j.ctx, j.cancel = context.WithCancel(ctx)

	j.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	entryID, err := j.cron.AddFunc(j.config.CronExpr, j.runCleanup)
	if err != nil {
		return fmt.Errorf("failed to add cleanup cron job: %w", err)
	}

	j.entryID = entryID

	j.cron.Start()
	j.logger.Info("Cleanup scheduler started", "entry_id", entryID)

	return nil
}

func (j *Janitor) runCleanup() {
	removed := j.manager.CleanupWorkflows(j.ctx, j.config.MaxAge)
	if removed > 0 {
		j.logger.Info("Scheduled cleanup removed workflows", "removed_count", removed)
	} else {
		j.logger.Debug("Scheduled cleanup found nothing to remove")
	}
}

func (j *Janitor) Stop(ctx context.Context) error {
	j.logger.Info("Stopping cleanup scheduler")

	if j.cancel != nil {
		j.cancel()
	}

	if j.cron != nil {
		stopCtx := j.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
	}

	return nil
}

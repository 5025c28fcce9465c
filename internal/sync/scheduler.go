package sync

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs a full sync on a cron cadence. Overlapping runs are
// skipped, so a slow sync never stacks behind itself.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	logger  *zap.Logger
}

// NewScheduler builds a scheduler around the engine. spec is a standard
// cron expression, e.g. "*/5 * * * *" for every five minutes.
func NewScheduler(engine *Engine, spec string, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}

	id, err := s.cron.AddFunc(spec, func() {
		result, err := engine.FullSync(context.Background())
		if err != nil {
			logger.Error("scheduled sync failed", zap.Error(err))
			return
		}
		logger.Info("scheduled sync finished",
			zap.Int("items", result.ItemsProcessed),
			zap.Int("errors", len(result.Errors)))
	})
	if err != nil {
		return nil, err
	}

	s.entryID = id
	return s, nil
}

// Start begins running syncs on the configured cadence.
func (s *Scheduler) Start() {
	s.logger.Info("starting sync scheduler")
	s.cron.Start()
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("sync scheduler stopped")
}

// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/fi-statement-converter/pkg/storage"
)

// Purger removes stored files older than a cutoff.
type Purger interface {
	Purge(ctx context.Context, ns storage.Namespace, before time.Time) (int, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron       *cron.Cron
	store      Purger
	spec       string
	retention  time.Duration
	namespaces []storage.Namespace
	now        func() time.Time
	onSweep    func(removed int)
	logger     *slog.Logger
}

// NewScheduler creates a scheduler that sweeps uploads and records older
// than retention on the given cron spec.
func NewScheduler(store Purger, spec string, retention time.Duration, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:       c,
		store:      store,
		spec:       spec,
		retention:  retention,
		namespaces: []storage.Namespace{storage.NamespaceUploads, storage.NamespaceRecords},
		now:        time.Now,
		logger:     logger,
	}
}

// OnSweep registers fn to be called with the count of each finished sweep.
func (s *Scheduler) OnSweep(fn func(removed int)) {
	s.onSweep = fn
}

// AddJob schedules an extra housekeeping job. It must be called before Start.
func (s *Scheduler) AddJob(spec, name string, fn func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("running scheduled job", slog.String("job", name))
		fn()
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Start begins scheduled jobs. An empty retention spec disables the sweep.
func (s *Scheduler) Start() error {
	if s.spec != "" {
		if _, err := s.cron.AddFunc(s.spec, func() { s.sweep(context.Background()) }); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("retention_schedule", s.spec),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow runs the retention sweep synchronously and returns the number of
// files removed.
func (s *Scheduler) RunNow(ctx context.Context) int {
	return s.sweep(ctx)
}

func (s *Scheduler) sweep(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	removed := 0
	for _, ns := range s.namespaces {
		n, err := s.store.Purge(ctx, ns, cutoff)
		removed += n
		if err != nil {
			s.logger.Warn("retention sweep failed",
				slog.String("namespace", string(ns)),
				slog.Any("error", err),
			)
		}
	}

	s.logger.Info("retention sweep completed",
		slog.Int("files_removed", removed),
		slog.Time("cutoff", cutoff),
	)
	if s.onSweep != nil {
		s.onSweep(removed)
	}
	return removed
}

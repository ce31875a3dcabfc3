// Package retention sweeps the upload directory for orphaned attachments,
// files no surviving message references. Orphans appear when an upload
// succeeds but the message create fails, or when attachment cleanup after a
// delete errors out.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"noticeboard/pkg/config"
	"noticeboard/pkg/logger"
	"noticeboard/pkg/store"
	"noticeboard/pkg/uploads"
)

const defaultMinAge = time.Hour

// Sweeper removes orphaned attachment files on a cron schedule.
type Sweeper struct {
	cfg     config.RetentionConfig
	store   *store.Store
	uploads *uploads.Store
}

func New(cfg config.RetentionConfig, st *store.Store, up *uploads.Store) *Sweeper {
	return &Sweeper{cfg: cfg, store: st, uploads: up}
}

// Start launches the sweep scheduler if retention is enabled. The returned
// cancel func stops the scheduler.
func (s *Sweeper) Start(ctx context.Context) (context.CancelFunc, error) {
	if !s.cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := s.cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", s.cfg.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", s.cfg.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "min_age", s.minAge().String())
	ctx2, cancel := context.WithCancel(ctx)
	go s.runScheduler(ctx2, cronExpr)
	return cancel, nil
}

// runScheduler computes the next cron tick with gronx and sleeps until it.
func (s *Sweeper) runScheduler(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := s.RunOnce(); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce performs a single sweep: any stored file not referenced by a
// message and older than min_age is removed. The age floor keeps the sweep
// from racing an in-flight create whose message has not committed yet.
func (s *Sweeper) RunOnce() error {
	files, err := s.uploads.List()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	msgs, err := s.store.ListMessages()
	if err != nil {
		return err
	}
	referenced := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		if m.AttachmentRef != "" {
			referenced[m.AttachmentRef] = true
		}
	}

	cutoff := time.Now().Add(-s.minAge())
	removed := 0
	for ref, mtime := range files {
		if referenced[ref] || mtime.After(cutoff) {
			continue
		}
		if err := s.uploads.Delete(ref); err != nil {
			logger.Warn("retention_delete_failed", "ref", ref, "error", err.Error())
			continue
		}
		removed++
	}
	logger.Info("retention_sweep_done", "files", len(files), "removed", removed)
	return nil
}

func (s *Sweeper) minAge() time.Duration {
	if d := s.cfg.MinAge.Duration(); d > 0 {
		return d
	}
	return defaultMinAge
}

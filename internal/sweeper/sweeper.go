// Package sweeper removes enhancement work dirs that a crashed or killed job
// left behind.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/buildwise-ai/buildwise-backend/internal/enhance"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	"github.com/buildwise-ai/buildwise-backend/internal/metrics"
)

const DefaultSchedule = "0 */15 * * * *"

type Sweeper struct {
	dir    string
	maxAge time.Duration
	cron   *cron.Cron
}

func New(dir string, maxAge time.Duration) *Sweeper {
	return &Sweeper{dir: dir, maxAge: maxAge}
}

// Sweep deletes every enhance-* dir under the work dir whose mtime is older
// than maxAge relative to now, and returns how many it removed.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	log := logging.FromContext(ctx)

	matches, err := filepath.Glob(filepath.Join(s.dir, enhance.WorkDirPattern))
	if err != nil {
		return 0, fmt.Errorf("glob work dirs: %w", err)
	}

	var (
		removed int
		errs    []error
	)
	for _, path := range matches {
		info, err := os.Lstat(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !info.IsDir() || now.Sub(info.ModTime()) < s.maxAge {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, err)
			log.Warn("sweep: remove failed", "dir", path, "error", err)
			continue
		}
		removed++
		metrics.SweptWorkDirs.Inc()
	}

	if removed > 0 {
		log.Info("sweep: removed stale work dirs", "count", removed, "root", s.dir)
	}
	return removed, errors.Join(errs...)
}

// Start schedules Sweep on a seconds-resolution cron expression.
func (s *Sweeper) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background(), time.Now()); err != nil {
			logging.FromContext(context.Background()).Warn("sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("sweeper schedule %q: %w", schedule, err)
	}

	s.cron = c
	c.Start()
	logging.FromContext(context.Background()).Info("sweeper started", "schedule", schedule, "dir", s.dir, "max_age", s.maxAge.String())
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Package scheduler holds the cron-job map that drives schedule
// execution. Grounded on the robfig/cron/v3 usage pattern in the wider
// example pack's worker-process cron wiring (cron.New, AddFunc, a
// start/stop lifecycle around a context), adapted from a handful of
// fixed cron.AddFunc calls to a hot-reloadable job map keyed by
// schedule id.
package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/executor"
	"github.com/hassnap/einkscreen/models"
	"github.com/hassnap/einkscreen/schedule"
)

// Scheduler owns the cron engine and the map of active jobs, reloading
// from the store on a fixed interval and allowing manual, out-of-band
// execution of a single schedule.
type Scheduler struct {
	cfg    config.SchedulerConfig
	store  schedule.Store
	exec   *executor.Executor
	logger *slog.Logger

	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]jobEntry

	reloadTimer *time.Timer
	stopped     bool
}

type jobEntry struct {
	entryID cron.EntryID
	cronExp string
}

// New constructs a Scheduler. It creates no directories itself; the
// output directory is created by executor.New.
func New(cfg config.SchedulerConfig, store schedule.Store, exec *executor.Executor, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		store:  store,
		exec:   exec,
		logger: logger,
		cron:   cron.New(cron.WithSeconds()),
		jobs:   make(map[string]jobEntry),
	}
}

// Start performs an immediate reload, starts the underlying cron engine,
// and arms the periodic reload timer.
func (s *Scheduler) Start() {
	s.reload()
	s.cron.Start()
	s.armReload()
}

// Stop halts the reload timer and every cron job, waiting for in-flight
// runs to finish (bounded by the caller's own shutdown timeout).
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.reloadTimer != nil {
		s.reloadTimer.Stop()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
}

func (s *Scheduler) armReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.reloadTimer = time.AfterFunc(s.cfg.ReloadInterval, func() {
		s.reload()
		s.armReload()
	})
}

// reload implements the upsert-prune algorithm: for every schedule,
// disabled means stop-and-remove; enabled means validate, stop the
// prior job if any, and install a fresh closure over the current
// schedule value. Jobs whose schedule no longer exists are removed
// after the loop.
func (s *Scheduler) reload() {
	schedules, err := s.store.List()
	if err != nil {
		s.logger.Error("scheduler: reload failed to list schedules", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active := make(map[string]bool, len(schedules))

	for _, sc := range schedules {
		sc := sc // fresh closure capture
		if !sc.Enabled {
			s.removeJobLocked(sc.ID)
			continue
		}

		active[sc.ID] = true

		// The engine parses with a seconds field; a 5-field expression gets
		// a leading "0" seconds field so both grammars share one parser.
		expr := sc.Cron
		if len(strings.Fields(expr)) == 5 {
			expr = "0 " + expr
		}
		secondsParser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := secondsParser.Parse(expr); err != nil {
			s.logger.Warn("scheduler: invalid cron expression, skipping", "schedule", sc.ID, "cron", sc.Cron, "error", err)
			continue
		}

		s.removeJobLocked(sc.ID)

		id, err := s.cron.AddFunc(expr, func() {
			s.runCron(sc)
		})
		if err != nil {
			s.logger.Warn("scheduler: failed to install cron job", "schedule", sc.ID, "error", err)
			continue
		}
		s.jobs[sc.ID] = jobEntry{entryID: id, cronExp: sc.Cron}
	}

	for id := range s.jobs {
		if !active[id] {
			s.removeJobLocked(id)
		}
	}
}

func (s *Scheduler) removeJobLocked(id string) {
	entry, ok := s.jobs[id]
	if !ok {
		return
	}
	s.cron.Remove(entry.entryID)
	delete(s.jobs, id)
}

// runCron is the generated callback: errors are logged and swallowed so
// a failing run never disables the cron timer.
func (s *Scheduler) runCron(sc *schedule.Schedule) {
	enabledCount := s.enabledCount()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.exec.Run(ctx, sc, enabledCount); err != nil {
		s.logger.Error("scheduler: cron run failed", "schedule", sc.Name, "error", err)
	}
}

// ExecuteNow loads the schedule by id and runs the executor ignoring
// Enabled. Errors propagate for the caller (an HTTP handler) to translate.
func (s *Scheduler) ExecuteNow(ctx context.Context, id string) error {
	sc, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if sc == nil {
		return models.New(models.KindNotFound, "schedule not found: "+id, nil)
	}
	return s.exec.Run(ctx, sc, s.enabledCount())
}

func (s *Scheduler) enabledCount() int {
	schedules, err := s.store.List()
	if err != nil {
		return 1
	}
	count := 0
	for _, sc := range schedules {
		if sc.Enabled {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

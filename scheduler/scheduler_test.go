package scheduler

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/executor"
	"github.com/hassnap/einkscreen/models"
	"github.com/hassnap/einkscreen/schedule"
	"github.com/hassnap/einkscreen/serializer"
)

type memStore struct {
	schedules map[string]*schedule.Schedule
}

func newMemStore() *memStore { return &memStore{schedules: map[string]*schedule.Schedule{}} }

func (m *memStore) List() ([]*schedule.Schedule, error) {
	var out []*schedule.Schedule
	for _, s := range m.schedules {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) Get(id string) (*schedule.Schedule, error) {
	return m.schedules[id], nil
}

func (m *memStore) Create(s *schedule.Schedule) (*schedule.Schedule, error) {
	m.schedules[s.ID] = s
	return s, nil
}

func (m *memStore) Update(id string, patch *schedule.Schedule) (*schedule.Schedule, error) {
	m.schedules[id] = patch
	return patch, nil
}

func (m *memStore) Delete(id string) (bool, error) {
	_, ok := m.schedules[id]
	delete(m.schedules, id)
	return ok, nil
}

type countingSerializer struct {
	calls int
}

func (c *countingSerializer) Execute(ctx context.Context, req *models.ScreenshotRequest) (*serializer.Result, error) {
	c.calls++
	return &serializer.Result{Bytes: []byte("x"), ContentType: "image/png"}, nil
}

func testScheduler(t *testing.T) (*Scheduler, *memStore, *countingSerializer) {
	t.Helper()
	store := newMemStore()
	ser := &countingSerializer{}
	cfg := config.SchedulerConfig{OutputDir: t.TempDir(), RetentionMultiplier: 2, ReloadInterval: time.Hour}
	ex, err := executor.New(cfg, ser, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("executor.New: %v", err)
	}
	return New(cfg, store, ex, slog.New(slog.NewTextHandler(os.Stderr, nil))), store, ser
}

func TestScheduler_ReloadInstallsEnabledJobs(t *testing.T) {
	s, store, _ := testScheduler(t)
	store.schedules["a"] = &schedule.Schedule{ID: "a", Name: "a", Enabled: true, Cron: "* * * * * *"}

	s.reload()

	s.mu.Lock()
	_, ok := s.jobs["a"]
	s.mu.Unlock()
	if !ok {
		t.Error("expected job a to be installed")
	}
}

func TestScheduler_ReloadSkipsInvalidCron(t *testing.T) {
	s, store, _ := testScheduler(t)
	store.schedules["bad"] = &schedule.Schedule{ID: "bad", Name: "bad", Enabled: true, Cron: "not a cron"}

	s.reload()

	s.mu.Lock()
	_, ok := s.jobs["bad"]
	s.mu.Unlock()
	if ok {
		t.Error("expected invalid cron schedule to be skipped")
	}
}

func TestScheduler_ReloadRemovesDisabledJob(t *testing.T) {
	s, store, _ := testScheduler(t)
	store.schedules["a"] = &schedule.Schedule{ID: "a", Name: "a", Enabled: true, Cron: "* * * * * *"}
	s.reload()

	store.schedules["a"].Enabled = false
	s.reload()

	s.mu.Lock()
	_, ok := s.jobs["a"]
	s.mu.Unlock()
	if ok {
		t.Error("expected disabled schedule's job to be removed")
	}
}

func TestScheduler_ReloadRemovesDeletedSchedule(t *testing.T) {
	s, store, _ := testScheduler(t)
	store.schedules["a"] = &schedule.Schedule{ID: "a", Name: "a", Enabled: true, Cron: "* * * * * *"}
	s.reload()

	delete(store.schedules, "a")
	s.reload()

	s.mu.Lock()
	_, ok := s.jobs["a"]
	s.mu.Unlock()
	if ok {
		t.Error("expected removed schedule's job to be pruned")
	}
}

func TestScheduler_ExecuteNowRunsRegardlessOfEnabled(t *testing.T) {
	s, store, ser := testScheduler(t)
	store.schedules["a"] = &schedule.Schedule{ID: "a", Name: "a", Enabled: false, Cron: "* * * * * *"}

	if err := s.ExecuteNow(context.Background(), "a"); err != nil {
		t.Fatalf("ExecuteNow: %v", err)
	}
	if ser.calls != 1 {
		t.Errorf("expected 1 serializer call, got %d", ser.calls)
	}
}

func TestScheduler_ExecuteNowMissingScheduleErrors(t *testing.T) {
	s, _, _ := testScheduler(t)
	err := s.ExecuteNow(context.Background(), "missing")
	if !models.Is(err, models.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

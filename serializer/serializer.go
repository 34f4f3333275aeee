// Package serializer enforces a strict single-operation-in-flight
// contract over the Browser Driver, while shedding idle resources.
// Suspension points are: queue admission, every driver call, and any
// explicit sleeps — exactly one mutating operation runs at a time, no
// matter how many callers arrive concurrently.
package serializer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hassnap/einkscreen/browser"
	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/facade"
	"github.com/hassnap/einkscreen/imagepipe"
	"github.com/hassnap/einkscreen/models"
)

// Driver is the subset of browser.Driver the Serializer depends on.
type Driver interface {
	Navigate(req *models.ScreenshotRequest) (*browser.NavigateResult, error)
	Capture(req *models.ScreenshotRequest) (*browser.CaptureResult, error)
	Destroy()
}

// Facade is the subset of facade.Facade the Serializer depends on.
type Facade interface {
	Healthy() (bool, string)
	RecordSuccess()
	RecordFailure() bool
	Recover(ctx context.Context) error
}

// Result is a completed screenshot: final encoded bytes plus the
// Content-Type the caller should set on the HTTP response.
type Result struct {
	Bytes       []byte
	ContentType string
}

// Serializer is the single admission point for every browser operation,
// whether it originates from an HTTP request or a cron-triggered
// schedule run.
type Serializer struct {
	cfg    config.SerializerConfig
	driver Driver
	facade Facade

	queue fifoQueue

	mu              sync.Mutex
	screenshotCount int
	lastAccess      time.Time
	cleanupTimer    *time.Timer
	pendingNext     []*time.Timer
}

// New creates a Serializer around driver and facade.
func New(cfg config.SerializerConfig, driver Driver, facade Facade) *Serializer {
	return &Serializer{
		cfg:        cfg,
		driver:     driver,
		facade:     facade,
		lastAccess: time.Now(),
	}
}

// Execute runs the full operation wrapper for req: admission, health
// check, navigate, capture, encode, and bookkeeping. It is the sole entry
// point into browser work — both HTTP screenshot requests and scheduled
// runs call this.
func (s *Serializer) Execute(ctx context.Context, req *models.ScreenshotRequest) (*Result, error) {
	start := time.Now()

	release, ok := s.queue.acquireCtx(ctx.Done())
	if !ok {
		return nil, models.New(models.KindInternal, "request cancelled before admission", ctx.Err())
	}
	defer release()

	defer s.touch()

	if healthy, _ := s.facade.Healthy(); !healthy {
		if err := s.facade.Recover(ctx); err != nil {
			return nil, err
		}
	}

	navResult, err := s.navigateWithRecovery(ctx, req)
	if err != nil {
		return nil, err
	}

	capResult, err := s.captureWithRecovery(ctx, req)
	if err != nil {
		return nil, err
	}

	s.facade.RecordSuccess()
	s.onScreenshotCompleted()

	encoded, err := imagepipe.Process(capResult.PNG, req)
	if err != nil {
		return nil, err
	}

	s.scheduleNextRequest(req, time.Since(start), navResult.Time)

	return &Result{Bytes: encoded, ContentType: req.Format.ContentType()}, nil
}

// navigateWithRecovery runs Navigate, recovering and retrying exactly
// once on a crash/corruption/health-check class of error.
func (s *Serializer) navigateWithRecovery(ctx context.Context, req *models.ScreenshotRequest) (*browser.NavigateResult, error) {
	res, err := s.driver.Navigate(req)
	if err == nil {
		return res, nil
	}
	if models.Is(err, models.KindCannotOpenPage) {
		return nil, err
	}
	if !recoverable(err) {
		return nil, err
	}

	thresholdReached := s.facade.RecordFailure()
	isCrash := models.Is(err, models.KindBrowserCrash)
	if !isCrash && !thresholdReached {
		return nil, err
	}
	if recErr := s.facade.Recover(ctx); recErr != nil {
		return nil, recErr
	}

	res, err = s.driver.Navigate(req)
	if err != nil {
		return nil, models.New(models.KindHealthCheckFailed, "navigation still failing after recovery", err)
	}
	return res, nil
}

// captureWithRecovery applies navigateWithRecovery's failure recording
// and recovery rules to the capture step, but never retries the capture:
// after a successful recovery it returns a HealthCheckFailed error that
// advises the client to retry.
func (s *Serializer) captureWithRecovery(ctx context.Context, req *models.ScreenshotRequest) (*browser.CaptureResult, error) {
	res, err := s.driver.Capture(req)
	if err == nil {
		return res, nil
	}
	if !recoverable(err) {
		return nil, err
	}

	thresholdReached := s.facade.RecordFailure()
	isCrash := models.Is(err, models.KindBrowserCrash)
	if !isCrash && !thresholdReached {
		return nil, err
	}
	if recErr := s.facade.Recover(ctx); recErr != nil {
		return nil, recErr
	}

	return nil, models.New(models.KindHealthCheckFailed,
		"capture unavailable, recovery completed — advise client to retry", err)
}

func recoverable(err error) bool {
	return models.Is(err, models.KindBrowserCrash) ||
		models.Is(err, models.KindPageCorrupted) ||
		models.Is(err, models.KindHealthCheckFailed)
}

func (s *Serializer) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
	s.armCleanup()
}

// onScreenshotCompleted implements proactive cleanup: after
// MaxScreenshotsBeforeRestart successful captures, the driver is torn
// down and the counter resets. Zero, or KeepBrowserOpen, disables this
// entirely.
func (s *Serializer) onScreenshotCompleted() {
	if s.cfg.KeepBrowserOpen || s.cfg.MaxScreenshotsBeforeRestart <= 0 {
		return
	}
	s.mu.Lock()
	s.screenshotCount++
	reached := s.screenshotCount >= s.cfg.MaxScreenshotsBeforeRestart
	if reached {
		s.screenshotCount = 0
	}
	s.mu.Unlock()

	if reached {
		slog.Info("serializer: proactive cleanup threshold reached, restarting browser")
		s.driver.Destroy()
	}
}

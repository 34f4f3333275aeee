// Package facade observes every browser operation, decides whether the
// Browser Driver is healthy, and recovers it within bounded attempts. The
// counters here are the single-process generalization of the teacher's
// per-page PageHandle scoring in engine/adaptive_pool.go: one health
// record instead of one per pooled page, since the Driver itself is not
// pooled.
package facade

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/models"
)

// Driver is the subset of browser.Driver the Facade depends on, kept
// narrow so tests can supply a fake.
type Driver interface {
	Destroy()
	Probe(ctx context.Context, timeout time.Duration) error
	Launch() error
}

// Status is the JSON-serializable snapshot returned by the health endpoint.
type Status struct {
	Healthy                bool          `json:"healthy"`
	Reason                 string        `json:"reason,omitempty"`
	LastSuccessfulRequest  time.Time     `json:"lastSuccessfulRequest"`
	TimeSinceSuccess       time.Duration `json:"timeSinceSuccess"`
	ConsecutiveFailures    int           `json:"consecutiveFailures"`
	TotalRecoveries        int           `json:"totalRecoveries"`
	Recovering             bool          `json:"recovering"`
}

// Facade wraps a Driver with health tracking and bounded recovery.
type Facade struct {
	cfg    config.FacadeConfig
	driver Driver

	mu                  sync.Mutex
	consecutiveFailures int
	totalRecoveries     int
	lastSuccess         time.Time

	recovering   sync.Mutex
	isRecovering atomicBool
}

// atomicBool is a tiny bool wrapper with no import cycle needs beyond
// sync; kept local since the only use is the recovering flag for Status.
type atomicBool struct {
	mu sync.Mutex
	v  bool
}

func (a *atomicBool) set(v bool) {
	a.mu.Lock()
	a.v = v
	a.mu.Unlock()
}

func (a *atomicBool) get() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}

// New creates a Facade around driver, with lastSuccess seeded to now so a
// freshly started process is never reported as stale before its first use.
func New(cfg config.FacadeConfig, driver Driver) *Facade {
	return &Facade{cfg: cfg, driver: driver, lastSuccess: time.Now()}
}

// RecordSuccess resets the failure streak and stamps lastSuccess.
func (f *Facade) RecordSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consecutiveFailures = 0
	f.lastSuccess = time.Now()
}

// RecordFailure increments the failure streak and reports whether it is
// now at or above MaxFailures (the caller's cue to invoke recovery).
func (f *Facade) RecordFailure() (thresholdReached bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consecutiveFailures++
	return f.consecutiveFailures >= f.cfg.MaxFailures
}

// Healthy evaluates the two unhealthy conditions: too many consecutive
// failures, or staleness combined with at least one failure. An idle
// system with zero failures is never stale.
func (f *Facade) Healthy() (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consecutiveFailures >= f.cfg.MaxFailures {
		return false, "too many consecutive failures"
	}
	if f.consecutiveFailures > 0 && time.Since(f.lastSuccess) > f.cfg.StaleDuration {
		return false, "stale: no successful request within the freshness window"
	}
	return true, ""
}

// Status returns the full health snapshot for the health endpoint.
func (f *Facade) Status() Status {
	f.mu.Lock()
	healthy, reason := f.healthyLocked()
	s := Status{
		Healthy:               healthy,
		Reason:                reason,
		LastSuccessfulRequest: f.lastSuccess,
		TimeSinceSuccess:      time.Since(f.lastSuccess),
		ConsecutiveFailures:   f.consecutiveFailures,
		TotalRecoveries:       f.totalRecoveries,
	}
	f.mu.Unlock()
	s.Recovering = f.isRecovering.get()
	return s
}

func (f *Facade) healthyLocked() (bool, string) {
	if f.consecutiveFailures >= f.cfg.MaxFailures {
		return false, "too many consecutive failures"
	}
	if f.consecutiveFailures > 0 && time.Since(f.lastSuccess) > f.cfg.StaleDuration {
		return false, "stale: no successful request within the freshness window"
	}
	return true, ""
}

// Recover runs the bounded recovery protocol. Recoveries never run in
// parallel: a caller that arrives while one is in flight waits for it to
// finish and then runs its own recovery.
func (f *Facade) Recover(ctx context.Context) error {
	f.recovering.Lock()
	defer f.recovering.Unlock()

	f.isRecovering.set(true)
	defer f.isRecovering.set(false)

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxRecoveryAttempts; attempt++ {
		func() {
			defer func() { recover() }()
			f.driver.Destroy()
		}()

		if attempt >= 2 {
			backoff := time.Duration(math.Min(
				float64(f.cfg.BackoffBase)*math.Pow(2, float64(attempt-1)),
				float64(f.cfg.BackoffMax),
			))
			slog.Info("facade: backing off before recovery attempt", "attempt", attempt, "backoff", backoff)
			time.Sleep(backoff)
		}

		if err := f.driver.Launch(); err != nil {
			lastErr = err
			slog.Warn("facade: recovery launch failed", "attempt", attempt, "error", err)
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, f.cfg.LivenessProbeTimeout)
		err := f.driver.Probe(probeCtx, f.cfg.LivenessProbeTimeout)
		cancel()
		if err != nil {
			lastErr = err
			slog.Warn("facade: recovery liveness probe failed", "attempt", attempt, "error", err)
			continue
		}

		f.mu.Lock()
		f.totalRecoveries++
		f.consecutiveFailures = 0
		f.mu.Unlock()
		slog.Info("facade: recovery succeeded", "attempt", attempt)
		return nil
	}

	return models.New(models.KindRecoveryFailed,
		"recovery exhausted all attempts", lastErr)
}

package serializer

import (
	"log/slog"
	"time"
)

// armCleanup (re-)schedules the idle-destroy check, BrowserTimeout+100ms
// out from now. KeepBrowserOpen disables this entirely: no timer is ever
// scheduled, and proactive cleanup is off as well, so the driver only
// goes away through recovery or an explicit shutdown.
func (s *Serializer) armCleanup() {
	if s.cfg.KeepBrowserOpen {
		return
	}

	s.mu.Lock()
	if s.cleanupTimer != nil {
		s.cleanupTimer.Stop()
	}
	s.cleanupTimer = time.AfterFunc(s.cfg.BrowserTimeout+100*time.Millisecond, s.checkIdle)
	s.mu.Unlock()
}

// checkIdle runs at the scheduled check time: if an operation is in
// flight, it re-arms a full BrowserTimeout+100ms check instead of acting;
// else, if idle for less than BrowserTimeout, it re-arms for the remaining
// interval, and if idle for at least BrowserTimeout, it destroys the driver.
func (s *Serializer) checkIdle() {
	if s.queue.isBusy() {
		s.armCleanup()
		return
	}

	s.mu.Lock()
	idleFor := time.Since(s.lastAccess)
	s.mu.Unlock()

	if idleFor < s.cfg.BrowserTimeout {
		remaining := s.cfg.BrowserTimeout - idleFor
		s.mu.Lock()
		s.cleanupTimer = time.AfterFunc(remaining+100*time.Millisecond, s.checkIdle)
		s.mu.Unlock()
		return
	}

	slog.Info("serializer: idle timeout reached, destroying browser")
	s.driver.Destroy()
}

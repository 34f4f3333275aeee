package serializer

import (
	"context"
	"log/slog"
	"time"

	"github.com/hassnap/einkscreen/models"
)

// scheduleNextRequest implements next-request preloading: when req
// carries next=N seconds, a timer fires shortly before the caller's
// stated next-poll time and performs a navigation-only pass, so the page
// is already warm when the real request arrives.
func (s *Serializer) scheduleNextRequest(req *models.ScreenshotRequest, elapsed, navTime time.Duration) {
	if req.Next <= 0 {
		return
	}
	delay := time.Duration(req.Next)*time.Second - elapsed - navTime - time.Second
	if delay <= 0 {
		return
	}

	preload := *req
	preload.Wait = 0

	timer := time.AfterFunc(delay, func() {
		if s.queue.isBusy() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BrowserTimeout)
		defer cancel()
		release, ok := s.queue.acquireCtx(ctx.Done())
		if !ok {
			return
		}
		defer release()

		if _, err := s.driver.Navigate(&preload); err != nil {
			slog.Debug("serializer: preload navigation failed", "path", preload.PagePath, "error", err)
		}
	})

	s.addPendingTimer(timer)
}

// addPendingTimer bounds the pending preload-timer queue to
// MaxNextRequests, dropping (and stopping) the oldest when exceeded.
func (s *Serializer) addPendingTimer(timer *time.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := s.cfg.MaxNextRequests
	if limit <= 0 {
		limit = 100
	}
	s.pendingNext = append(s.pendingNext, timer)
	for len(s.pendingNext) > limit {
		oldest := s.pendingNext[0]
		s.pendingNext = s.pendingNext[1:]
		oldest.Stop()
	}
}

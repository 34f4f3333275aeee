package serializer

import "sync"

// fifoQueue enforces a single-operation-in-flight contract: a busy flag
// plus a strictly-ordered queue of waiter channels. This replaces the
// teacher's race-the-first-engine dispatcher (engine/dispatcher.go) with
// admission order instead of completion order, since spec requires
// strict FIFO rather than first-to-finish.
type fifoQueue struct {
	mu      sync.Mutex
	busy    bool
	waiters []chan struct{}
}

// acquire blocks until this caller is the sole admitted operation. The
// returned release function must be called exactly once, including on
// the caller's own failure paths (guaranteed-release).
func (q *fifoQueue) acquire() (release func()) {
	q.mu.Lock()
	if !q.busy {
		q.busy = true
		q.mu.Unlock()
		return q.makeRelease()
	}
	ch := make(chan struct{})
	q.waiters = append(q.waiters, ch)
	q.mu.Unlock()

	<-ch
	return q.makeRelease()
}

// acquireCtx is acquire with cooperative cancellation before admission.
// A caller cancelled while waiting removes its own waiter cleanly and
// never becomes busy.
func (q *fifoQueue) acquireCtx(done <-chan struct{}) (release func(), ok bool) {
	q.mu.Lock()
	if !q.busy {
		q.busy = true
		q.mu.Unlock()
		return q.makeRelease(), true
	}
	ch := make(chan struct{})
	q.waiters = append(q.waiters, ch)
	q.mu.Unlock()

	select {
	case <-ch:
		return q.makeRelease(), true
	case <-done:
		if !q.removeWaiter(ch) {
			// Admission was handed to this waiter at the same moment it
			// was cancelled; pass it on so the queue does not stay busy.
			q.makeRelease()()
		}
		return nil, false
	}
}

func (q *fifoQueue) removeWaiter(target chan struct{}) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, ch := range q.waiters {
		if ch == target {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return true
		}
	}
	return false
}

func (q *fifoQueue) makeRelease() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			if len(q.waiters) > 0 {
				next := q.waiters[0]
				q.waiters = q.waiters[1:]
				q.mu.Unlock()
				close(next)
				return
			}
			q.busy = false
			q.mu.Unlock()
		})
	}
}

// isBusy reports the current busy state without taking part in the queue.
func (q *fifoQueue) isBusy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy
}

package serializer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hassnap/einkscreen/browser"
	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/models"
)

type fakeDriver struct {
	mu           sync.Mutex
	navigateErr  error
	captureErr   error
	navigateCalls int
	captureCalls  int
	destroyCalls  int
	png           []byte
}

func (d *fakeDriver) Navigate(req *models.ScreenshotRequest) (*browser.NavigateResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigateCalls++
	if d.navigateErr != nil {
		return nil, d.navigateErr
	}
	return &browser.NavigateResult{Time: time.Millisecond}, nil
}

func (d *fakeDriver) Capture(req *models.ScreenshotRequest) (*browser.CaptureResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.captureCalls++
	if d.captureErr != nil {
		return nil, d.captureErr
	}
	png := d.png
	if png == nil {
		png = onePixelPNG
	}
	return &browser.CaptureResult{PNG: png, Time: time.Millisecond}, nil
}

func (d *fakeDriver) Destroy() {
	d.mu.Lock()
	d.destroyCalls++
	d.mu.Unlock()
}

type fakeFacade struct {
	healthy    bool
	recoverErr error
	recoverCalls atomic.Int32
	failures     atomic.Int32
	successes    atomic.Int32
}

func (f *fakeFacade) Healthy() (bool, string) { return f.healthy, "" }
func (f *fakeFacade) RecordSuccess()          { f.successes.Add(1) }
func (f *fakeFacade) RecordFailure() bool     { f.failures.Add(1); return f.failures.Load() >= 3 }
func (f *fakeFacade) Recover(ctx context.Context) error {
	f.recoverCalls.Add(1)
	f.healthy = f.recoverErr == nil
	return f.recoverErr
}

// onePixelPNG is a minimal valid 1x1 PNG, used so imagepipe.Process has
// something real to decode.
var onePixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func testCfg() config.SerializerConfig {
	return config.SerializerConfig{
		BrowserTimeout:              time.Hour,
		MaxScreenshotsBeforeRestart: 0,
		KeepBrowserOpen:             true,
		MaxNextRequests:             100,
	}
}

func TestSerializer_ExecuteSucceedsOnHealthyDriver(t *testing.T) {
	d := &fakeDriver{}
	f := &fakeFacade{healthy: true}
	s := New(testCfg(), d, f)

	req := &models.ScreenshotRequest{Format: models.FormatPNG}
	res, err := s.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Bytes) == 0 {
		t.Error("expected non-empty result bytes")
	}
	if res.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", res.ContentType)
	}
	if f.successes.Load() != 1 {
		t.Errorf("expected 1 recorded success, got %d", f.successes.Load())
	}
}

func TestSerializer_UnhealthyTriggersRecoveryBeforeNavigate(t *testing.T) {
	d := &fakeDriver{}
	f := &fakeFacade{healthy: false}
	s := New(testCfg(), d, f)

	_, err := s.Execute(context.Background(), &models.ScreenshotRequest{Format: models.FormatPNG})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if f.recoverCalls.Load() != 1 {
		t.Errorf("expected 1 recovery call, got %d", f.recoverCalls.Load())
	}
}

func TestSerializer_CannotOpenPagePropagatesWithoutRecovery(t *testing.T) {
	d := &fakeDriver{navigateErr: models.NewCannotOpenPage("/lovelace/0", 404, nil)}
	f := &fakeFacade{healthy: true}
	s := New(testCfg(), d, f)

	_, err := s.Execute(context.Background(), &models.ScreenshotRequest{Format: models.FormatPNG})
	if !models.Is(err, models.KindCannotOpenPage) {
		t.Fatalf("expected KindCannotOpenPage, got %v", err)
	}
	if f.recoverCalls.Load() != 0 {
		t.Error("CannotOpenPage must not trigger recovery")
	}
}

func TestSerializer_BrowserCrashTriggersRecoveryAndRetry(t *testing.T) {
	d := &fakeDriver{navigateErr: models.New(models.KindBrowserCrash, "crashed", errors.New("target closed"))}
	f := &fakeFacade{healthy: true}
	// clearingDriver's first Navigate call returns the crash error; its
	// second call (the serializer's post-recovery retry) clears it and
	// succeeds, simulating a driver that came back healthy.
	cd := &clearingDriver{fakeDriver: d}
	s := New(testCfg(), cd, f)

	_, err := s.Execute(context.Background(), &models.ScreenshotRequest{Format: models.FormatPNG})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if f.recoverCalls.Load() != 1 {
		t.Errorf("expected 1 recovery call, got %d", f.recoverCalls.Load())
	}
}

type clearingDriver struct {
	*fakeDriver
	calls atomic.Int32
}

func (c *clearingDriver) Navigate(req *models.ScreenshotRequest) (*browser.NavigateResult, error) {
	if c.calls.Add(1) == 1 {
		return c.fakeDriver.Navigate(req)
	}
	c.fakeDriver.mu.Lock()
	c.fakeDriver.navigateErr = nil
	c.fakeDriver.mu.Unlock()
	return c.fakeDriver.Navigate(req)
}

func TestSerializer_ProactiveCleanupRestartsAfterThreshold(t *testing.T) {
	d := &fakeDriver{}
	f := &fakeFacade{healthy: true}
	cfg := testCfg()
	cfg.MaxScreenshotsBeforeRestart = 2
	cfg.KeepBrowserOpen = false // KeepBrowserOpen also disables proactive cleanup
	s := New(cfg, d, f)

	for i := 0; i < 2; i++ {
		if _, err := s.Execute(context.Background(), &models.ScreenshotRequest{Format: models.FormatPNG}); err != nil {
			t.Fatalf("Execute #%d: %v", i, err)
		}
	}
	d.mu.Lock()
	destroyed := d.destroyCalls
	d.mu.Unlock()
	if destroyed != 1 {
		t.Errorf("expected driver destroyed exactly once at threshold, got %d", destroyed)
	}
}

func TestSerializer_FIFOAdmissionOrder(t *testing.T) {
	d := &fakeDriver{}
	f := &fakeFacade{healthy: true}
	s := New(testCfg(), d, f)

	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	// Hold the queue busy with a manual acquire so subsequent Execute
	// calls queue up in submission order.
	release := s.queue.acquire()

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rel, ok := s.queue.acquireCtx(nil)
			if !ok {
				return
			}
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			rel()
		}(i)
		time.Sleep(5 * time.Millisecond) // ensure submission order is stable
	}

	release()
	wg.Wait()

	for i, n := range order {
		if i != n {
			t.Errorf("FIFO order violated: position %d got goroutine %d", i, n)
			break
		}
	}
}

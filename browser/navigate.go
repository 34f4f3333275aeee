package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hassnap/einkscreen/models"
)

// NavigateResult reports the elapsed time of a successful navigation.
type NavigateResult struct {
	Time time.Duration
}

// Navigate drives the page to req.PagePath with the given view state,
// reusing cached state to avoid redundant work. See spec §4.1 for the
// full algorithm; step numbers in comments below match it.
func (d *Driver) Navigate(req *models.ScreenshotRequest) (*NavigateResult, error) {
	release, err := d.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	d.pageErrorDetected.Store(false)

	// 1. Ensure subprocess exists.
	if err := d.ensureLaunched(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	page := d.page
	firstNav := d.firstNav
	d.mu.Unlock()

	// 2. Viewport, scaled for HA's header bar.
	scaledHeader := int(float64(HeaderHeight) * req.Zoom)
	w, h := req.Viewport.Width, req.Viewport.Height+scaledHeader
	if w != d.lastW || h != d.lastH {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width: w, Height: h, DeviceScaleFactor: 1, Mobile: false,
		}); err != nil {
			return nil, classifyError(err, d.pageErrorDetected.Load())
		}
		d.lastW, d.lastH = w, h
	}

	waitBudget := DefaultWaitTime

	// 3. Full navigation vs. client-side route change.
	if req.PagePath != d.lastPath || firstNav {
		if firstNav {
			if _, err := page.Eval(injectionJS(d.ha.URL, d.ha.Token)); err != nil {
				return nil, classifyError(err, d.pageErrorDetected.Load())
			}
			if _, err := page.EvalOnNewDocument(injectionJS(d.ha.URL, d.ha.Token)); err != nil {
				return nil, classifyError(err, d.pageErrorDetected.Load())
			}
			targetURL := strings.TrimSuffix(d.ha.URL, "/") + req.PagePath
			statusCode, err := gotoWithStatus(page, targetURL)
			if err != nil {
				return nil, models.NewCannotOpenPage(req.PagePath, 0, err)
			}
			if statusCode != 0 && statusCode >= 400 {
				return nil, models.NewCannotOpenPage(req.PagePath, statusCode, nil)
			}
			waitBudget = DefaultWaitTime
			if d.ha.Hosted {
				waitBudget += ColdStartExtraWait
			}
		} else {
			if err := dispatchRouteChange(page, req.PagePath); err != nil {
				return nil, classifyError(err, d.pageErrorDetected.Load())
			}
			waitBudget = DefaultWaitTime
		}
		d.lastPath = req.PagePath
		d.mu.Lock()
		d.firstNav = false
		d.mu.Unlock()
	}

	// 4. Wait for HA's loading indicators to clear (non-fatal timeout).
	waitForHALoading(page, haLoadingCap)

	// 5. Dismiss toast + set zoom, except on first navigation.
	if !firstNav {
		if dismissToast(page) {
			waitBudget += 1000 * time.Millisecond
		}
		_, _ = page.Eval(fmt.Sprintf(`() => { document.body.style.zoom = %f; }`, req.Zoom))
	}

	// 6. Language.
	if req.Lang != "" && req.Lang != d.lastLang {
		setLanguage(page, req.Lang)
		waitBudget += 1000 * time.Millisecond
		d.lastLang = req.Lang
	}

	// 7. Theme/dark mode.
	if req.Theme != d.lastTheme || req.Dark != d.lastDark {
		setTheme(page, req.Theme, req.Dark)
		waitBudget += 500 * time.Millisecond
		d.lastTheme = req.Theme
		d.lastDark = req.Dark
	}

	// 8. Wait strategy.
	if req.Wait > 0 {
		time.Sleep(time.Duration(req.Wait) * time.Millisecond)
	} else {
		smartWait(page, maxDuration(waitBudget, 3*time.Second))
	}

	if d.pageErrorDetected.Load() {
		return nil, models.New(models.KindPageCorrupted, "page reported a script error during navigation", nil)
	}

	return &NavigateResult{Time: time.Since(start)}, nil
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

// gotoWithStatus performs an HTTP-level navigation and returns the observed
// response status code, read from the page's performance timeline rather
// than from a CDP network event listener.
func gotoWithStatus(p *rod.Page, targetURL string) (int, error) {
	if err := p.Navigate(targetURL); err != nil {
		return 0, err
	}
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0, nil
	}
	return res.Value.Int(), nil
}

// Package browser owns the single headless-browser subprocess used to
// render Home Assistant dashboards for capture. Everything here assumes
// exclusive access is already arranged by the caller (see package
// serializer) — the Driver itself only refuses literally-overlapping
// calls, it does not queue them.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/models"
)

const (
	// HeaderHeight compensates for HA's top app bar, which the capture
	// region must skip past.
	HeaderHeight = 56

	// DefaultWaitTime is the smart-wait budget for a steady-state navigation.
	DefaultWaitTime = 1500 * time.Millisecond

	// ColdStartExtraWait is added to the first navigation's budget when
	// HA.Hosted is true (cold add-on / container starts are slower).
	ColdStartExtraWait = 4000 * time.Millisecond

	// haLoadingCap bounds the HA loading-indicator poll (non-fatal timeout).
	haLoadingCap = 10 * time.Second

	smartWaitPoll = 100 * time.Millisecond
)

// crashMessages are substrings that classify an error as a browser crash
// regardless of which Rod call produced it.
var crashMessages = []string{"Target closed", "Session closed", "Protocol error"}

// Driver owns a single *rod.Browser and a single *rod.Page. It is not a
// pool: spec explicitly rules out multi-browser parallelism, so there is
// exactly one subprocess and exactly one logical view.
type Driver struct {
	ha  config.HomeAssistantConfig
	cfg config.BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
	cancel  context.CancelFunc // stops the crash-observer goroutine

	firstNav bool
	lastPath  string
	lastLang  string
	lastTheme string
	lastDark  bool
	lastW, lastH int // last applied viewport, scaled by HeaderHeight+zoom

	pageErrorDetected atomic.Bool
	inUse             atomic.Bool
}

// NewDriver creates an unlaunched Driver. The subprocess is started lazily
// by the first Navigate call.
func NewDriver(ha config.HomeAssistantConfig, cfg config.BrowserConfig) *Driver {
	return &Driver{ha: ha, cfg: cfg}
}

// Alive reports whether a subprocess is currently attached, without
// performing any I/O. Used by the Facade's cheap health checks.
func (d *Driver) Alive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.browser != nil
}

// Probe performs a liveness check against the live subprocess (a no-op
// CDP round-trip), bounded by timeout. Used by the Facade's recovery loop.
func (d *Driver) Probe(ctx context.Context, timeout time.Duration) error {
	d.mu.Lock()
	b := d.browser
	d.mu.Unlock()
	if b == nil {
		return models.New(models.KindBrowserCrash, "no subprocess attached", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := b.Context(ctx).Version(); err != nil {
		return models.New(models.KindBrowserCrash, "liveness probe failed", err)
	}
	return nil
}

// Launch starts the subprocess if one isn't already attached. Exported for
// the Facade's recovery loop, which calls it directly after Destroy
// without going through Navigate.
func (d *Driver) Launch() error {
	return d.ensureLaunched()
}

// Destroy tears down the subprocess (best-effort) and invalidates every
// cache field, per spec's "cache invalidated on any destruction" rule.
func (d *Driver) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyLocked()
}

func (d *Driver) destroyLocked() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.browser != nil {
		func() {
			defer func() { recover() }() // closing an already-dead subprocess must not panic the caller
			d.browser.MustClose()
		}()
	}
	d.browser = nil
	d.page = nil
	d.firstNav = false
	d.lastPath, d.lastLang, d.lastTheme = "", "", ""
	d.lastDark = false
	d.lastW, d.lastH = 0, 0
	d.pageErrorDetected.Store(false)
}

// acquire refuses overlapping calls: the Driver is single-threaded by
// contract, callers (package serializer) are responsible for not calling
// concurrently, but we still fail loudly instead of corrupting state if
// that contract is ever violated.
func (d *Driver) acquire() (func(), error) {
	if !d.inUse.CompareAndSwap(false, true) {
		return nil, models.New(models.KindInternal, "browser driver: overlapping call rejected", nil)
	}
	return func() { d.inUse.Store(false) }, nil
}

// ensureLaunched lazily starts the subprocess. Launch is the sole spawn point.
func (d *Driver) ensureLaunched() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.browser != nil {
		return nil
	}

	l := launcher.New().Headless(d.cfg.Headless).NoSandbox(d.cfg.NoSandbox)
	if d.cfg.BrowserBin != "" {
		l = l.Bin(d.cfg.BrowserBin)
	}
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("disable-popup-blocking"))

	controlURL, err := l.Launch()
	if err != nil {
		return models.New(models.KindBrowserCrash, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return models.New(models.KindBrowserCrash, "failed to connect to browser", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return models.New(models.KindBrowserCrash, "failed to create page", err)
	}

	// Mask navigator.webdriver etc. before any navigation. HA instances are
	// commonly reverse-proxied and occasionally trip bot-fingerprint
	// heuristics on headless Chrome's default signature.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without it", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.browser = browser
	d.page = page
	d.cancel = cancel
	d.firstNav = true

	// Subprocess-disconnect observer: mutates driver state from an async
	// context. It only ever flips a flag (pageErrorDetected acts as the
	// single-reader channel the next operation entry consults) — it never
	// calls back into Navigate/Capture itself.
	go d.watchCrash(ctx, browser)

	slog.Info("browser launched", "controlURL", controlURL)
	return nil
}

func (d *Driver) watchCrash(ctx context.Context, browser *rod.Browser) {
	wait := browser.Context(ctx).EachEvent(func(e *proto.TargetTargetCrashed) {
		slog.Warn("browser subprocess reported crashed target", "targetID", e.TargetID)
		d.pageErrorDetected.Store(true)
	})
	wait()
}

// classifyError maps a raw error from either Navigate or Capture into one
// of the documented error kinds.
func classifyError(err error, pageErrorDetected bool) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, crash := range crashMessages {
		if strings.Contains(msg, crash) {
			return models.New(models.KindBrowserCrash, "browser subprocess crashed", err)
		}
	}
	if pageErrorDetected {
		return models.New(models.KindPageCorrupted, "page reported a script error during this operation", err)
	}
	return err
}

// injectionJS sets up HA auth (long-lived token in local storage) plus the
// sidebar/theme defaults, all before any page script runs.
func injectionJS(haURL, token string) string {
	base := strings.TrimSuffix(haURL, "/")
	clientID := base + "/"
	tokenObj := fmt.Sprintf(`{
		"hassUrl": %q,
		"clientId": %q,
		"access_token": %q,
		"token_type": "Bearer",
		"expires_in": 1800,
		"expires": 9999999999999,
		"refresh_token": ""
	}`, base, clientID, token)

	return fmt.Sprintf(`() => {
		try {
			localStorage.setItem("hassTokens", %s);
			localStorage.setItem("dockedSidebar", JSON.stringify("always_hidden"));
			localStorage.setItem("selectedTheme", JSON.stringify({"dark": false}));
		} catch (e) {}
	}`, tokenObj)
}

// evalBool evaluates a JS boolean-returning expression, defaulting to
// false on any evaluation error.
func evalBool(p *rod.Page, js string, args ...interface{}) bool {
	res, err := p.Eval(js, args...)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// evalInt evaluates a JS integer-returning expression, defaulting to 0.
func evalInt(p *rod.Page, js string) int {
	res, err := p.Eval(js)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

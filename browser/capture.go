package browser

import (
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hassnap/einkscreen/models"
)

// CaptureResult carries the raw, lossless PNG bytes produced by the CDP
// screenshot call plus how long it took. Rotation, grayscale conversion,
// dithering and final-format encoding are the Image Pipeline's job, not
// this package's: Capture only ever returns PNG.
type CaptureResult struct {
	PNG  []byte
	Time time.Duration
}

// Capture takes the screenshot for the page state Navigate already put in
// place. It never navigates or waits — callers must have already called
// Navigate with the same request.
func (d *Driver) Capture(req *models.ScreenshotRequest) (*CaptureResult, error) {
	release, err := d.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()

	d.mu.Lock()
	page := d.page
	d.mu.Unlock()
	if page == nil {
		return nil, models.New(models.KindBrowserCrash, "no page attached", nil)
	}

	scaledHeader := float64(HeaderHeight) * req.Zoom

	clip := &proto.PageViewport{
		X:      0,
		Y:      scaledHeader,
		Width:  float64(req.Viewport.Width),
		Height: float64(req.Viewport.Height) - scaledHeader,
		Scale:  1,
	}
	if req.Crop != nil {
		clip.X = float64(req.Crop.X)
		clip.Y = scaledHeader + float64(req.Crop.Y)
		clip.Width = float64(req.Crop.Width)
		clip.Height = float64(req.Crop.Height)
	}

	opts := &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip:   clip,
	}

	data, err := page.Screenshot(false, opts)
	if err != nil {
		d.mu.Lock()
		d.lastPath = "" // force a fresh navigation next time; this page may be wedged
		d.mu.Unlock()
		return nil, classifyError(err, d.pageErrorDetected.Load())
	}

	if d.pageErrorDetected.Load() {
		return nil, models.New(models.KindPageCorrupted, "page reported a script error during capture", nil)
	}

	return &CaptureResult{PNG: data, Time: time.Since(start)}, nil
}

// Package params converts an incoming query string into a validated
// models.ScreenshotRequest, applying the documented defaults and
// fallbacks. Parse is a pure function: no I/O, no globals, same input
// always produces the same output.
package params

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hassnap/einkscreen/models"
)

var validFormats = map[string]models.Format{
	"png":  models.FormatPNG,
	"jpeg": models.FormatJPEG,
	"bmp":  models.FormatBMP,
}

var validRotations = map[int]bool{90: true, 180: true, 270: true}

// validDitherMethods matches the external query grammar's dither_method
// enum, where "none" names the no-diffusion (threshold) strategy.
var validDitherMethods = map[string]models.DitherMethod{
	"floyd-steinberg": models.DitherFloydSteinberg,
	"ordered":         models.DitherOrdered,
	"none":            models.DitherThreshold,
}

var validPalettes = map[string]models.Palette{
	"bw":       models.PaletteBW,
	"gray-4":   models.PaletteGray4,
	"gray-16":  models.PaletteGray16,
	"gray-256": models.PaletteGray256,
	"color-6a": models.PaletteColor6A,
	"color-7a": models.PaletteColor7A,
}

// Parse converts query into a ScreenshotRequest, or returns nil when the
// required viewport parameter is missing or malformed (the caller
// replies 400 Bad Request in that case).
func Parse(path string, query url.Values) *models.ScreenshotRequest {
	viewport, ok := parseViewport(query.Get("viewport"))
	if !ok {
		return nil
	}

	req := &models.ScreenshotRequest{
		PagePath: path,
		Viewport: viewport,
		Zoom:     parseFloatDefault(query.Get("zoom"), 1.0, 0),
		Rotate:   parseRotate(query.Get("rotate")),
		Invert:   query.Has("invert"),
		Format:   parseFormat(query.Get("format")),
		Wait:     parseIntDefault(query.Get("wait"), 0, 0),
		Lang:     query.Get("lang"),
		Theme:    query.Get("theme"),
		Dark:     query.Has("dark"),
		Next:     parseIntDefault(query.Get("next"), 0, 0),
	}

	req.Crop = parseCrop(query, viewport)

	if query.Has("dithering") {
		req.Dithering = parseDithering(query)
	}

	return req
}

func parseViewport(raw string) (models.Viewport, bool) {
	if raw == "" {
		return models.Viewport{}, false
	}
	parts := strings.SplitN(strings.ToLower(raw), "x", 2)
	if len(parts) != 2 {
		return models.Viewport{}, false
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w < 1 || h < 1 {
		return models.Viewport{}, false
	}
	return models.Viewport{Width: w, Height: h}, true
}

func parseRotate(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || !validRotations[n] {
		return 0
	}
	return n
}

func parseFormat(raw string) models.Format {
	if f, ok := validFormats[raw]; ok {
		return f
	}
	return models.FormatPNG
}

func parseFloatDefault(raw string, def, min float64) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < min {
		return def
	}
	return v
}

func parseIntDefault(raw string, def, min int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return def
	}
	return v
}

func parseCrop(query url.Values, viewport models.Viewport) *models.Crop {
	xs, ys, ws, hs := query.Get("crop_x"), query.Get("crop_y"), query.Get("crop_width"), query.Get("crop_height")
	if xs == "" || ys == "" || ws == "" || hs == "" {
		return nil
	}
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errX != nil || errY != nil || errW != nil || errH != nil {
		return nil
	}
	if w <= 0 || h <= 0 {
		return nil
	}
	return &models.Crop{X: x, Y: y, Width: w, Height: h}
}

func parseDithering(query url.Values) *models.DitherOptions {
	method := validDitherMethods[query.Get("dither_method")]
	if method == "" {
		method = models.DitherFloydSteinberg
	}
	palette := validPalettes[query.Get("palette")]
	if palette == "" {
		palette = models.PaletteBW
	}

	gammaCorrection := !query.Has("no_gamma")

	return &models.DitherOptions{
		Method:          method,
		Palette:         palette,
		GammaCorrection: gammaCorrection,
		BlackLevel:      clamp(parseIntDefault(query.Get("black_level"), 0, -1<<31), 0, 100),
		WhiteLevel:      clamp(parseIntDefault(query.Get("white_level"), 100, -1<<31), 0, 100),
		Normalize:       query.Has("normalize"),
		SaturationBoost: query.Has("saturation_boost"),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

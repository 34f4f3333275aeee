package imagepipe

import (
	"image"
	"image/color"

	"github.com/hassnap/einkscreen/models"
)

// bayer8 is the 8x8 ordered-dithering threshold matrix, normalized to
// [0,1) by the caller.
var bayer8 = [8][8]int{
	{0, 32, 8, 40, 2, 34, 10, 42},
	{48, 16, 56, 24, 50, 18, 58, 26},
	{12, 44, 4, 36, 14, 46, 6, 38},
	{60, 28, 52, 20, 62, 30, 54, 22},
	{3, 35, 11, 43, 1, 33, 9, 41},
	{51, 19, 59, 27, 49, 17, 57, 25},
	{15, 47, 7, 39, 13, 45, 5, 37},
	{63, 31, 55, 23, 61, 29, 53, 21},
}

// quantizeGray snaps a [0,255] gray value to the nearest of levels evenly
// spaced output values.
func quantizeGray(v int, levels int) uint8 {
	if levels <= 1 {
		levels = 2
	}
	step := 255.0 / float64(levels-1)
	idx := float64(v)/step + 0.5
	n := int(idx)
	if n < 0 {
		n = 0
	}
	if n > levels-1 {
		n = levels - 1
	}
	return uint8(float64(n) * step)
}

// ditherGray applies method to a grayscale image, quantizing to levels
// output shades. Unknown methods fall back to Floyd-Steinberg, matching
// spec's documented fallback.
func ditherGray(img *image.Gray, method models.DitherMethod, levels int) *image.Gray {
	switch method {
	case models.DitherOrdered:
		return orderedGray(img, levels)
	case models.DitherThreshold:
		return thresholdGray(img, levels)
	default:
		return floydSteinbergGray(img, levels)
	}
}

func floydSteinbergGray(src *image.Gray, levels int) *image.Gray {
	b := src.Bounds()
	// Work in a float buffer so diffused error can push values outside
	// [0,255] before being clamped at quantization time.
	buf := make([]float64, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			buf[y*b.Dx()+x] = float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		}
	}
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	at := func(x, y int) float64 { return buf[y*w+x] }
	add := func(x, y int, d float64) {
		if x < 0 || x >= w || y < 0 || y >= h {
			return
		}
		buf[y*w+x] += d
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			old := at(x, y)
			if old < 0 {
				old = 0
			} else if old > 255 {
				old = 255
			}
			newVal := quantizeGray(int(old+0.5), levels)
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: newVal})
			err := old - float64(newVal)
			add(x+1, y, err*7.0/16)
			add(x-1, y+1, err*3.0/16)
			add(x, y+1, err*5.0/16)
			add(x+1, y+1, err*1.0/16)
		}
	}
	return out
}

func orderedGray(src *image.Gray, levels int) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(b)
	spread := 255.0 / float64(levels) / 2
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			threshold := (float64(bayer8[y%8][x%8])/64.0 - 0.5) * 2 * spread
			v += threshold
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: quantizeGray(int(v + 0.5), levels)})
		}
	}
	return out
}

func thresholdGray(src *image.Gray, levels int) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: quantizeGray(int(v), levels)})
		}
	}
	return out
}

// ditherColor remaps img onto the fixed palette using method. Ordered and
// threshold both resolve to direct nearest-color mapping (a fixed palette
// has no meaningful "level count" to threshold against); only
// Floyd-Steinberg diffuses quantization error between neighboring pixels.
func ditherColor(img image.Image, method models.DitherMethod, palette []color.RGBA) *image.RGBA {
	if method == models.DitherFloydSteinberg {
		return floydSteinbergColor(img, palette)
	}
	return nearestColorImage(img, palette)
}

func nearestColorImage(img image.Image, palette []color.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, nearestColor(img.At(x, y), palette))
		}
	}
	return out
}

func floydSteinbergColor(img image.Image, palette []color.RGBA) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	type rgb struct{ r, g, b float64 }
	buf := make([]rgb, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			buf[y*w+x] = rgb{float64(r >> 8), float64(g >> 8), float64(bl >> 8)}
		}
	}
	out := image.NewRGBA(b)
	add := func(x, y int, dr, dg, db float64) {
		if x < 0 || x >= w || y < 0 || y >= h {
			return
		}
		p := &buf[y*w+x]
		p.r += dr
		p.g += dg
		p.b += db
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			old := buf[y*w+x]
			clamped := color.RGBA{
				R: clamp8(old.r), G: clamp8(old.g), B: clamp8(old.b), A: 0xFF,
			}
			quantized := nearestColor(clamped, palette)
			out.SetRGBA(b.Min.X+x, b.Min.Y+y, quantized)
			er := old.r - float64(quantized.R)
			eg := old.g - float64(quantized.G)
			eb := old.b - float64(quantized.B)
			add(x+1, y, er*7.0/16, eg*7.0/16, eb*7.0/16)
			add(x-1, y+1, er*3.0/16, eg*3.0/16, eb*3.0/16)
			add(x, y+1, er*5.0/16, eg*5.0/16, eb*5.0/16)
			add(x+1, y+1, er*1.0/16, eg*1.0/16, eb*1.0/16)
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

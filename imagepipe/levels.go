package imagepipe

import (
	"image"
	"image/color"
)

// adjustLevels stretches gray values so that input blackPct maps to 0 and
// whitePct maps to 255, clamping outside that range. A no-op when the
// range is the full [0,100] default.
func adjustLevels(src *image.Gray, blackPct, whitePct int) *image.Gray {
	if blackPct <= 0 && whitePct >= 100 {
		return src
	}
	black := float64(blackPct) / 100 * 255
	white := float64(whitePct) / 100 * 255
	span := white - black
	if span <= 0 {
		span = 1
	}
	b := src.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			v = (v - black) / span * 255
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: clamp8(v)})
		}
	}
	return out
}

// stretchHistogram performs a linear min/max contrast stretch per channel,
// the Go-native stand-in for an ImageMagick "-normalize" histogram pass.
func stretchHistogram(src image.Image) *image.RGBA {
	b := src.Bounds()
	minR, minG, minB := 255, 255, 255
	maxR, maxG, maxB := 0, 0, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			r8, g8, b8 := int(r>>8), int(g>>8), int(bl>>8)
			if r8 < minR {
				minR = r8
			}
			if r8 > maxR {
				maxR = r8
			}
			if g8 < minG {
				minG = g8
			}
			if g8 > maxG {
				maxG = g8
			}
			if b8 < minB {
				minB = b8
			}
			if b8 > maxB {
				maxB = b8
			}
		}
	}
	spanR, spanG, spanB := float64(maxR-minR), float64(maxG-minG), float64(maxB-minB)
	if spanR <= 0 {
		spanR = 1
	}
	if spanG <= 0 {
		spanG = 1
	}
	if spanB <= 0 {
		spanB = 1
	}
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := src.At(x, y).RGBA()
			r8, g8, b8 := float64(r>>8), float64(g>>8), float64(bl>>8)
			out.SetRGBA(x, y, color.RGBA{
				R: clamp8((r8 - float64(minR)) / spanR * 255),
				G: clamp8((g8 - float64(minG)) / spanG * 255),
				B: clamp8((b8 - float64(minB)) / spanB * 255),
				A: uint8(a >> 8),
			})
		}
	}
	return out
}

package imagepipe

import (
	"image/color"

	"github.com/hassnap/einkscreen/models"
)

// colorPalettes is the closed set of fixed color lists named in models.Palette.
// Values are the common ACeP e-ink panel primaries.
var colorPalettes = map[models.Palette][]color.RGBA{
	models.PaletteColor6A: {
		{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}, // black
		{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, // white
		{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}, // red
		{R: 0x00, G: 0xFF, B: 0x00, A: 0xFF}, // green
		{R: 0x00, G: 0x00, B: 0xFF, A: 0xFF}, // blue
		{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF}, // yellow
	},
	models.PaletteColor7A: {
		{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}, // black
		{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, // white
		{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}, // red
		{R: 0x00, G: 0xFF, B: 0x00, A: 0xFF}, // green
		{R: 0x00, G: 0x00, B: 0xFF, A: 0xFF}, // blue
		{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF}, // yellow
		{R: 0xFF, G: 0xA5, B: 0x00, A: 0xFF}, // orange
	},
}

// paletteFor returns the fixed color list for a color palette, or nil for a
// grayscale one.
func paletteFor(p models.Palette) []color.RGBA {
	return colorPalettes[p]
}

// nearestColor returns the palette entry closest to c by squared Euclidean
// distance in RGB space.
func nearestColor(c color.Color, palette []color.RGBA) color.RGBA {
	r, g, b, _ := c.RGBA()
	r8, g8, b8 := int32(r>>8), int32(g>>8), int32(b>>8)

	best := palette[0]
	bestDist := int64(-1)
	for _, p := range palette {
		dr := int64(r8 - int32(p.R))
		dg := int64(g8 - int32(p.G))
		db := int64(b8 - int32(p.B))
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = p
		}
	}
	return best
}

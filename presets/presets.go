// Package presets holds a small static catalog of common capture
// configurations, enough to exercise the GET /api/presets contract
// without building a real preset-management system (out of scope).
package presets

import "github.com/hassnap/einkscreen/models"

// Preset is a named, reusable capture configuration.
type Preset struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Viewport models.Viewport `json:"viewport"`
	Rotate   int             `json:"rotate,omitempty"`
	Invert   bool            `json:"invert,omitempty"`
	Format   models.Format   `json:"format"`
	Dither   *models.DitherOptions `json:"dithering,omitempty"`
}

var catalog = []Preset{
	{
		ID:       "kindle-bw",
		Name:     "Kindle, black & white dithered",
		Viewport: models.Viewport{Width: 758, Height: 1024},
		Format:   models.FormatPNG,
		Dither: &models.DitherOptions{
			Method:          models.DitherFloydSteinberg,
			Palette:         models.PaletteBW,
			GammaCorrection: true,
			WhiteLevel:      100,
		},
	},
	{
		ID:       "waveshare-7in5-landscape",
		Name:     "Waveshare 7.5\" landscape",
		Viewport: models.Viewport{Width: 800, Height: 480},
		Format:   models.FormatBMP,
	},
	{
		ID:       "waveshare-7in5-portrait",
		Name:     "Waveshare 7.5\" portrait",
		Viewport: models.Viewport{Width: 800, Height: 480},
		Rotate:   90,
		Format:   models.FormatBMP,
	},
	{
		ID:       "color-dashboard",
		Name:     "7-color dashboard",
		Viewport: models.Viewport{Width: 600, Height: 448},
		Format:   models.FormatPNG,
		Dither: &models.DitherOptions{
			Method:     models.DitherFloydSteinberg,
			Palette:    models.PaletteColor7A,
			WhiteLevel: 100,
		},
	},
}

// Catalog returns the known preset list.
func Catalog() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

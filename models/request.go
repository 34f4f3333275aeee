package models

// Format is the output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
)

// ContentType returns the HTTP Content-Type for the format, defaulting to
// image/png for anything unrecognized.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatBMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}

// Viewport is the logical page size, in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Crop is a rectangle in viewport coordinates, selected before encoding.
type Crop struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DitherMethod is the closed set of dithering strategies (design note:
// a tagged variant, not open polymorphism).
type DitherMethod string

const (
	DitherFloydSteinberg DitherMethod = "floyd-steinberg"
	DitherOrdered        DitherMethod = "ordered"
	DitherThreshold       DitherMethod = "threshold"
)

// Palette is the closed set of output palettes.
type Palette string

const (
	PaletteBW      Palette = "bw"
	PaletteGray4   Palette = "gray-4"
	PaletteGray16  Palette = "gray-16"
	PaletteGray256 Palette = "gray-256"
	PaletteColor6A Palette = "color-6a"
	PaletteColor7A Palette = "color-7a"
)

// IsColor reports whether the palette is one of the fixed color lists
// rather than a grayscale level count.
func (p Palette) IsColor() bool {
	switch p {
	case PaletteColor6A, PaletteColor7A:
		return true
	default:
		return false
	}
}

// GrayLevels returns the number of output gray levels for a grayscale
// palette. Only meaningful when !IsColor().
func (p Palette) GrayLevels() int {
	switch p {
	case PaletteGray4:
		return 4
	case PaletteGray16:
		return 16
	case PaletteGray256:
		return 256
	default:
		return 2 // bw, and any unrecognized fallback
	}
}

// DitherOptions is the optional dithering configuration, present only
// when the caller enabled dithering.
type DitherOptions struct {
	Method           DitherMethod `json:"method"`
	Palette          Palette      `json:"palette"`
	GammaCorrection  bool         `json:"gammaCorrection"`
	BlackLevel       int          `json:"blackLevel"`
	WhiteLevel       int          `json:"whiteLevel"`
	Normalize        bool         `json:"normalize"`
	SaturationBoost  bool         `json:"saturationBoost"`
}

// ScreenshotRequest is one request-scoped value flowing from the parser
// through the Serializer to the Browser Driver and Image Pipeline.
type ScreenshotRequest struct {
	PagePath string   `json:"pagePath"`
	Viewport Viewport `json:"viewport"`
	Zoom     float64  `json:"zoom"`
	Crop     *Crop    `json:"crop,omitempty"`
	Rotate   int      `json:"rotate"`
	Invert   bool     `json:"invert"`
	Format   Format   `json:"format"`

	// Wait is nil/0 for smart-wait, positive for an explicit sleep in ms.
	Wait int `json:"wait,omitempty"`

	Lang  string `json:"lang,omitempty"`
	Theme string `json:"theme,omitempty"`
	Dark  bool   `json:"dark,omitempty"`

	Dithering *DitherOptions `json:"dithering,omitempty"`

	// Next is the seconds-until-next-request hint for preloading, 0 if absent.
	Next int `json:"next,omitempty"`
}

// Validate enforces the invariants that must hold before a capture is
// attempted (spec: enforced before capture, not before parse).
func (r *ScreenshotRequest) Validate() error {
	if r.Viewport.Width < 1 || r.Viewport.Height < 1 {
		return New(KindInvalidRequest, "viewport width and height must be >= 1", nil)
	}
	if r.Crop != nil {
		c := r.Crop
		if c.Width <= 0 || c.Height <= 0 {
			return New(KindInvalidRequest, "crop width and height must be positive", nil)
		}
		if c.X+c.Width > r.Viewport.Width || c.Y+c.Height > r.Viewport.Height {
			return New(KindInvalidRequest, "crop region exceeds viewport bounds", nil)
		}
	}
	if d := r.Dithering; d != nil {
		if d.BlackLevel < 0 || d.BlackLevel > 100 {
			return New(KindInvalidRequest, "blackLevel must be in [0,100]", nil)
		}
		if d.WhiteLevel < 0 || d.WhiteLevel > 100 {
			return New(KindInvalidRequest, "whiteLevel must be in [0,100]", nil)
		}
		if d.BlackLevel >= d.WhiteLevel {
			return New(KindInvalidRequest, "blackLevel must be < whiteLevel", nil)
		}
	}
	return nil
}

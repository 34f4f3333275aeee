// Package imagepipe turns a raw PNG screenshot into the final output image:
// rotation, dithering, palette mapping, level adjustment, inversion and
// format encoding. Every step runs in-process as an image.Image
// transform: no external tool is spawned and nothing is written to disk
// along the way.
package imagepipe

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"

	"github.com/hassnap/einkscreen/models"
)

// Process applies the full pipeline to a lossless PNG buffer, returning the
// final encoded bytes in req.Format.
func Process(src []byte, req *models.ScreenshotRequest) ([]byte, error) {
	if len(src) == 0 {
		return nil, models.New(models.KindImagePipelineError, "empty source image", nil)
	}

	// Fast path: nothing but a format change (or nothing at all).
	if req.Rotate == 0 && !req.Invert && req.Dithering == nil {
		if req.Format == models.FormatPNG || req.Format == "" {
			return src, nil
		}
		img, _, err := image.Decode(bytes.NewReader(src))
		if err != nil {
			return nil, models.New(models.KindImagePipelineError, "decode failed", err)
		}
		return encode(img, req.Format)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, models.New(models.KindImagePipelineError, "decode failed", err)
	}

	// Fast path: rotate/invert only, no dithering.
	if req.Dithering == nil {
		if req.Rotate != 0 {
			img = rotate(img, req.Rotate)
		}
		if req.Invert {
			img = imaging.Invert(img)
		}
		return encode(img, req.Format)
	}

	if req.Rotate != 0 {
		img = rotate(img, req.Rotate)
	}

	d := req.Dithering
	// Gamma-profile stripping is a pass-through here: decoding through
	// image.Image already discards any embedded ICC profile, so there is
	// no separate step to perform beyond what decode already did.

	if d.Palette.IsColor() {
		if d.Normalize {
			img = stretchHistogram(img)
		}
		if d.SaturationBoost {
			img = imaging.AdjustBrightness(img, 10)
			img = imaging.AdjustSaturation(img, 50)
		}
		palette := paletteFor(d.Palette)
		img = ditherColor(img, d.Method, palette)
	} else {
		gray := toGray(img)
		gray = adjustLevels(gray, d.BlackLevel, d.WhiteLevel)
		gray = ditherGray(gray, d.Method, d.Palette.GrayLevels())
		img = gray
	}

	if req.Invert {
		img = imaging.Invert(img)
	}

	return encode(img, req.Format)
}

func rotate(img image.Image, degrees int) image.Image {
	switch degrees {
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	grayImg := imaging.Grayscale(img)
	b := grayImg.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, grayImg.At(x, y))
		}
	}
	return out
}

// encode writes img in the requested format. An empty result from the
// encoder is treated as a pipeline failure, per spec's failure semantics.
func encode(img image.Image, format models.Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case models.FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(75))
	case models.FormatBMP:
		err = bmp.Encode(&buf, img)
	default:
		enc := &png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	}
	if err != nil {
		return nil, models.New(models.KindImagePipelineError, "encode failed", err)
	}
	if buf.Len() == 0 {
		return nil, models.New(models.KindImagePipelineError, "encoder produced empty output", nil)
	}
	return buf.Bytes(), nil
}

package pagesnap

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// RasterBuffer is a captured pixel grid at a known device pixel scale.
type RasterBuffer struct {
	Image *image.RGBA
	Scale float64

	// painted is the number of rows, from the top, actually covered by
	// captured pixels. Rows below it hold the white fill.
	painted int
}

// newRasterBuffer wraps a single-pass capture.
func newRasterBuffer(img image.Image, scale float64) *RasterBuffer {
	rgba := toRGBA(img)
	return &RasterBuffer{
		Image:   rgba,
		Scale:   scale,
		painted: rgba.Bounds().Dy(),
	}
}

// newMasterBuffer allocates a white canvas for chunked capture.
func newMasterBuffer(width, height int, scale float64) (*RasterBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: master canvas %dx%d", ErrNoDimensions, width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return &RasterBuffer{Image: img, Scale: scale}, nil
}

// Width returns the buffer width in device pixels.
func (b *RasterBuffer) Width() int {
	return b.Image.Bounds().Dx()
}

// Height returns the buffer height in device pixels.
func (b *RasterBuffer) Height() int {
	return b.Image.Bounds().Dy()
}

// PaintedHeight returns how many rows from the top hold captured pixels.
func (b *RasterBuffer) PaintedHeight() int {
	return b.painted
}

// Stitch draws a chunk at vertical device-pixel offset y. Pixels falling
// outside the master are dropped. Chunks must arrive top to bottom; a
// chunk starting below the painted region leaves a gap that is not counted.
func (b *RasterBuffer) Stitch(chunk image.Image, y int) {
	cb := chunk.Bounds()
	dst := image.Rect(0, y, cb.Dx(), y+cb.Dy()).Intersect(b.Image.Bounds())
	if dst.Empty() {
		return
	}
	draw.Copy(b.Image, dst.Min, chunk, image.Rect(cb.Min.X, cb.Min.Y, cb.Min.X+dst.Dx(), cb.Min.Y+dst.Dy()), draw.Src, nil)
	if y <= b.painted && dst.Max.Y > b.painted {
		b.painted = dst.Max.Y
	}
}

// toRGBA returns img as *image.RGBA anchored at the origin, copying if needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(rgba, image.Point{}, img, b, draw.Src, nil)
	return rgba
}

// integrityCheck holds the thresholds for detecting a truncated capture.
type integrityCheck struct {
	tolerance      float64 // Allowed relative height deviation
	blankThreshold uint8   // Channel value above which a pixel counts as white
	stripRows      int     // Rows sampled at the bottom of the buffer
}

// heightDeviation is the relative difference between painted and expected height.
func heightDeviation(painted, expected int) float64 {
	if expected <= 0 {
		return 0
	}
	return math.Abs(float64(painted-expected)) / float64(expected)
}

// Verify checks a finished buffer against the expected device-pixel height.
// Within tolerance it returns (0, nil). Beyond tolerance it samples the
// bottom strip: a blank strip means content is missing and yields
// ErrCaptureTruncated; visible content returns the deviation so the
// caller can log it and continue.
//
// The blank-strip test is a heuristic. A document whose bottom is
// genuinely empty is indistinguishable from a truncated one.
func (c integrityCheck) Verify(b *RasterBuffer, expected int) (float64, error) {
	dev := heightDeviation(b.PaintedHeight(), expected)
	if dev <= c.tolerance {
		return 0, nil
	}
	if isBlankStrip(b.Image, c.stripRows, c.blankThreshold) {
		return dev, fmt.Errorf("%w: painted %d of %d expected rows (%.1f%% short) and the bottom %d rows are blank",
			ErrCaptureTruncated, b.PaintedHeight(), expected, dev*100, min(c.stripRows, b.Height()))
	}
	return dev, nil
}

// isBlankStrip reports whether every pixel in the bottom rows of img is
// near-white or fully transparent.
func isBlankStrip(img *image.RGBA, rows int, threshold uint8) bool {
	bounds := img.Bounds()
	if rows <= 0 || bounds.Empty() {
		return true
	}
	top := max(bounds.Max.Y-rows, bounds.Min.Y)
	for y := top; y < bounds.Max.Y; y++ {
		off := img.PixOffset(bounds.Min.X, y)
		row := img.Pix[off : off+bounds.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			if row[i+3] == 0 {
				continue
			}
			if row[i] <= threshold || row[i+1] <= threshold || row[i+2] <= threshold {
				return false
			}
		}
	}
	return true
}

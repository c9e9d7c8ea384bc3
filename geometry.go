package pagesnap

import (
	"fmt"
	"math"
)

// Insets are horizontal CSS pixel offsets between a captured box edge
// and its content (padding + margin + border on each side).
type Insets struct {
	Left  float64
	Right float64
}

// CaptureTarget is the measured geometry of the element being captured.
// All lengths are CSS pixels.
type CaptureTarget struct {
	ID            string
	Left          float64 // Page X of the captured box (margin edge)
	Top           float64 // Page Y of the captured box (border edge)
	Width         int     // Captured box width, margins included
	FullHeight    int     // Unclipped content height
	VisibleHeight int     // Height visible through clipping ancestors before normalization
	Insets        Insets
	Scale         float64
}

// boxMetrics is the raw measurement reported by the page.
type boxMetrics struct {
	Left          float64 `json:"left"`
	Top           float64 `json:"top"`
	Width         float64 `json:"width"`
	FullHeight    float64 `json:"fullHeight"`
	VisibleHeight float64 `json:"visibleHeight"`
	PaddingLeft   float64 `json:"paddingLeft"`
	PaddingRight  float64 `json:"paddingRight"`
	MarginLeft    float64 `json:"marginLeft"`
	MarginRight   float64 `json:"marginRight"`
	BorderLeft    float64 `json:"borderLeft"`
	BorderRight   float64 `json:"borderRight"`
}

// newCaptureTarget builds a CaptureTarget from page metrics.
// visibleHeight is the clipped height measured before normalization;
// the full height never reports less than it.
func newCaptureTarget(id string, m boxMetrics, visibleHeight float64, scale float64) (CaptureTarget, error) {
	width := int(math.Ceil(m.Width + m.MarginLeft + m.MarginRight))
	full := int(math.Ceil(m.FullHeight))
	visible := int(math.Ceil(visibleHeight))

	if m.Width <= 0 || full <= 0 {
		return CaptureTarget{}, fmt.Errorf("%w: #%s measured %.0fx%.0f", ErrNoDimensions, id, m.Width, m.FullHeight)
	}
	if full < visible {
		full = visible
	}

	return CaptureTarget{
		ID:            id,
		Left:          m.Left - m.MarginLeft,
		Top:           m.Top,
		Width:         width,
		FullHeight:    full,
		VisibleHeight: visible,
		Insets: Insets{
			Left:  m.PaddingLeft + m.MarginLeft + m.BorderLeft,
			Right: m.PaddingRight + m.MarginRight + m.BorderRight,
		},
		Scale: scale,
	}, nil
}

// RasterHeight is the expected device-pixel height of a complete capture.
func (t CaptureTarget) RasterHeight() int {
	return scalePx(t.FullHeight, t.Scale)
}

// RasterWidth is the expected device-pixel width of a complete capture.
func (t CaptureTarget) RasterWidth() int {
	return scalePx(t.Width, t.Scale)
}

// scalePx converts CSS pixels to device pixels.
func scalePx(px int, scale float64) int {
	return int(math.Round(float64(px) * scale))
}

// ChunkWindow is one vertical capture window in CSS pixels.
type ChunkWindow struct {
	Start  int
	Height int
}

// End returns the first row after the window.
func (w ChunkWindow) End() int {
	return w.Start + w.Height
}

// ChunkPlan is the ordered set of windows covering [0, fullHeight].
type ChunkPlan struct {
	Windows     []ChunkWindow
	ChunkHeight int // Stride between window starts
	Overlap     int
}

// Chunked reports whether the plan needs more than one capture pass.
func (p ChunkPlan) Chunked() bool {
	return len(p.Windows) > 1
}

// PlanChunks splits fullHeight into capture windows that each fit under
// maxCanvasHeight device pixels at the given scale.
//
// A single window is returned when fullHeight*scale fits. Otherwise the
// stride is floor(maxCanvasHeight/scale) - overlap, windows start at
// multiples of the stride and extend overlap pixels past the next start,
// and the last window ends exactly at fullHeight.
func PlanChunks(fullHeight int, scale float64, maxCanvasHeight, overlap int) (ChunkPlan, error) {
	if fullHeight <= 0 {
		return ChunkPlan{}, fmt.Errorf("%w: height %d", ErrNoDimensions, fullHeight)
	}
	if scale <= 0 {
		return ChunkPlan{}, fmt.Errorf("%w: scale must be positive, got %v", ErrInvalidCapture, scale)
	}

	if float64(fullHeight)*scale <= float64(maxCanvasHeight) {
		return ChunkPlan{
			Windows:     []ChunkWindow{{Start: 0, Height: fullHeight}},
			ChunkHeight: fullHeight,
		}, nil
	}

	stride := int(math.Floor(float64(maxCanvasHeight)/scale)) - overlap
	if stride <= 0 {
		return ChunkPlan{}, fmt.Errorf("%w: max canvas height %d at scale %v leaves no room for overlap %d",
			ErrInvalidCapture, maxCanvasHeight, scale, overlap)
	}

	count := (fullHeight + stride - 1) / stride
	windows := make([]ChunkWindow, 0, count)
	for i := range count {
		start := i * stride
		end := min(start+stride+overlap, fullHeight)
		windows = append(windows, ChunkWindow{Start: start, Height: end - start})
	}

	return ChunkPlan{
		Windows:     windows,
		ChunkHeight: stride,
		Overlap:     overlap,
	}, nil
}

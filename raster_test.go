package pagesnap

// Notes:
// - Stitch: painted height grows only with contiguous chunks; pixels past
//   the master are dropped
// - integrityCheck.Verify: within tolerance passes; beyond tolerance a
//   blank bottom strip is truncation, a single inked pixel is not

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// fillRows paints rows [from, to) of img with c.
func fillRows(img *image.RGBA, from, to int, c color.RGBA) {
	for y := from; y < to; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

var ink = color.RGBA{20, 20, 20, 255}

// ---------------------------------------------------------------------------
// TestRasterBuffer_Stitch - Chunk assembly
// ---------------------------------------------------------------------------

func TestRasterBuffer_Stitch(t *testing.T) {
	t.Parallel()

	master, err := newMasterBuffer(10, 300, 1)
	if err != nil {
		t.Fatalf("newMasterBuffer() error = %v", err)
	}
	if got := master.Image.RGBAAt(0, 299); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("master fill = %v, want white", got)
	}

	first := image.NewRGBA(image.Rect(0, 0, 10, 120))
	fillRows(first, 0, 120, color.RGBA{1, 0, 0, 255})
	second := image.NewRGBA(image.Rect(0, 0, 10, 120))
	fillRows(second, 0, 120, color.RGBA{2, 0, 0, 255})

	master.Stitch(first, 0)
	if master.PaintedHeight() != 120 {
		t.Errorf("PaintedHeight() after first = %d, want 120", master.PaintedHeight())
	}

	// Overlapping chunk overwrites the shared rows.
	master.Stitch(second, 100)
	if master.PaintedHeight() != 220 {
		t.Errorf("PaintedHeight() after second = %d, want 220", master.PaintedHeight())
	}
	if got := master.Image.RGBAAt(5, 99).R; got != 1 {
		t.Errorf("row 99 R = %d, want 1", got)
	}
	if got := master.Image.RGBAAt(5, 100).R; got != 2 {
		t.Errorf("row 100 R = %d, want 2", got)
	}

	// A chunk running past the bottom is clipped.
	master.Stitch(first, 250)
	if master.PaintedHeight() != 220 {
		t.Errorf("PaintedHeight() after gap = %d, want 220 (gap is not painted)", master.PaintedHeight())
	}
	if got := master.Image.RGBAAt(5, 299).R; got != 1 {
		t.Errorf("row 299 R = %d, want 1", got)
	}
}

func TestNewMasterBuffer_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := newMasterBuffer(0, 100, 1); !errors.Is(err, ErrNoDimensions) {
		t.Errorf("newMasterBuffer(0, 100) error = %v, want ErrNoDimensions", err)
	}
}

func TestToRGBA_OffsetImage(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 20, 20))
	fillRows(src, 10, 20, ink)
	sub := src.SubImage(image.Rect(0, 10, 20, 20))

	got := toRGBA(sub)
	if got.Bounds().Min != (image.Point{}) {
		t.Fatalf("Bounds().Min = %v, want origin", got.Bounds().Min)
	}
	if got.RGBAAt(0, 0) != ink {
		t.Errorf("pixel (0,0) = %v, want %v", got.RGBAAt(0, 0), ink)
	}
}

// ---------------------------------------------------------------------------
// TestIntegrityCheck_Verify - Truncation detection
// ---------------------------------------------------------------------------

func TestIntegrityCheck_Verify(t *testing.T) {
	t.Parallel()

	check := integrityCheck{tolerance: 0.05, blankThreshold: 250, stripRows: 100}

	tests := []struct {
		name     string
		height   int
		expected int
		build    func(img *image.RGBA)
		wantErr  bool
		wantDev  bool
	}{
		{
			name:     "exact height",
			height:   1000,
			expected: 1000,
			build:    func(img *image.RGBA) {},
		},
		{
			name:     "within tolerance with blank bottom",
			height:   960,
			expected: 1000,
			build:    func(img *image.RGBA) { fillRows(img, 0, 800, ink) },
		},
		{
			name:     "short with blank bottom strip",
			height:   600,
			expected: 1000,
			build:    func(img *image.RGBA) { fillRows(img, 0, 500, ink) },
			wantErr:  true,
			wantDev:  true,
		},
		{
			name:     "short with one inked pixel in the strip",
			height:   600,
			expected: 1000,
			build: func(img *image.RGBA) {
				fillRows(img, 0, 500, ink)
				img.SetRGBA(3, 590, color.RGBA{200, 255, 255, 255})
			},
			wantDev: true,
		},
		{
			name:     "short with content to the bottom",
			height:   600,
			expected: 1000,
			build:    func(img *image.RGBA) { fillRows(img, 0, 600, ink) },
			wantDev:  true,
		},
		{
			name:     "transparent strip counts as blank",
			height:   600,
			expected: 1000,
			build: func(img *image.RGBA) {
				fillRows(img, 0, 500, ink)
				fillRows(img, 500, 600, color.RGBA{0, 0, 0, 0})
			},
			wantErr: true,
			wantDev: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			img := image.NewRGBA(image.Rect(0, 0, 8, tt.height))
			fillRows(img, 0, tt.height, color.RGBA{255, 255, 255, 255})
			tt.build(img)
			buf := newRasterBuffer(img, 1)

			dev, err := check.Verify(buf, tt.expected)
			if tt.wantErr {
				if !errors.Is(err, ErrCaptureTruncated) {
					t.Fatalf("Verify() error = %v, want ErrCaptureTruncated", err)
				}
			} else if err != nil {
				t.Fatalf("Verify() unexpected error = %v", err)
			}
			if (dev > 0) != tt.wantDev {
				t.Errorf("Verify() deviation = %v, want nonzero %v", dev, tt.wantDev)
			}
		})
	}
}

func TestIntegrityCheck_Verify_ChunkedGap(t *testing.T) {
	t.Parallel()

	check := integrityCheck{tolerance: 0.05, blankThreshold: 250, stripRows: 100}

	// Only the first chunk arrived: the master is full height but its
	// painted height is short and the bottom is still the white fill.
	master, err := newMasterBuffer(8, 1000, 1)
	if err != nil {
		t.Fatalf("newMasterBuffer() error = %v", err)
	}
	chunk := image.NewRGBA(image.Rect(0, 0, 8, 400))
	fillRows(chunk, 0, 400, ink)
	master.Stitch(chunk, 0)

	if _, err := check.Verify(master, 1000); !errors.Is(err, ErrCaptureTruncated) {
		t.Errorf("Verify() error = %v, want ErrCaptureTruncated", err)
	}
}

package pagesnap

// Notes:
// - PlanPages: band heights sum to the scaled image height and the page
//   count is ceil(imageHeight / pageHeight), one fewer when rounded-up
//   bands use every row early; no band is ever empty
// - cropInsets: horizontal insets are removed at the buffer scale
// - paginate: one page per band, images placed full width at the top

import (
	"errors"
	"image"
	"math"
	"testing"
)

const mmEpsilon = 1e-6

// ---------------------------------------------------------------------------
// TestPlanPages - Band layout
// ---------------------------------------------------------------------------

func TestPlanPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		widthPx   int
		heightPx  int
		scale     float64
		pageW     float64
		pageH     float64
		wantPages int
	}{
		{"short content fits one page", 1588, 1000, 2, 210, 297, 1},
		{"5000 css px at scale 2", 1588, 10000, 2, 210, 297, 5},
		{"spills onto a third page", 1050, 3000, 1, 210, 297, 3},
		{"letter landscape", 2000, 9000, 2, 279.4, 215.9, 6},
		{"one pixel", 1, 1, 1, 210, 297, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			layout, err := PlanPages(tt.widthPx, tt.heightPx, tt.scale, tt.pageW, tt.pageH)
			if err != nil {
				t.Fatalf("PlanPages() error = %v", err)
			}

			wantHeightMM := float64(tt.heightPx) * tt.pageW / float64(tt.widthPx)
			if math.Abs(layout.ImageHeightMM-wantHeightMM) > mmEpsilon {
				t.Errorf("ImageHeightMM = %v, want %v", layout.ImageHeightMM, wantHeightMM)
			}
			if want := int(math.Ceil(wantHeightMM / tt.pageH)); layout.TotalPages() != want {
				t.Errorf("TotalPages() = %d, want ceil(%v/%v) = %d", layout.TotalPages(), wantHeightMM, tt.pageH, want)
			}
			if layout.TotalPages() != tt.wantPages {
				t.Errorf("TotalPages() = %d, want %d", layout.TotalPages(), tt.wantPages)
			}
			if layout.ImageWidthMM != tt.pageW {
				t.Errorf("ImageWidthMM = %v, want page width %v", layout.ImageWidthMM, tt.pageW)
			}

			var sumMM float64
			nextY := 0
			for i, b := range layout.Bands {
				sumMM += b.DestHeightMM
				if b.DestHeightMM > tt.pageH+mmEpsilon {
					t.Errorf("band %d DestHeightMM = %v exceeds page height", i, b.DestHeightMM)
				}
				if b.SourceY != nextY && b.SourceHeight > 0 {
					t.Errorf("band %d SourceY = %d, want %d", i, b.SourceY, nextY)
				}
				nextY = b.SourceY + b.SourceHeight
			}
			if math.Abs(sumMM-layout.ImageHeightMM) > mmEpsilon {
				t.Errorf("sum of band heights = %v, want %v", sumMM, layout.ImageHeightMM)
			}
			if nextY != tt.heightPx {
				t.Errorf("bands cover %d rows, want %d", nextY, tt.heightPx)
			}
		})
	}
}

func TestPlanPages_Exactness(t *testing.T) {
	t.Parallel()

	for h := 1; h <= 40000; h += 997 {
		for _, pageH := range []float64{297, 279.4, 210} {
			layout, err := PlanPages(1600, h, 2, 210, pageH)
			if err != nil {
				t.Fatalf("PlanPages(h=%d) error = %v", h, err)
			}
			var sum float64
			for _, b := range layout.Bands {
				sum += b.DestHeightMM
			}
			if math.Abs(sum-layout.ImageHeightMM) > mmEpsilon {
				t.Errorf("PlanPages(h=%d, page=%v) sum = %v, want %v", h, pageH, sum, layout.ImageHeightMM)
			}
			want := max(int(math.Ceil(layout.ImageHeightMM/pageH)), 1)
			if got := layout.TotalPages(); got != want && got != want-1 {
				t.Errorf("PlanPages(h=%d, page=%v) pages = %d, want %d", h, pageH, got, want)
			}
			checkBandsCoverRows(t, layout, h)
		}
	}
}

func TestPlanPages_NoEmptyTrailingPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		widthPx   int
		heightPx  int
		wantPages int
	}{
		// 31680 * 210 / 700 = 9504mm, exactly 32 A4 pages.
		{"exact fit", 700, 31680, 32},
		// 297.03mm: a second page would hold no rows.
		{"rows run out before last page", 707, 1000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			layout, err := PlanPages(tt.widthPx, tt.heightPx, 2, 210, 297)
			if err != nil {
				t.Fatalf("PlanPages() error = %v", err)
			}
			if layout.TotalPages() != tt.wantPages {
				t.Errorf("TotalPages() = %d, want %d", layout.TotalPages(), tt.wantPages)
			}
			checkBandsCoverRows(t, layout, tt.heightPx)

			var sum float64
			for _, b := range layout.Bands {
				sum += b.DestHeightMM
			}
			if math.Abs(sum-layout.ImageHeightMM) > mmEpsilon {
				t.Errorf("sum of band heights = %v, want %v", sum, layout.ImageHeightMM)
			}
		})
	}
}

// checkBandsCoverRows asserts bands are non-empty and tile [0, heightPx).
func checkBandsCoverRows(t *testing.T, layout PageLayout, heightPx int) {
	t.Helper()

	nextY := 0
	for i, b := range layout.Bands {
		if b.SourceHeight <= 0 {
			t.Errorf("band %d of %d is empty: %+v", i+1, len(layout.Bands), b)
		}
		if b.SourceY != nextY {
			t.Errorf("band %d SourceY = %d, want %d", i+1, b.SourceY, nextY)
		}
		nextY = b.SourceY + b.SourceHeight
	}
	if nextY != heightPx {
		t.Errorf("bands cover %d rows, want %d", nextY, heightPx)
	}
}

func TestPlanPages_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		w, h          int
		scale, pw, ph float64
	}{
		{"zero width", 0, 100, 2, 210, 297},
		{"zero height", 100, 0, 2, 210, 297},
		{"zero scale", 100, 100, 0, 210, 297},
		{"zero page height", 100, 100, 2, 210, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := PlanPages(tt.w, tt.h, tt.scale, tt.pw, tt.ph)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("PlanPages() error = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestCropInsets - Horizontal crop
// ---------------------------------------------------------------------------

func TestCropInsets(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 200, 50))
	b := newRasterBuffer(img, 2)

	got, err := cropInsets(b, Insets{Left: 10, Right: 15})
	if err != nil {
		t.Fatalf("cropInsets() error = %v", err)
	}
	if got.Bounds().Dx() != 150 || got.Bounds().Dy() != 50 {
		t.Errorf("cropped size = %dx%d, want 150x50", got.Bounds().Dx(), got.Bounds().Dy())
	}
	if got.Bounds().Min.X != 20 {
		t.Errorf("crop starts at x=%d, want 20", got.Bounds().Min.X)
	}
}

func TestCropInsets_Invalid(t *testing.T) {
	t.Parallel()

	b := newRasterBuffer(image.NewRGBA(image.Rect(0, 0, 100, 50)), 1)
	tests := []struct {
		name   string
		insets Insets
	}{
		{"insets wider than buffer", Insets{Left: 60, Right: 40}},
		{"negative inset", Insets{Left: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := cropInsets(b, tt.insets); !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("cropInsets() error = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPaginate - Writing bands to a document
// ---------------------------------------------------------------------------

func TestPaginate(t *testing.T) {
	t.Parallel()

	// 800 CSS px wide, 3000 tall at scale 2: 787.5mm on A4, so 3 pages.
	b := newRasterBuffer(image.NewRGBA(image.Rect(0, 0, 1600, 6000)), 2)
	doc := &fakeDocument{}

	layout, err := paginate(doc, b, Insets{}, DefaultPageSettings())
	if err != nil {
		t.Fatalf("paginate() error = %v", err)
	}
	if layout.TotalPages() != 3 {
		t.Fatalf("TotalPages() = %d, want 3", layout.TotalPages())
	}
	if doc.pages != 3 || len(doc.images) != 3 {
		t.Fatalf("document has %d pages and %d images, want 3 and 3", doc.pages, len(doc.images))
	}

	rows := 0
	for i, p := range doc.images {
		if p.x != 0 || p.y != 0 {
			t.Errorf("image %d placed at (%v, %v), want (0, 0)", i, p.x, p.y)
		}
		if p.w != 210 {
			t.Errorf("image %d width = %vmm, want 210", i, p.w)
		}
		rows += p.bounds.Dy()
	}
	if rows != 6000 {
		t.Errorf("images cover %d rows, want 6000", rows)
	}
	if last := doc.images[2].h; math.Abs(last-(787.5-2*297)) > mmEpsilon {
		t.Errorf("last page height = %vmm, want %vmm", last, 787.5-2*297)
	}
}

func TestPaginate_NoBlankPage(t *testing.T) {
	t.Parallel()

	b := newRasterBuffer(image.NewRGBA(image.Rect(0, 0, 707, 1000)), 2)
	doc := &fakeDocument{}

	layout, err := paginate(doc, b, Insets{}, DefaultPageSettings())
	if err != nil {
		t.Fatalf("paginate() error = %v", err)
	}
	if doc.pages != 1 || len(doc.images) != 1 {
		t.Fatalf("document has %d pages and %d images, want 1 and 1", doc.pages, len(doc.images))
	}
	if got := doc.images[0].h; math.Abs(got-layout.ImageHeightMM) > mmEpsilon {
		t.Errorf("image height = %vmm, want %vmm", got, layout.ImageHeightMM)
	}
}

func TestPaginate_CropsInsets(t *testing.T) {
	t.Parallel()

	b := newRasterBuffer(image.NewRGBA(image.Rect(0, 0, 1000, 500)), 2)
	doc := &fakeDocument{}

	if _, err := paginate(doc, b, Insets{Left: 50, Right: 50}, DefaultPageSettings()); err != nil {
		t.Fatalf("paginate() error = %v", err)
	}
	if got := doc.images[0].bounds.Dx(); got != 800 {
		t.Errorf("image width = %dpx, want 800", got)
	}
}

func TestPaginate_AddImageError(t *testing.T) {
	t.Parallel()

	b := newRasterBuffer(image.NewRGBA(image.Rect(0, 0, 100, 100)), 1)
	doc := &fakeDocument{addErr: ErrEncodingFailure}

	if _, err := paginate(doc, b, Insets{}, DefaultPageSettings()); !errors.Is(err, ErrEncodingFailure) {
		t.Errorf("paginate() error = %v, want ErrEncodingFailure", err)
	}
}

package pagesnap

import (
	"fmt"
	"image"
	"math"
)

// PageBand is one page's slice of the cropped raster.
type PageBand struct {
	SourceY      int     // First raster row
	SourceHeight int     // Raster rows in the slice
	DestHeightMM float64 // Height placed on the page
}

// PageLayout describes how a cropped raster maps onto pages.
type PageLayout struct {
	PageWidthMM   float64
	PageHeightMM  float64
	ImageWidthMM  float64 // Always PageWidthMM
	ImageHeightMM float64
	Bands         []PageBand
}

// TotalPages returns the number of pages in the layout.
func (l PageLayout) TotalPages() int {
	return len(l.Bands)
}

// pixelsPerMM returns raster pixels per millimeter at the CSS 96 DPI
// baseline multiplied by scale.
func pixelsPerMM(scale float64) float64 {
	return cssDPI * scale / mmPerInch
}

// cropInsets removes the horizontal insets from a buffer, leaving the
// content box at full height. The returned image shares pixels with b.
func cropInsets(b *RasterBuffer, insets Insets) (*image.RGBA, error) {
	left := int(math.Round(insets.Left * b.Scale))
	right := int(math.Round(insets.Right * b.Scale))
	width := b.Width() - left - right
	height := b.Height()

	if left < 0 || right < 0 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: buffer %dx%d with insets left=%d right=%d leaves %dx%d",
			ErrInvalidGeometry, b.Width(), b.Height(), left, right, width, height)
	}

	bounds := b.Image.Bounds()
	rect := image.Rect(bounds.Min.X+left, bounds.Min.Y, bounds.Min.X+left+width, bounds.Max.Y)
	return b.Image.SubImage(rect).(*image.RGBA), nil
}

// pageFitTolerance absorbs float noise when content fits a whole number
// of pages.
const pageFitTolerance = 1e-9

// PlanPages maps a widthPx x heightPx raster captured at scale onto
// pages of pageWidthMM x pageHeightMM. The image is scaled to the page
// width; bands are emitted top to bottom without overlap, and their
// destination heights sum to the scaled image height. Every band holds
// at least one raster row.
func PlanPages(widthPx, heightPx int, scale, pageWidthMM, pageHeightMM float64) (PageLayout, error) {
	if widthPx <= 0 || heightPx <= 0 {
		return PageLayout{}, fmt.Errorf("%w: raster %dx%d", ErrInvalidGeometry, widthPx, heightPx)
	}
	if scale <= 0 || pageWidthMM <= 0 || pageHeightMM <= 0 {
		return PageLayout{}, fmt.Errorf("%w: scale %v page %.1fx%.1fmm", ErrInvalidGeometry, scale, pageWidthMM, pageHeightMM)
	}

	ppmm := pixelsPerMM(scale)
	widthMM := float64(widthPx) / ppmm
	heightMM := float64(heightPx) / ppmm
	factor := pageWidthMM / widthMM
	imageHeightMM := heightMM * factor

	layout := PageLayout{
		PageWidthMM:   pageWidthMM,
		PageHeightMM:  pageHeightMM,
		ImageWidthMM:  pageWidthMM,
		ImageHeightMM: imageHeightMM,
	}

	total := int(math.Ceil(imageHeightMM/pageHeightMM - pageFitTolerance))
	if total <= 1 {
		layout.Bands = []PageBand{{SourceY: 0, SourceHeight: heightPx, DestHeightMM: imageHeightMM}}
		return layout, nil
	}

	perPage := int(math.Ceil(pageHeightMM * (float64(heightPx) / imageHeightMM)))
	layout.Bands = make([]PageBand, 0, total)
	for i := range total {
		srcY := i * perPage
		remaining := imageHeightMM - float64(i)*pageHeightMM
		if srcY >= heightPx {
			// Rounded-up bands used every row early; the leftover
			// millimetres stay on the last band with content.
			layout.Bands[len(layout.Bands)-1].DestHeightMM += remaining
			break
		}
		srcH := min(perPage, heightPx-srcY)
		layout.Bands = append(layout.Bands, PageBand{
			SourceY:      srcY,
			SourceHeight: srcH,
			DestHeightMM: math.Min(pageHeightMM, remaining),
		})
	}
	return layout, nil
}

// paginate crops the buffer, plans pages, and writes each band to doc.
func paginate(doc documentBuilder, b *RasterBuffer, insets Insets, page *PageSettings) (PageLayout, error) {
	content, err := cropInsets(b, insets)
	if err != nil {
		return PageLayout{}, err
	}

	pageW, pageH := page.DimensionsMM()
	bounds := content.Bounds()
	layout, err := PlanPages(bounds.Dx(), bounds.Dy(), b.Scale, pageW, pageH)
	if err != nil {
		return PageLayout{}, err
	}

	for i, band := range layout.Bands {
		doc.AddPage()
		rect := image.Rect(bounds.Min.X, bounds.Min.Y+band.SourceY, bounds.Max.X, bounds.Min.Y+band.SourceY+band.SourceHeight)
		slice := content.SubImage(rect)
		if err := doc.AddImage(slice, 0, 0, layout.ImageWidthMM, band.DestHeightMM); err != nil {
			return PageLayout{}, fmt.Errorf("page %d of %d: %w", i+1, layout.TotalPages(), err)
		}
	}
	return layout, nil
}

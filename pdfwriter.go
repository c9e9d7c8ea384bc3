package pagesnap

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"time"

	"github.com/go-pdf/fpdf"
)

// documentBuilder abstracts the PDF writer so pagination can be tested
// without producing real PDF bytes.
type documentBuilder interface {
	AddPage()
	AddImage(img image.Image, x, y, w, h float64) error
	Bytes() ([]byte, error)
}

// Compile-time interface check.
var _ documentBuilder = (*fpdfDocument)(nil)

// fpdfDocument writes full-bleed image pages with go-pdf/fpdf.
type fpdfDocument struct {
	pdf     *fpdf.Fpdf
	format  ImageFormat
	quality int
	images  int
}

// newFpdfDocument creates a millimeter-based document with zero margins.
func newFpdfDocument(page *PageSettings, format ImageFormat, quality int, title string) *fpdfDocument {
	w, h := page.DimensionsMM()
	orientation := "P"
	if w > h {
		orientation = "L"
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("pagesnap", true)
	pdf.SetCreationDate(time.Now())
	if title != "" {
		pdf.SetTitle(title, true)
	}
	return &fpdfDocument{pdf: pdf, format: format, quality: quality}
}

func (d *fpdfDocument) AddPage() {
	d.pdf.AddPage()
}

// AddImage encodes img and places it at (x, y) with size w x h millimeters.
func (d *fpdfDocument) AddImage(img image.Image, x, y, w, h float64) error {
	var buf bytes.Buffer
	imageType := "PNG"
	switch d.format {
	case ImageFormatJPEG:
		imageType = "JPG"
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: d.quality}); err != nil {
			return fmt.Errorf("%w: %v", ErrEncodingFailure, err)
		}
	default:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, img); err != nil {
			return fmt.Errorf("%w: %v", ErrEncodingFailure, err)
		}
	}

	d.images++
	name := fmt.Sprintf("slice-%d", d.images)
	opts := fpdf.ImageOptions{ImageType: imageType}
	d.pdf.RegisterImageOptionsReader(name, opts, &buf)
	if d.pdf.Err() {
		return fmt.Errorf("%w: %v", ErrEncodingFailure, d.pdf.Error())
	}
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if d.pdf.Err() {
		return fmt.Errorf("%w: %v", ErrEncodingFailure, d.pdf.Error())
	}
	return nil
}

// Bytes finalizes the document.
func (d *fpdfDocument) Bytes() ([]byte, error) {
	var out bytes.Buffer
	if err := d.pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return out.Bytes(), nil
}

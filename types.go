package pagesnap

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Page size constants.
const (
	PageSizeA4     = "a4"
	PageSizeLetter = "letter"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// pageDimensionsMM maps page sizes to portrait width and height in millimeters.
var pageDimensionsMM = map[string][2]float64{
	PageSizeA4:     {210, 297},
	PageSizeLetter: {215.9, 279.4},
	PageSizeLegal:  {215.9, 355.6},
}

// PageSettings configures the physical PDF page.
type PageSettings struct {
	Size        string // "a4", "letter", "legal"
	Orientation string // "portrait", "landscape"
}

// DefaultPageSettings returns A4 portrait.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationPortrait,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
// Empty fields fall back to defaults; comparison is case-insensitive.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	if p.Size != "" {
		if _, ok := pageDimensionsMM[strings.ToLower(p.Size)]; !ok {
			return fmt.Errorf("%w: %q (must be a4, letter, or legal)", ErrInvalidPageSize, p.Size)
		}
	}
	switch strings.ToLower(p.Orientation) {
	case "", OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q (must be portrait or landscape)", ErrInvalidOrientation, p.Orientation)
	}
	return nil
}

// DimensionsMM returns the page width and height in millimeters,
// swapped for landscape. Unknown or empty sizes resolve to A4.
func (p *PageSettings) DimensionsMM() (width, height float64) {
	size := PageSizeA4
	landscape := false
	if p != nil {
		if s := strings.ToLower(p.Size); s != "" {
			size = s
		}
		landscape = strings.EqualFold(p.Orientation, OrientationLandscape)
	}
	dims, ok := pageDimensionsMM[size]
	if !ok {
		dims = pageDimensionsMM[PageSizeA4]
	}
	if landscape {
		return dims[1], dims[0]
	}
	return dims[0], dims[1]
}

// Mode selects how the document is turned into a PDF.
type Mode string

const (
	// ModeRaster captures the target as an image and paginates it.
	ModeRaster Mode = "raster"

	// ModePrint clones the target into a standalone document and lets
	// Chrome paginate it with its native print-to-PDF.
	ModePrint Mode = "print"
)

// Validate checks that the mode is known. The zero value means ModeRaster.
func (m Mode) Validate() error {
	switch m {
	case "", ModeRaster, ModePrint:
		return nil
	}
	return fmt.Errorf("%w: %q (must be raster or print)", ErrInvalidMode, string(m))
}

// DefaultTargetID is the element id used when Input.TargetID is empty.
const DefaultTargetID = "cv-preview-content"

// DefaultFilename is the output name used when Input.Filename is empty.
const DefaultFilename = "document.pdf"

// Input contains generation parameters.
type Input struct {
	HTML      string        // Complete HTML document (required)
	SourceDir string        // Base directory for relative resources (optional)
	TargetID  string        // Element id to capture (default: DefaultTargetID)
	Filename  string        // Name to save the PDF under (default: DefaultFilename)
	Page      *PageSettings // Page settings (optional, nil = A4 portrait)
	Mode      Mode          // Raster (default) or print

	// Isolated loads HTML without a file URL and fails every request the
	// page makes, so only inline and data: resources render. SourceDir is
	// ignored. Set it for HTML from untrusted clients.
	Isolated bool
}

// Result holds the generated PDF and facts about how it was produced.
type Result struct {
	PDF      []byte
	Filename string
	Mode     Mode
	Pages    int // Page count (0 in print mode, where Chrome paginates)
	Chunks   int // Capture passes (1 = single pass)

	// Raster dimensions in device pixels before cropping.
	RasterWidth  int
	RasterHeight int
}

// ImageFormat selects how page slices are embedded in the PDF.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatJPEG ImageFormat = "jpeg"
)

// Capture defaults.
const (
	DefaultScale           = 2.0
	DefaultMaxCanvasHeight = 30000
	DefaultChunkOverlap    = 100
	DefaultBlankThreshold  = 250
	DefaultHeightTolerance = 0.05
	DefaultBlankStripRows  = 100
	DefaultSettleTimeout   = 300 * time.Millisecond
	DefaultViewportWidth   = 1280
	DefaultViewportHeight  = 1024
	DefaultJPEGQuality     = 92

	// cssDPI is the CSS reference resolution: 96 px per inch.
	cssDPI    = 96.0
	mmPerInch = 25.4
)

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 60 * time.Second

// captureConfig holds the tunables shared by the capture engine and paginator.
type captureConfig struct {
	scale           float64
	maxCanvasHeight int
	chunkOverlap    int
	blankThreshold  uint8
	heightTolerance float64
	blankStripRows  int
	settleTimeout   time.Duration
	viewportWidth   int
	imageFormat     ImageFormat
	jpegQuality     int
}

func defaultCaptureConfig() captureConfig {
	return captureConfig{
		scale:           DefaultScale,
		maxCanvasHeight: DefaultMaxCanvasHeight,
		chunkOverlap:    DefaultChunkOverlap,
		blankThreshold:  DefaultBlankThreshold,
		heightTolerance: DefaultHeightTolerance,
		blankStripRows:  DefaultBlankStripRows,
		settleTimeout:   DefaultSettleTimeout,
		viewportWidth:   DefaultViewportWidth,
		imageFormat:     ImageFormatPNG,
		jpegQuality:     DefaultJPEGQuality,
	}
}

// validate rejects settings that would make chunk planning impossible.
func (c captureConfig) validate() error {
	if c.scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %v", ErrInvalidCapture, c.scale)
	}
	logical := int(float64(c.maxCanvasHeight) / c.scale)
	if c.chunkOverlap < 0 || logical-c.chunkOverlap <= 0 {
		return fmt.Errorf("%w: max canvas height %d at scale %v leaves no room for overlap %d",
			ErrInvalidCapture, c.maxCanvasHeight, c.scale, c.chunkOverlap)
	}
	if c.heightTolerance < 0 {
		return fmt.Errorf("%w: height tolerance must not be negative", ErrInvalidCapture)
	}
	if c.viewportWidth <= 0 {
		return fmt.Errorf("%w: viewport width must be positive", ErrInvalidCapture)
	}
	switch c.imageFormat {
	case ImageFormatPNG, ImageFormatJPEG:
	default:
		return fmt.Errorf("%w: %q (must be png or jpeg)", ErrInvalidImageFormat, string(c.imageFormat))
	}
	return nil
}

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout   time.Duration
	capture   captureConfig
	logger    *slog.Logger
	assetPath string
}

// Option configures a Converter.
type Option func(*Converter)

// WithTimeout sets the per-document timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("pagesnap: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithScale sets the device pixel scale used for capture.
func WithScale(scale float64) Option {
	return func(c *Converter) {
		c.cfg.capture.scale = scale
	}
}

// WithMaxCanvasHeight sets the tallest raster, in device pixels,
// captured in a single pass.
func WithMaxCanvasHeight(px int) Option {
	return func(c *Converter) {
		c.cfg.capture.maxCanvasHeight = px
	}
}

// WithChunkOverlap sets the overlap, in CSS pixels, between capture chunks.
func WithChunkOverlap(px int) Option {
	return func(c *Converter) {
		c.cfg.capture.chunkOverlap = px
	}
}

// WithSettleTimeout bounds each wait for layout to settle.
func WithSettleTimeout(d time.Duration) Option {
	return func(c *Converter) {
		c.cfg.capture.settleTimeout = d
	}
}

// WithViewportWidth sets the browser viewport width in CSS pixels.
func WithViewportWidth(px int) Option {
	return func(c *Converter) {
		c.cfg.capture.viewportWidth = px
	}
}

// WithImageFormat sets how page slices are embedded. quality only applies to JPEG.
func WithImageFormat(format ImageFormat, quality int) Option {
	return func(c *Converter) {
		c.cfg.capture.imageFormat = format
		if quality > 0 {
			c.cfg.capture.jpegQuality = quality
		}
	}
}

// WithLogger sets the structured logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.cfg.logger = l
		}
	}
}

// WithAssetPath loads styles and templates from dir, falling back to the
// built-in assets for anything dir does not provide.
func WithAssetPath(dir string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = dir
	}
}

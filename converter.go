package pagesnap

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-pagesnap/internal/assets"
	"github.com/alnah/go-pagesnap/internal/fileutil"
	"github.com/alnah/go-pagesnap/internal/pipeline"
)

// Converter renders an element of an HTML document to PDF.
// Create with NewConverter, use Convert for each document, and Close when done.
//
// A Converter owns one headless browser and runs one document at a time;
// concurrent Convert calls queue. Use ConverterPool for parallel work.
type Converter struct {
	cfg      converterConfig
	renderer renderer
	engine   *captureEngine
	assets   assets.AssetLoader
	markdown *pipeline.GoldmarkConverter

	// newDocument creates the PDF builder for one run. Tests replace it.
	newDocument func(page *PageSettings, title string) documentBuilder

	mu sync.Mutex
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithScale, WithLogger).
// Returns ErrInvalidCapture or ErrInvalidImageFormat for unusable settings.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout: defaultTimeout,
			capture: defaultCaptureConfig(),
			logger:  slog.New(slog.DiscardHandler),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.cfg.capture.validate(); err != nil {
		return nil, err
	}

	resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	c.assets = resolver
	c.markdown = pipeline.NewGoldmarkConverter()

	c.engine = &captureEngine{cfg: c.cfg.capture, log: c.cfg.logger}
	c.newDocument = func(page *PageSettings, title string) documentBuilder {
		return newFpdfDocument(page, c.cfg.capture.imageFormat, c.cfg.capture.jpegQuality, title)
	}

	// Create renderer if not injected (e.g., by tests)
	if c.renderer == nil {
		c.renderer = newRodRenderer(c.cfg.timeout)
	}

	return c, nil
}

// withRenderer replaces the browser renderer (used by tests).
func withRenderer(r renderer) Option {
	return func(c *Converter) {
		c.renderer = r
	}
}

// Convert loads input.HTML in the browser and renders the target element
// to PDF. The page is always restored and closed before Convert returns;
// a failed run never yields partial output.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := validateInput(input); err != nil {
		return nil, err
	}
	input = withInputDefaults(input)

	src := pageSource{HTML: input.HTML, Isolated: input.Isolated}
	if !input.Isolated {
		htmlContent := input.HTML
		if input.SourceDir != "" {
			htmlContent, err = pipeline.RewriteRelativePaths(htmlContent, input.SourceDir)
			if err != nil {
				return nil, stageErr(StageLoad, fmt.Errorf("rewriting relative paths: %w", err))
			}
		}

		path, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
		if err != nil {
			return nil, stageErr(StageLoad, err)
		}
		defer cleanup()
		src = pageSource{FilePath: path}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	start := time.Now()
	log := c.cfg.logger.With("target", input.TargetID, "mode", string(input.Mode), "isolated", input.Isolated)

	session, err := c.renderer.Open(ctx, src, c.cfg.capture.viewportWidth)
	if err != nil {
		return nil, stageErr(StageLoad, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("closing page", "error", cerr)
		}
	}()
	log.Debug("page loaded", "elapsed", time.Since(start))

	switch input.Mode {
	case ModePrint:
		result, err = c.renderPrint(ctx, session, input, log)
	default:
		result, err = c.renderRaster(ctx, session, input, log)
	}
	if err != nil {
		log.Debug("conversion failed", "error", err, "elapsed", time.Since(start))
		return nil, err
	}

	log.Info("document rendered",
		"filename", result.Filename,
		"pages", result.Pages,
		"chunks", result.Chunks,
		"bytes", len(result.PDF),
		"elapsed", time.Since(start),
	)
	return result, nil
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

// validateInput checks that required fields are present and valid.
//
// This is the trust boundary for library users who build Input manually.
// CLI and HTTP callers are validated earlier and converge here.
func validateInput(input Input) error {
	if strings.TrimSpace(input.HTML) == "" {
		return ErrEmptyHTML
	}
	if err := validateTargetID(input.TargetID); err != nil {
		return err
	}
	if err := input.Page.Validate(); err != nil {
		return err
	}
	if err := input.Mode.Validate(); err != nil {
		return err
	}
	return nil
}

// validateTargetID rejects ids that cannot name a single element.
// Empty means DefaultTargetID.
func validateTargetID(id string) error {
	if id == "" {
		return nil
	}
	if strings.ContainsAny(id, " \t\r\n\x00") {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidTargetID, id)
	}
	return nil
}

// withInputDefaults fills empty optional fields.
func withInputDefaults(input Input) Input {
	if input.TargetID == "" {
		input.TargetID = DefaultTargetID
	}
	if input.Filename == "" {
		input.Filename = DefaultFilename
	}
	if input.Page == nil {
		input.Page = DefaultPageSettings()
	}
	if input.Mode == "" {
		input.Mode = ModeRaster
	}
	return input
}

// documentTitle derives the PDF title from the output file name.
func documentTitle(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

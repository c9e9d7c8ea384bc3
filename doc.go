// Package pagesnap renders one element of an HTML page to a paginated PDF
// using headless Chrome.
//
// # Quick Start
//
// Create a converter, convert a page, and close when done:
//
//	conv, err := pagesnap.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, pagesnap.Input{
//	    HTML:     page,
//	    TargetID: "cv-preview-content",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.Filename, result.PDF, 0644)
//
// # Raster Pipeline
//
// The default mode captures the element as pixels:
//
//  1. Locate the element and wait for its images
//  2. Lift max-height and overflow clipping on the element and its ancestors
//  3. Measure the full content height
//  4. Capture, in chunks when the raster would exceed the canvas limit
//  5. Verify the capture is not truncated
//  6. Slice the raster into page-height bands and write the PDF
//
// The page's inline styles are restored on every path, including failures.
// Errors carry the failing stage; use errors.As with *StageError, and
// errors.Is with the sentinel errors (ErrTargetNotFound, ErrCaptureTruncated,
// and so on).
//
// # Print Mode
//
// ModePrint skips capture: the element is cloned into a standalone document
// with the page's stylesheets and Chrome's print-to-PDF paginates it. Text
// stays selectable but layout follows print CSS rather than the screen.
//
// # Untrusted HTML
//
// Set Input.Isolated for documents from untrusted sources. The HTML is
// loaded into a blank page rather than a file URL and every request the
// page makes is refused, so it cannot embed local files or reach other
// hosts. Inline and data: resources still render.
//
// # Markdown and Certificates
//
// ConvertMarkdown renders Markdown (with optional YAML front matter) inside
// the CV preview container; ConvertCertificate fills the built-in
// publication certificate template. Both feed the same pipeline.
//
// # Configuration
//
//	conv, err := pagesnap.NewConverter(
//	    pagesnap.WithTimeout(2 * time.Minute),
//	    pagesnap.WithScale(3),
//	    pagesnap.WithMaxCanvasHeight(16384),
//	    pagesnap.WithImageFormat(pagesnap.ImageFormatJPEG, 90),
//	    pagesnap.WithLogger(slog.Default()),
//	)
//
// # Parallel Processing
//
// A Converter runs one document at a time. For batch work use ConverterPool:
//
//	pool := pagesnap.NewConverterPool(4)
//	defer pool.Close()
//
//	conv, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
package pagesnap

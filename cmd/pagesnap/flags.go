package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage wraps flag parsing and argument errors.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
}

// captureFlags holds target selection and rasterization flags.
type captureFlags struct {
	target        string
	mode          string
	scale         float64
	maxCanvas     int
	overlap       int
	settleTimeout string
	viewportWidth int
	imageFormat   string
	jpegQuality   int
	timeout       string
	assetPath     string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common  commonFlags
	output  string
	workers int
	css     string
	page    pageFlags
	capture captureFlags
}

// certificateFlags holds flags for the certificate command.
type certificateFlags struct {
	common  commonFlags
	output  string
	workers int
	css     string
	page    pageFlags
	capture captureFlags
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common  commonFlags
	addr    string
	workers int
	maxBody int64
	page    pageFlags
	capture captureFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show stage timings")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: a4, letter, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
}

// addCaptureFlags adds target and rasterization flags to a FlagSet.
func addCaptureFlags(fs *flag.FlagSet, f *captureFlags) {
	fs.StringVarP(&f.target, "target", "t", "", "id of the element to capture")
	fs.StringVarP(&f.mode, "mode", "m", "", "render mode: raster, print")
	fs.Float64Var(&f.scale, "scale", 0, "device pixel scale (default 2)")
	fs.IntVar(&f.maxCanvas, "max-canvas-height", 0, "tallest single capture in device pixels")
	fs.IntVar(&f.overlap, "chunk-overlap", 0, "overlap between capture chunks in CSS pixels")
	fs.StringVar(&f.settleTimeout, "settle-timeout", "", "wait for layout to settle (e.g. 300ms)")
	fs.IntVar(&f.viewportWidth, "viewport-width", 0, "browser viewport width in CSS pixels")
	fs.StringVar(&f.imageFormat, "image-format", "", "page image encoding: png, jpeg")
	fs.IntVar(&f.jpegQuality, "jpeg-quality", 0, "JPEG quality (1-100)")
	fs.StringVar(&f.timeout, "timeout", "", "per-document timeout (e.g. 90s, 2m)")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory overriding built-in styles and templates")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

// parseConvertFlags parses convert flags and returns the positional inputs.
func parseConvertFlags(args []string) (*convertFlags, *flag.FlagSet, error) {
	f := &convertFlags{}
	fs := newFlagSet("convert")
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.StringVar(&f.css, "css", "", "extra CSS file for Markdown sources")
	addPageFlags(fs, &f.page)
	addCaptureFlags(fs, &f.capture)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// parseCertificateFlags parses certificate flags and returns the positional YAML files.
func parseCertificateFlags(args []string) (*certificateFlags, *flag.FlagSet, error) {
	f := &certificateFlags{}
	fs := newFlagSet("certificate")
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.StringVar(&f.css, "css", "", "extra CSS appended to the certificate style")
	addPageFlags(fs, &f.page)
	addCaptureFlags(fs, &f.capture)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// parseServeFlags parses serve flags; serve takes no positional arguments.
func parseServeFlags(args []string) (*serveFlags, *flag.FlagSet, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve")
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default 127.0.0.1:8080)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.Int64Var(&f.maxBody, "max-body-bytes", 0, "request body limit in bytes")
	addPageFlags(fs, &f.page)
	addCaptureFlags(fs, &f.capture)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("%w: serve takes no arguments, got %q", ErrUsage, fs.Args())
	}
	return f, fs, nil
}

func parse(fs *flag.FlagSet, args []string) error {
	fs.Usage = func() {}
	fs.SetOutput(io.Discard) // runMain reports errors
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

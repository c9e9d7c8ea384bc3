package pagesnap

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-pagesnap/internal/process"
)

// renderer abstracts the browser so the converter can be tested without Chrome.
type renderer interface {
	// Open loads src into a new page sized to viewportWidth.
	Open(ctx context.Context, src pageSource, viewportWidth int) (pageSession, error)

	// PrintHTML renders a standalone document in a new page with the
	// browser's native print-to-PDF. Isolated pages make no requests.
	PrintHTML(ctx context.Context, htmlContent string, page *PageSettings, isolated bool) ([]byte, error)

	Close() error
}

// pageSource is the document Open loads: a local HTML file, or for
// isolated renders the HTML itself set on a blank page.
type pageSource struct {
	FilePath string
	HTML     string
	Isolated bool
}

// pageSession is an open page the pipeline can drive.
type pageSession interface {
	pageSurface
	Close() error
}

// Compile-time interface checks.
var (
	_ renderer    = (*rodRenderer)(nil)
	_ pageSession = (*rodPage)(nil)
)

// rodRenderer implements renderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// newRodRenderer creates a rodRenderer with the given page load timeout.
func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New().Headless(true)

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher = l

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		r.killLauncher()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources and reaps Chrome's child processes.
func (r *rodRenderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.killLauncher()
	return err
}

func (r *rodRenderer) killLauncher() {
	if r.launcher == nil {
		return
	}
	pid := r.launcher.PID()
	r.launcher.Kill()
	if pid > 0 {
		process.KillProcessGroup(pid)
	}
	r.launcher.Cleanup()
	r.launcher = nil
}

// loadTimeout returns the time left before ctx's deadline, or the
// renderer default when ctx has none.
func (r *rodRenderer) loadTimeout(ctx context.Context) (time.Duration, error) {
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return 0, context.DeadlineExceeded
		}
	}
	return timeout, nil
}

// Open creates a page for src and waits for it to load.
func (r *rodRenderer) Open(ctx context.Context, src pageSource, viewportWidth int) (pageSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	session := &rodPage{page: page}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            DefaultViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}
	if src.Isolated {
		if session.router, err = blockRequests(page); err != nil {
			_ = session.Close()
			return nil, fmt.Errorf("%w: blocking requests: %v", ErrPageCreate, err)
		}
	}

	timeout, err := r.loadTimeout(ctx)
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	loading := page.Context(ctx).Timeout(timeout)
	defer loading.CancelTimeout()

	if src.Isolated {
		err = loading.SetDocumentContent(src.HTML)
	} else {
		err = loading.Navigate("file://" + src.FilePath)
	}
	if err == nil {
		err = loading.WaitLoad()
	}
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	return session, nil
}

// blockRequests fails every request the page sends. A document set with
// SetDocumentContent has no file origin, so what remains is inline and
// data: content.
func blockRequests(page *rod.Page) (*rod.HijackRouter, error) {
	router := page.HijackRequests()
	if err := router.Add("*", "", func(h *rod.Hijack) {
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
	}); err != nil {
		return nil, err
	}
	go router.Run()
	return router, nil
}

// PrintHTML opens the print document in its own page and prints it
// without margins at the requested paper size.
func (r *rodRenderer) PrintHTML(ctx context.Context, htmlContent string, settings *PageSettings, isolated bool) ([]byte, error) {
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrintWindowBlocked, err)
	}
	defer page.Close()

	if isolated {
		router, err := blockRequests(page)
		if err != nil {
			return nil, fmt.Errorf("%w: blocking requests: %v", ErrPageCreate, err)
		}
		defer func() { _ = router.Stop() }()
	}

	timeout, err := r.loadTimeout(ctx)
	if err != nil {
		return nil, err
	}
	page = page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()

	if err := page.SetDocumentContent(htmlContent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	w, h := settings.DimensionsMM()
	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(w / mmPerInch),
		PaperHeight:       floatPtr(h / mmPerInch),
		MarginTop:         floatPtr(0),
		MarginBottom:      floatPtr(0),
		MarginLeft:        floatPtr(0),
		MarginRight:       floatPtr(0),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

package pagesnap

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Compile-time interface check.
var _ pageSurface = (*rodPage)(nil)

// rodPage implements pageSurface on a Chrome page.
type rodPage struct {
	page   *rod.Page
	router *rod.HijackRouter // Set on isolated pages
}

// eval runs a page script with ctx and decodes its result into out.
// A null result leaves out untouched and reports ok=false.
func (p *rodPage) eval(ctx context.Context, out any, js string, args ...any) (bool, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return false, err
	}
	if res.Value.Nil() {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := res.Value.Unmarshal(out); err != nil {
		return false, fmt.Errorf("decoding script result: %w", err)
	}
	return true, nil
}

func (p *rodPage) HasElement(ctx context.Context, id string) (bool, error) {
	var found bool
	if _, err := p.eval(ctx, &found, jsHasElement, id); err != nil {
		return false, err
	}
	return found, nil
}

func (p *rodPage) WaitImages(ctx context.Context, id string) (int, error) {
	var n int
	if _, err := p.eval(ctx, &n, jsWaitImages, id); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *rodPage) Settle(ctx context.Context, timeout time.Duration) error {
	_, err := p.eval(ctx, nil, jsSettle, timeout.Milliseconds())
	return err
}

func (p *rodPage) Measure(ctx context.Context, id string) (boxMetrics, error) {
	var m boxMetrics
	ok, err := p.eval(ctx, &m, jsMeasure, id)
	if err != nil {
		return boxMetrics{}, err
	}
	if !ok {
		return boxMetrics{}, fmt.Errorf("%w: #%s", ErrTargetNotFound, id)
	}
	return m, nil
}

func (p *rodPage) CollectStyles(ctx context.Context, id string, props []string) ([]elementStyle, error) {
	var styles []elementStyle
	ok, err := p.eval(ctx, &styles, jsCollectStyles, id, props)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: #%s", ErrTargetNotFound, id)
	}
	return styles, nil
}

func (p *rodPage) ApplyStyles(ctx context.Context, patches []stylePatch) error {
	_, err := p.eval(ctx, nil, jsApplyStyles, patches)
	return err
}

func (p *rodPage) ReleaseStyles(ctx context.Context) error {
	_, err := p.eval(ctx, nil, jsReleaseStyles)
	return err
}

func (p *rodPage) ShiftTarget(ctx context.Context, id string, offset int) error {
	var ok bool
	if _, err := p.eval(ctx, &ok, jsShift, id, offset); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: #%s", ErrTargetNotFound, id)
	}
	return nil
}

func (p *rodPage) UnshiftTarget(ctx context.Context, id string) error {
	_, err := p.eval(ctx, nil, jsUnshift, id)
	return err
}

// Capture takes a PNG screenshot of the clip and decodes it.
func (p *rodPage) Capture(ctx context.Context, clip captureClip) (image.Image, error) {
	data, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      clip.X,
			Y:      clip.Y,
			Width:  clip.Width,
			Height: clip.Height,
			Scale:  clip.Scale,
		},
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	return img, nil
}

func (p *rodPage) PrintDocument(ctx context.Context, id string, page *PageSettings) (string, error) {
	w, h := page.DimensionsMM()
	var doc string
	ok, err := p.eval(ctx, &doc, jsPrintDocument, id, w, h)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: #%s", ErrTargetNotFound, id)
	}
	return doc, nil
}

// Close stops request blocking and closes the browser tab.
func (p *rodPage) Close() error {
	if p.router != nil {
		_ = p.router.Stop()
	}
	return p.page.Close()
}

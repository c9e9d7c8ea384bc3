package pagesnap

// Notes:
// - fakePage models one target element inside a clipping ancestor. Before
//   normalization Measure reports the clipped height; after an !important
//   max-height override it reports the full height.
// - Captured rows encode their CSS row (red = row % 200) so stitching can
//   be checked pixel by pixel.
// - paintRows and maxRows simulate a rasterizer that stops painting or
//   clamps its canvas, which is how truncation shows up in practice.

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// fakePage - In-memory pageSurface
// ---------------------------------------------------------------------------

type fakePage struct {
	mu sync.Mutex

	missing bool
	width   float64
	full    float64 // Height once constraints are lifted
	visible float64 // Height seen through the clipping ancestor
	insets  boxMetrics

	// styles is the snapshot returned by CollectStyles; inline is the live
	// inline state keyed by ref and property.
	styles []elementStyle
	inline map[int]map[string]styleDecl

	offset   int
	shifted  bool
	maxRows  int // Device rows the rasterizer can produce, 0 = unlimited
	paintRow int // CSS rows painted before the rasterizer goes blank, 0 = all

	captureErr   error
	captureErrAt int // 1-based capture call that fails, 0 = every call
	applyErr     error
	measureErr   error
	printDoc     string
	printErr     error

	captures []captureClip
	shifts   []int
	unshifts int
	applies  int
	releases int
	closed   bool
}

// newFakePage returns a target of width x full CSS px clipped to visible
// by an overflow:hidden, max-height ancestor.
func newFakePage(width, full, visible float64) *fakePage {
	return &fakePage{
		width:   width,
		full:    full,
		visible: visible,
		styles: []elementStyle{
			{
				Ref: 0, Tag: "div",
				Computed: map[string]string{"max-height": "none", "overflow": "visible", "overflow-x": "visible", "overflow-y": "visible", "position": "static", "height": "auto"},
			},
			{
				Ref: 1, Tag: "section", Ancestor: true,
				Computed: map[string]string{"max-height": "600px", "overflow": "hidden", "overflow-x": "hidden", "overflow-y": "hidden", "position": "relative", "height": "600px"},
			},
		},
		inline: map[int]map[string]styleDecl{
			0: {},
			1: {"height": {Value: "600px"}},
		},
	}
}

// normalized reports whether the clipping ancestor's max-height is lifted.
func (f *fakePage) normalized() bool {
	d, ok := f.inline[1]["max-height"]
	return ok && d.Value == "none" && d.Important
}

func (f *fakePage) inlineSnapshot() map[int]map[string]styleDecl {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]map[string]styleDecl, len(f.inline))
	for ref, m := range f.inline {
		cp := make(map[string]styleDecl, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out[ref] = cp
	}
	return out
}

func (f *fakePage) HasElement(ctx context.Context, id string) (bool, error) {
	return !f.missing, nil
}

func (f *fakePage) WaitImages(ctx context.Context, id string) (int, error) {
	return 0, nil
}

func (f *fakePage) Settle(ctx context.Context, timeout time.Duration) error {
	return ctx.Err()
}

func (f *fakePage) Measure(ctx context.Context, id string) (boxMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.measureErr != nil {
		return boxMetrics{}, f.measureErr
	}
	m := f.insets
	m.Left = 100
	m.Top = 50
	m.Width = f.width
	if f.normalized() {
		m.FullHeight = f.full
		m.VisibleHeight = f.full
	} else {
		// Clipped content still reports its scroll height.
		m.FullHeight = f.full
		m.VisibleHeight = f.visible
	}
	return m, nil
}

func (f *fakePage) CollectStyles(ctx context.Context, id string, props []string) ([]elementStyle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]elementStyle, len(f.styles))
	for i, s := range f.styles {
		s.Inline = make(map[string]styleDecl, len(props))
		for _, p := range props {
			s.Inline[p] = f.inline[s.Ref][p]
		}
		out[i] = s
	}
	return out, nil
}

func (f *fakePage) ApplyStyles(ctx context.Context, patches []stylePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applies++
	if f.applyErr != nil && f.applies == 1 {
		return f.applyErr
	}
	for _, p := range patches {
		if f.inline[p.Ref] == nil {
			f.inline[p.Ref] = map[string]styleDecl{}
		}
		for prop, d := range p.Styles {
			if d.Value == "" {
				delete(f.inline[p.Ref], prop)
				continue
			}
			f.inline[p.Ref][prop] = d
		}
	}
	return nil
}

func (f *fakePage) ReleaseStyles(ctx context.Context) error {
	f.mu.Lock()
	f.releases++
	f.mu.Unlock()
	return nil
}

func (f *fakePage) ShiftTarget(ctx context.Context, id string, offset int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shifted {
		return errors.New("target already shifted")
	}
	f.offset = offset
	f.shifted = true
	f.shifts = append(f.shifts, offset)
	return nil
}

func (f *fakePage) UnshiftTarget(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offset = 0
	f.shifted = false
	f.unshifts++
	return nil
}

func (f *fakePage) Capture(ctx context.Context, clip captureClip) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures = append(f.captures, clip)
	if f.captureErr != nil && (f.captureErrAt == 0 || f.captureErrAt == len(f.captures)) {
		return nil, f.captureErr
	}

	w := int(math.Round(clip.Width * clip.Scale))
	h := int(math.Round(clip.Height * clip.Scale))
	if f.maxRows > 0 {
		h = min(h, f.maxRows)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		row := f.offset + int(float64(y)/clip.Scale)
		c := color.RGBA{255, 255, 255, 255}
		if f.paintRow == 0 || row < f.paintRow {
			c = rowColor(row)
		}
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

func (f *fakePage) PrintDocument(ctx context.Context, id string, page *PageSettings) (string, error) {
	if f.printErr != nil {
		return "", f.printErr
	}
	if f.printDoc != "" {
		return f.printDoc, nil
	}
	return "<!DOCTYPE html><html><body><div id=\"" + id + "\"></div></body></html>", nil
}

func (f *fakePage) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// rowColor is the color the fake paints for a CSS row.
func rowColor(row int) color.RGBA {
	return color.RGBA{uint8(row % 200), 40, 90, 255}
}

// ---------------------------------------------------------------------------
// fakeRenderer - renderer returning a fixed page
// ---------------------------------------------------------------------------

type fakeRenderer struct {
	page     *fakePage
	openErr  error
	printPDF []byte
	printErr error

	opened        []string // File paths of non-isolated opens
	sources       []pageSource
	printed       []string
	printIsolated []bool
	closeCalls    int
}

func (r *fakeRenderer) Open(ctx context.Context, src pageSource, viewportWidth int) (pageSession, error) {
	r.sources = append(r.sources, src)
	if src.FilePath != "" {
		r.opened = append(r.opened, src.FilePath)
	}
	if r.openErr != nil {
		return nil, r.openErr
	}
	return r.page, nil
}

func (r *fakeRenderer) PrintHTML(ctx context.Context, htmlContent string, page *PageSettings, isolated bool) ([]byte, error) {
	r.printed = append(r.printed, htmlContent)
	r.printIsolated = append(r.printIsolated, isolated)
	if r.printErr != nil {
		return nil, r.printErr
	}
	return r.printPDF, nil
}

func (r *fakeRenderer) Close() error {
	r.closeCalls++
	return nil
}

// ---------------------------------------------------------------------------
// fakeDocument - documentBuilder recording placements
// ---------------------------------------------------------------------------

type placement struct {
	bounds image.Rectangle
	x, y   float64
	w, h   float64
}

type fakeDocument struct {
	pages    int
	images   []placement
	addErr   error
	bytesErr error
}

func (d *fakeDocument) AddPage() {
	d.pages++
}

func (d *fakeDocument) AddImage(img image.Image, x, y, w, h float64) error {
	if d.addErr != nil {
		return d.addErr
	}
	d.images = append(d.images, placement{bounds: img.Bounds(), x: x, y: y, w: w, h: h})
	return nil
}

func (d *fakeDocument) Bytes() ([]byte, error) {
	if d.bytesErr != nil {
		return nil, d.bytesErr
	}
	return []byte("%PDF-fake"), nil
}

// newTestConverter builds a Converter around a fake renderer and document.
func newTestConverter(t interface{ Fatalf(string, ...any) }, r *fakeRenderer, doc *fakeDocument, opts ...Option) *Converter {
	opts = append([]Option{withRenderer(r)}, opts...)
	c, err := NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	if doc != nil {
		c.newDocument = func(*PageSettings, string) documentBuilder { return doc }
	}
	return c
}

package pagesnap

import (
	"context"
	"image"
	"time"
)

// pageSurface is everything the pipeline needs from a rendered page.
// The production implementation drives Chrome through go-rod; tests use
// an in-memory fake.
//
// Elements are addressed by id. Methods that mutate the page (ApplyStyles,
// ShiftTarget) have a matching undo (ApplyStyles with the recorded
// originals, UnshiftTarget) that callers must defer.
type pageSurface interface {
	// HasElement reports whether an element with the id is mounted.
	HasElement(ctx context.Context, id string) (bool, error)

	// WaitImages blocks until every <img> under the element has decoded
	// or failed. Returns the number of images waited on.
	WaitImages(ctx context.Context, id string) (int, error)

	// Settle waits for pending layout, bounded by timeout.
	Settle(ctx context.Context, timeout time.Duration) error

	// Measure reports the element's box geometry in CSS pixels.
	Measure(ctx context.Context, id string) (boxMetrics, error)

	// CollectStyles snapshots computed and inline values of props for the
	// element, its descendants, and its ancestors below <body>.
	CollectStyles(ctx context.Context, id string, props []string) ([]elementStyle, error)

	// ApplyStyles writes inline declarations to elements from the last
	// CollectStyles snapshot.
	ApplyStyles(ctx context.Context, patches []stylePatch) error

	// ReleaseStyles drops the element references held since CollectStyles.
	ReleaseStyles(ctx context.Context) error

	// ShiftTarget translates the element up by offset CSS pixels.
	ShiftTarget(ctx context.Context, id string, offset int) error

	// UnshiftTarget restores the transform in place before ShiftTarget.
	UnshiftTarget(ctx context.Context, id string) error

	// Capture rasterizes a page region.
	Capture(ctx context.Context, clip captureClip) (image.Image, error)

	// PrintDocument builds a standalone HTML document holding an
	// unconstrained clone of the element and every readable style rule.
	PrintDocument(ctx context.Context, id string, page *PageSettings) (string, error)
}

// captureClip is a page region in CSS pixels captured at Scale.
type captureClip struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Scale  float64
}

package pagesnap

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"
)

// restoreTimeout bounds cleanup calls that must run after the request
// context is done.
const restoreTimeout = 5 * time.Second

// detachedContext returns a context that survives cancellation of ctx,
// for cleanup that has to reach the page regardless.
func detachedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
}

// captureEngine rasterizes a normalized target, chunking when the
// content is taller than the rasterizer can take in one pass.
type captureEngine struct {
	cfg captureConfig
	log *slog.Logger
}

// capture produces one buffer covering the whole target. Chunks are
// captured strictly in order: each one owns the target's transform
// from shift to unshift.
func (e *captureEngine) capture(ctx context.Context, page pageSurface, target CaptureTarget) (*RasterBuffer, ChunkPlan, error) {
	plan, err := PlanChunks(target.FullHeight, target.Scale, e.cfg.maxCanvasHeight, e.cfg.chunkOverlap)
	if err != nil {
		return nil, ChunkPlan{}, err
	}

	if !plan.Chunked() {
		img, err := page.Capture(ctx, windowClip(target, plan.Windows[0]))
		if err != nil {
			return nil, plan, fmt.Errorf("%w: %v", ErrRasterizerUnavailable, err)
		}
		e.log.Debug("captured single pass", "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
		return newRasterBuffer(img, target.Scale), plan, nil
	}

	master, err := newMasterBuffer(target.RasterWidth(), target.RasterHeight(), target.Scale)
	if err != nil {
		return nil, plan, err
	}
	e.log.Debug("capturing in chunks",
		"chunks", len(plan.Windows),
		"stride", plan.ChunkHeight,
		"overlap", plan.Overlap,
		"master_height", master.Height(),
	)

	for i, w := range plan.Windows {
		if err := ctx.Err(); err != nil {
			return nil, plan, err
		}
		img, err := e.captureWindow(ctx, page, target, w)
		if err != nil {
			return nil, plan, fmt.Errorf("chunk %d of %d: %w", i+1, len(plan.Windows), err)
		}
		master.Stitch(img, scalePx(w.Start, target.Scale))
	}
	return master, plan, nil
}

// captureWindow shifts the target so the window sits at its top edge,
// captures it, and puts the transform back.
func (e *captureEngine) captureWindow(ctx context.Context, page pageSurface, target CaptureTarget, w ChunkWindow) (img image.Image, err error) {
	if err := page.ShiftTarget(ctx, target.ID, w.Start); err != nil {
		return nil, fmt.Errorf("shifting target: %w", err)
	}
	defer func() {
		rctx, cancel := detachedContext(ctx)
		defer cancel()
		if uerr := page.UnshiftTarget(rctx, target.ID); uerr != nil {
			err = errors.Join(err, fmt.Errorf("restoring transform: %w", uerr))
		}
	}()

	if err := page.Settle(ctx, e.cfg.settleTimeout); err != nil {
		return nil, fmt.Errorf("waiting for layout: %w", err)
	}

	img, err = page.Capture(ctx, windowClip(target, w))
	if err != nil {
		return nil, fmt.Errorf("%w: window at %dpx: %v", ErrRasterizerUnavailable, w.Start, err)
	}
	return img, nil
}

// windowClip is the page region holding window w once the target has
// been shifted up by w.Start.
func windowClip(target CaptureTarget, w ChunkWindow) captureClip {
	return captureClip{
		X:      target.Left,
		Y:      target.Top,
		Width:  float64(target.Width),
		Height: float64(w.Height),
		Scale:  target.Scale,
	}
}

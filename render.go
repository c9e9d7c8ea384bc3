package pagesnap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// locateTarget checks the element exists and waits for its images.
func locateTarget(ctx context.Context, page pageSurface, id string, log *slog.Logger) error {
	found, err := page.HasElement(ctx, id)
	if err != nil {
		return stageErr(StageLocate, err)
	}
	if !found {
		return stageErr(StageLocate, fmt.Errorf("%w: #%s", ErrTargetNotFound, id))
	}

	images, err := page.WaitImages(ctx, id)
	if err != nil {
		return stageErr(StageLocate, fmt.Errorf("waiting for images: %w", err))
	}
	log.Debug("target located", "images", images)
	return nil
}

// renderRaster runs normalize, measure, capture, verify and paginate
// against an open page. The normalization is undone on every path; a
// restore failure after a successful capture is logged, not returned.
func (c *Converter) renderRaster(ctx context.Context, page pageSurface, input Input, log *slog.Logger) (result *Result, err error) {
	id := input.TargetID
	cfg := c.cfg.capture

	if err := locateTarget(ctx, page, id, log); err != nil {
		return nil, err
	}

	before, err := page.Measure(ctx, id)
	if err != nil {
		return nil, stageErr(StageMeasure, err)
	}

	restore, overridden, err := normalizeConstraints(ctx, page, id)
	if err != nil {
		return nil, stageErr(StageNormalize, err)
	}
	defer func() {
		rctx, cancel := detachedContext(ctx)
		defer cancel()
		if rerr := restore(rctx); rerr != nil {
			if err != nil {
				err = errors.Join(err, stageErr(StageNormalize, rerr))
				return
			}
			log.Warn("restoring page styles", "error", rerr)
		}
	}()
	log.Debug("constraints lifted", "elements", overridden)

	if err := page.Settle(ctx, cfg.settleTimeout); err != nil {
		return nil, stageErr(StageMeasure, fmt.Errorf("waiting for layout: %w", err))
	}

	m, err := page.Measure(ctx, id)
	if err != nil {
		return nil, stageErr(StageMeasure, err)
	}
	target, err := newCaptureTarget(id, m, before.VisibleHeight, cfg.scale)
	if err != nil {
		return nil, stageErr(StageMeasure, err)
	}
	log.Debug("target measured",
		"width", target.Width,
		"full_height", target.FullHeight,
		"visible_height", target.VisibleHeight,
		"scale", target.Scale,
	)

	captureStart := time.Now()
	buf, plan, err := c.engine.capture(ctx, page, target)
	if err != nil {
		return nil, stageErr(StageCapture, err)
	}
	log.Debug("capture finished",
		"chunks", len(plan.Windows),
		"raster_width", buf.Width(),
		"raster_height", buf.Height(),
		"elapsed", time.Since(captureStart),
	)

	// The page is no longer needed once pixels are in hand.
	rctx, cancel := detachedContext(ctx)
	if rerr := restore(rctx); rerr != nil {
		log.Warn("restoring page styles", "error", rerr)
	}
	cancel()

	check := integrityCheck{
		tolerance:      cfg.heightTolerance,
		blankThreshold: cfg.blankThreshold,
		stripRows:      cfg.blankStripRows,
	}
	dev, err := check.Verify(buf, target.RasterHeight())
	if err != nil {
		return nil, stageErr(StageVerify, err)
	}
	if dev > 0 {
		log.Warn("capture height differs from measured height",
			"painted", buf.PaintedHeight(),
			"expected", target.RasterHeight(),
			"deviation", dev,
		)
	}

	doc := c.newDocument(input.Page, documentTitle(input.Filename))
	layout, err := paginate(doc, buf, target.Insets, input.Page)
	if err != nil {
		return nil, stageErr(StagePaginate, err)
	}
	pdf, err := doc.Bytes()
	if err != nil {
		return nil, stageErr(StagePaginate, err)
	}

	return &Result{
		PDF:          pdf,
		Filename:     input.Filename,
		Mode:         ModeRaster,
		Pages:        layout.TotalPages(),
		Chunks:       len(plan.Windows),
		RasterWidth:  buf.Width(),
		RasterHeight: buf.Height(),
	}, nil
}

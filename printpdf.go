package pagesnap

import (
	"context"
	"fmt"
	"log/slog"
)

// renderPrint builds a standalone copy of the target with its clipping
// removed and prints it through Chrome. The source page is only read,
// so there is nothing to restore.
func (c *Converter) renderPrint(ctx context.Context, page pageSurface, input Input, log *slog.Logger) (*Result, error) {
	id := input.TargetID

	if err := locateTarget(ctx, page, id, log); err != nil {
		return nil, err
	}

	doc, err := page.PrintDocument(ctx, id, input.Page)
	if err != nil {
		return nil, stageErr(StagePrint, fmt.Errorf("building print document: %w", err))
	}
	log.Debug("print document built", "bytes", len(doc))

	pdf, err := c.renderer.PrintHTML(ctx, doc, input.Page, input.Isolated)
	if err != nil {
		return nil, stageErr(StagePrint, err)
	}
	if len(pdf) == 0 {
		return nil, stageErr(StagePrint, fmt.Errorf("%w: empty output", ErrPDFGeneration))
	}

	return &Result{
		PDF:      pdf,
		Filename: input.Filename,
		Mode:     ModePrint,
		Chunks:   0,
	}, nil
}

package pagesnap

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-pagesnap/internal/assets"
	"github.com/alnah/go-pagesnap/internal/pipeline"
)

// MarkdownInput is a Markdown CV to render.
//
// The document may start with YAML front matter:
//
//	---
//	name: Ada Lovelace
//	title: Curriculum Vitae
//	lang: en
//	---
type MarkdownInput struct {
	Markdown  string        // Markdown content (required)
	SourceDir string        // Base directory for relative images
	CSS       string        // Extra CSS appended after the built-in CV style
	Filename  string        // Default: front matter filename, else CV_<name>.pdf
	Page      *PageSettings // nil = A4 portrait
	Mode      Mode
	Isolated  bool // See Input.Isolated
}

// ConvertMarkdown renders Markdown inside the CV preview container and
// converts that container to PDF.
func (c *Converter) ConvertMarkdown(ctx context.Context, input MarkdownInput) (*Result, error) {
	htmlContent, filename, err := c.markdownDocument(ctx, input)
	if err != nil {
		return nil, err
	}
	return c.Convert(ctx, Input{
		HTML:      htmlContent,
		SourceDir: input.SourceDir,
		TargetID:  DefaultTargetID,
		Filename:  filename,
		Page:      input.Page,
		Mode:      input.Mode,
		Isolated:  input.Isolated,
	})
}

// markdownDocument builds the HTML page and output name for a Markdown CV.
func (c *Converter) markdownDocument(ctx context.Context, input MarkdownInput) (string, string, error) {
	if strings.TrimSpace(input.Markdown) == "" {
		return "", "", ErrEmptyMarkdown
	}

	src, err := pipeline.Preprocess(ctx, input.Markdown)
	if err != nil {
		return "", "", stageErr(StageLoad, err)
	}

	body, err := c.markdown.ToFragment(ctx, src.Body)
	if err != nil {
		return "", "", stageErr(StageLoad, fmt.Errorf("converting to HTML: %w", err))
	}

	title := src.Meta.Title
	if title == "" && src.Meta.Name != "" {
		title = "CV - " + src.Meta.Name
	}
	page, err := pipeline.Document{
		Title:    title,
		Lang:     src.Meta.Lang,
		TargetID: DefaultTargetID,
		Body:     body,
	}.Render()
	if err != nil {
		return "", "", stageErr(StageLoad, err)
	}

	css, err := c.assets.LoadStyle(assets.StyleCV)
	if err != nil {
		return "", "", stageErr(StageLoad, fmt.Errorf("loading CV style: %w", err))
	}
	if input.CSS != "" {
		css += "\n" + input.CSS
	}
	page = pipeline.InjectCSS(ctx, page, css)

	filename := input.Filename
	if filename == "" {
		filename = src.Meta.Filename
	}
	if filename == "" && src.Meta.Name != "" {
		filename = BuildFilename("CV", src.Meta.Name)
	}
	return page, filename, nil
}

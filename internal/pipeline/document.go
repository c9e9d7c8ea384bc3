package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
)

// ErrDocumentRender indicates the page wrapper could not be rendered.
var ErrDocumentRender = errors.New("document rendering failed")

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="{{.TargetID}}">
{{.Body}}
</div>
</body>
</html>`))

// Document wraps an HTML fragment in a page whose content sits inside a
// single element with TargetID, ready to be captured.
type Document struct {
	Title    string
	Lang     string
	TargetID string
	Body     string // Trusted HTML fragment (converter output)
}

// Render produces the complete HTML page. CSS is injected separately.
func (d Document) Render() (string, error) {
	if d.TargetID == "" {
		return "", fmt.Errorf("%w: empty target id", ErrDocumentRender)
	}
	lang := d.Lang
	if lang == "" {
		lang = "en"
	}
	title := d.Title
	if title == "" {
		title = "Document"
	}

	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, struct {
		Title    string
		Lang     string
		TargetID string
		Body     template.HTML
	}{
		Title:    title,
		Lang:     lang,
		TargetID: d.TargetID,
		Body:     template.HTML(d.Body), // #nosec G203 -- goldmark output, raw HTML disabled
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDocumentRender, err)
	}
	return buf.String(), nil
}

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrCertificateRender indicates the certificate template failed.
var ErrCertificateRender = errors.New("certificate template rendering failed")

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
// CSS content is sanitized so it cannot close the style element.
func InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	return styleBlock + htmlContent
}

// sanitizeCSS escapes "</" so the content cannot end the <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// CertificateData is the content of a publication certificate.
type CertificateData struct {
	Name             string
	PublicationTitle string
	Kind             string // "Journal", "Book", "Conference paper", ...
	Venue            string
	Volume           string
	Date             string
	Issuer           string
	Signatory        string
	SignatoryTitle   string
	Reference        string
	Lang             string
}

// CertificateRenderer fills the certificate template.
type CertificateRenderer struct {
	tmpl *template.Template
	css  string
}

// NewCertificateRenderer parses tmplContent. css is embedded in the page head.
func NewCertificateRenderer(tmplContent, css string) (*CertificateRenderer, error) {
	tmpl, err := template.New("certificate").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate template: %w", err)
	}
	return &CertificateRenderer{tmpl: tmpl, css: css}, nil
}

// Render produces a complete HTML page with the certificate inside the
// element with targetID.
func (r *CertificateRenderer) Render(ctx context.Context, data CertificateData, targetID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if data.Name == "" || data.PublicationTitle == "" {
		return "", fmt.Errorf("%w: name and publication title are required", ErrCertificateRender)
	}
	lang := data.Lang
	if lang == "" {
		lang = "en"
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, struct {
		CertificateData
		Lang          string
		TargetID      string
		DocumentTitle string
		CSS           template.CSS
	}{
		CertificateData: data,
		Lang:            lang,
		TargetID:        targetID,
		DocumentTitle:   "Publication Certificate - " + data.Name,
		CSS:             template.CSS(sanitizeCSS(r.css)), // #nosec G203 -- embedded or operator-supplied stylesheet
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCertificateRender, err)
	}
	return buf.String(), nil
}

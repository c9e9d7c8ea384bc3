package pagesnap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alnah/go-pagesnap/internal/assets"
	"github.com/alnah/go-pagesnap/internal/dateutil"
	"github.com/alnah/go-pagesnap/internal/pipeline"
)

// CertificateTargetID is the element holding a rendered certificate.
const CertificateTargetID = "certificate-content"

// Certificate describes a publication certificate.
type Certificate struct {
	Name             string `yaml:"name"`
	PublicationTitle string `yaml:"publication_title"`
	Kind             string `yaml:"kind"` // e.g. "Journal article", "Book", "Conference paper"
	Venue            string `yaml:"venue"`
	Volume           string `yaml:"volume"`
	Date             string `yaml:"date"` // Literal, empty/"auto" for today, or "auto:LAYOUT"
	Issuer           string `yaml:"issuer"`
	Signatory        string `yaml:"signatory"`
	SignatoryTitle   string `yaml:"signatory_title"`
	Reference        string `yaml:"reference"`
	Lang             string `yaml:"lang"` // Also picks month names for generated dates
}

// Validate checks the fields a certificate cannot be issued without.
func (c *Certificate) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: missing certificate", ErrInvalidCertificate)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCertificate)
	}
	if strings.TrimSpace(c.PublicationTitle) == "" {
		return fmt.Errorf("%w: publication title is required", ErrInvalidCertificate)
	}
	if _, err := dateutil.Resolve(c.Date, c.Lang, time.Now()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	return nil
}

// CertificateInput is a certificate to render.
type CertificateInput struct {
	Certificate *Certificate
	CSS         string        // Extra CSS appended after the certificate style
	Filename    string        // Default: Publication_Certificate_<name>_<date>.pdf
	Page        *PageSettings // nil = A4 landscape
	Mode        Mode
	Isolated    bool // See Input.Isolated
}

// ConvertCertificate fills the certificate template and converts it to PDF.
func (c *Converter) ConvertCertificate(ctx context.Context, input CertificateInput) (*Result, error) {
	if err := input.Certificate.Validate(); err != nil {
		return nil, err
	}

	cert := *input.Certificate
	date, err := dateutil.Resolve(cert.Date, cert.Lang, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	cert.Date = date

	htmlContent, err := c.certificateDocument(ctx, cert, input.CSS)
	if err != nil {
		return nil, err
	}

	page := input.Page
	if page == nil {
		page = &PageSettings{Size: PageSizeA4, Orientation: OrientationLandscape}
	}
	filename := input.Filename
	if filename == "" {
		filename = BuildFilename("Publication_Certificate", cert.Name, cert.Date)
	}

	return c.Convert(ctx, Input{
		HTML:     htmlContent,
		TargetID: CertificateTargetID,
		Filename: filename,
		Page:     page,
		Mode:     input.Mode,
		Isolated: input.Isolated,
	})
}

func (c *Converter) certificateDocument(ctx context.Context, cert Certificate, extraCSS string) (string, error) {
	tmpl, err := c.assets.LoadTemplate(assets.TemplateCertificate)
	if err != nil {
		return "", stageErr(StageLoad, fmt.Errorf("loading certificate template: %w", err))
	}
	css, err := c.assets.LoadStyle(assets.StyleCertificate)
	if err != nil {
		return "", stageErr(StageLoad, fmt.Errorf("loading certificate style: %w", err))
	}
	if extraCSS != "" {
		css += "\n" + extraCSS
	}

	r, err := pipeline.NewCertificateRenderer(tmpl, css)
	if err != nil {
		return "", stageErr(StageLoad, err)
	}
	out, err := r.Render(ctx, pipeline.CertificateData(cert), CertificateTargetID)
	if err != nil {
		return "", stageErr(StageLoad, err)
	}
	return out, nil
}

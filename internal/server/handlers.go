package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	pagesnap "github.com/alnah/go-pagesnap"
	"github.com/alnah/go-pagesnap/internal/yamlutil"
)

// errBodyTooLarge marks request bodies over Config.MaxBodyBytes.
var errBodyTooLarge = errors.New("request body too large")

// requestOptions are the query parameters shared by every render endpoint.
type requestOptions struct {
	page     *pagesnap.PageSettings
	targetID string
	mode     pagesnap.Mode
	filename string
}

// handleRender renders a posted HTML document. Request bodies are
// untrusted, so every handler renders isolated: the document cannot read
// local files or reach hosts on the server's network.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	opts := s.options(r)

	result, err := s.renderer.Render(r.Context(), pagesnap.Input{
		HTML:     string(body),
		TargetID: opts.targetID,
		Filename: opts.filename,
		Page:     opts.page,
		Mode:     opts.mode,
		Isolated: true,
	})
	s.respond(w, r, result, err)
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	opts := s.options(r)

	result, err := s.renderer.RenderMarkdown(r.Context(), pagesnap.MarkdownInput{
		Markdown: string(body),
		Filename: opts.filename,
		Page:     opts.page,
		Mode:     opts.mode,
		Isolated: true,
	})
	s.respond(w, r, result, err)
}

// handleCertificate accepts the certificate as YAML (a JSON body also parses).
func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var cert pagesnap.Certificate
	if err := yamlutil.UnmarshalStrict(body, &cert); err != nil {
		jsonError(w, "invalid certificate: "+err.Error(), http.StatusBadRequest)
		return
	}

	opts := s.options(r)
	page := opts.page
	if r.URL.Query().Get("page") == "" && r.URL.Query().Get("orientation") == "" {
		page = nil // certificates default to landscape
	}

	result, err := s.renderer.RenderCertificate(r.Context(), pagesnap.CertificateInput{
		Certificate: &cert,
		Filename:    opts.filename,
		Page:        page,
		Mode:        opts.mode,
		Isolated:    true,
	})
	s.respond(w, r, result, err)
}

// readBody reads the request body under the configured limit and writes
// the error response itself when it returns false.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("%v (max %d bytes)", errBodyTooLarge, s.cfg.MaxBodyBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		jsonError(w, "request body is empty", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// options merges query parameters over the server defaults.
// Validation is left to the converter so errors carry its sentinels.
func (s *Server) options(r *http.Request) requestOptions {
	q := r.URL.Query()

	opts := requestOptions{
		targetID: s.cfg.TargetID,
		mode:     s.cfg.Mode,
		filename: sanitizeFilename(q.Get("filename")),
	}
	if v := q.Get("target"); v != "" {
		opts.targetID = v
	}
	if v := q.Get("mode"); v != "" {
		opts.mode = pagesnap.Mode(strings.ToLower(v))
	}

	page := pagesnap.DefaultPageSettings()
	if s.cfg.Page != nil {
		*page = *s.cfg.Page
	}
	if v := q.Get("page"); v != "" {
		page.Size = v
	}
	if v := q.Get("orientation"); v != "" {
		page.Orientation = v
	}
	opts.page = page
	return opts
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, result *pagesnap.Result, err error) {
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.log.Error("render failed", "error", err, "status", code, "path", r.URL.Path)
		} else {
			s.log.Warn("render rejected", "error", err, "status", code, "path", r.URL.Path)
		}
		jsonError(w, err.Error(), code)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	h.Set("Content-Length", strconv.Itoa(len(result.PDF)))
	h.Set("X-Pagesnap-Mode", string(result.Mode))
	h.Set("X-Pagesnap-Pages", strconv.Itoa(result.Pages))
	h.Set("X-Pagesnap-Chunks", strconv.Itoa(result.Chunks))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.PDF)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pagesnap.ErrEmptyHTML),
		errors.Is(err, pagesnap.ErrEmptyMarkdown),
		errors.Is(err, pagesnap.ErrInvalidTargetID),
		errors.Is(err, pagesnap.ErrInvalidPageSize),
		errors.Is(err, pagesnap.ErrInvalidOrientation),
		errors.Is(err, pagesnap.ErrInvalidMode),
		errors.Is(err, pagesnap.ErrInvalidCertificate):
		return http.StatusBadRequest
	case errors.Is(err, pagesnap.ErrTargetNotFound),
		errors.Is(err, pagesnap.ErrNoDimensions),
		errors.Is(err, pagesnap.ErrCaptureTruncated),
		errors.Is(err, pagesnap.ErrInvalidGeometry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pagesnap.ErrBrowserConnect),
		errors.Is(err, pagesnap.ErrPageCreate),
		errors.Is(err, pagesnap.ErrPageLoad),
		errors.Is(err, pagesnap.ErrPDFGeneration),
		errors.Is(err, pagesnap.ErrRasterizerUnavailable),
		errors.Is(err, pagesnap.ErrPrintWindowBlocked):
		return http.StatusBadGateway
	case errors.Is(err, pagesnap.ErrPoolClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// sanitizeFilename keeps the base name and forces a .pdf extension.
// Empty input stays empty so the converter picks its default.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	if !strings.EqualFold(path.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package main

import (
	"context"
	"errors"
	"os"

	pagesnap "github.com/alnah/go-pagesnap"
	"github.com/alnah/go-pagesnap/internal/config"
	"github.com/alnah/go-pagesnap/internal/hints"
)

// Exit codes for the pagesnap CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
	ExitCapture = 5 // Target missing, truncated or unencodable capture
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, pagesnap.ErrBrowserConnect) ||
		errors.Is(err, pagesnap.ErrPageCreate) ||
		errors.Is(err, pagesnap.ErrPageLoad) ||
		errors.Is(err, pagesnap.ErrPDFGeneration) ||
		errors.Is(err, pagesnap.ErrRasterizerUnavailable) ||
		errors.Is(err, pagesnap.ErrPrintWindowBlocked) {
		return ExitBrowser
	}

	if errors.Is(err, pagesnap.ErrTargetNotFound) ||
		errors.Is(err, pagesnap.ErrNoDimensions) ||
		errors.Is(err, pagesnap.ErrCaptureTruncated) ||
		errors.Is(err, pagesnap.ErrInvalidGeometry) ||
		errors.Is(err, pagesnap.ErrEncodingFailure) {
		return ExitCapture
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWritePDF) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, pagesnap.ErrEmptyHTML) ||
		errors.Is(err, pagesnap.ErrEmptyMarkdown) ||
		errors.Is(err, pagesnap.ErrInvalidTargetID) ||
		errors.Is(err, pagesnap.ErrInvalidPageSize) ||
		errors.Is(err, pagesnap.ErrInvalidOrientation) ||
		errors.Is(err, pagesnap.ErrInvalidMode) ||
		errors.Is(err, pagesnap.ErrInvalidCapture) ||
		errors.Is(err, pagesnap.ErrInvalidImageFormat) ||
		errors.Is(err, pagesnap.ErrInvalidCertificate) ||
		errors.Is(err, pagesnap.ErrInvalidAssetPath) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnsupportedInput) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var notFound *targetNotFoundError
	switch {
	case errors.As(err, &notFound):
		return hints.ForTargetNotFound(notFound.id)
	case errors.Is(err, pagesnap.ErrCaptureTruncated):
		return hints.ForCaptureTruncated()
	case errors.Is(err, pagesnap.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(configSearchPaths(err))
	case errors.Is(err, ErrWritePDF):
		return hints.ForOutputDirectory()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	}
	return ""
}

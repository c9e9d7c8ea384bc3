package pagesnap

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline failures.
var (
	ErrTargetNotFound        = errors.New("target element not found")
	ErrNoDimensions          = errors.New("target element has no dimensions")
	ErrCaptureTruncated      = errors.New("capture truncated")
	ErrInvalidGeometry       = errors.New("invalid crop geometry")
	ErrEncodingFailure       = errors.New("image encoding failed")
	ErrRasterizerUnavailable = errors.New("rasterizer unavailable")
	ErrPrintWindowBlocked    = errors.New("print page could not be opened")
)

// Sentinel errors for browser operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
)

// Input and option validation errors.
var (
	ErrEmptyHTML          = errors.New("HTML content cannot be empty")
	ErrInvalidTargetID    = errors.New("invalid target element id")
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMode        = errors.New("invalid render mode")
	ErrInvalidCapture     = errors.New("invalid capture settings")
	ErrInvalidImageFormat = errors.New("invalid image format")
	ErrEmptyMarkdown      = errors.New("markdown content cannot be empty")
	ErrInvalidCertificate = errors.New("invalid certificate")
	ErrInvalidAssetPath   = errors.New("invalid asset path")
)

// Pipeline stage names used in StageError.
const (
	StageLoad      = "load"
	StageLocate    = "locate"
	StageNormalize = "normalize"
	StageMeasure   = "measure"
	StageCapture   = "capture"
	StageVerify    = "verify"
	StagePaginate  = "paginate"
	StagePrint     = "print"
)

// StageError reports which pipeline stage failed and why.
// It unwraps to the underlying cause so errors.Is matches the sentinels above.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// stageErr wraps err with its stage, leaving nil and already-staged errors alone.
func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

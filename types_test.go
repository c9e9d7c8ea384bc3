package pagesnap

// Notes:
// - PageSettings: size and orientation validation, millimeter dimensions
// - Mode: known modes and the zero value
// - captureConfig: settings that would make chunk planning impossible

import (
	"errors"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestPageSettings_Validate - PageSettings Validation
// ---------------------------------------------------------------------------

func TestPageSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ps      *PageSettings
		wantErr error
	}{
		{
			name:    "nil is valid (use defaults)",
			ps:      nil,
			wantErr: nil,
		},
		{
			name:    "empty fields use defaults",
			ps:      &PageSettings{},
			wantErr: nil,
		},
		{
			name:    "letter landscape",
			ps:      &PageSettings{Size: PageSizeLetter, Orientation: OrientationLandscape},
			wantErr: nil,
		},
		{
			name:    "case-insensitive",
			ps:      &PageSettings{Size: "LEGAL", Orientation: "Portrait"},
			wantErr: nil,
		},
		{
			name:    "unknown size",
			ps:      &PageSettings{Size: "a3"},
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "unknown orientation",
			ps:      &PageSettings{Orientation: "sideways"},
			wantErr: ErrInvalidOrientation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.ps.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPageSettings_DimensionsMM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ps    *PageSettings
		wantW float64
		wantH float64
	}{
		{"nil is A4 portrait", nil, 210, 297},
		{"A4 landscape", &PageSettings{Size: PageSizeA4, Orientation: OrientationLandscape}, 297, 210},
		{"letter", &PageSettings{Size: PageSizeLetter}, 215.9, 279.4},
		{"legal landscape", &PageSettings{Size: "Legal", Orientation: "LANDSCAPE"}, 355.6, 215.9},
		{"unknown size falls back to A4", &PageSettings{Size: "b5"}, 210, 297},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, h := tt.ps.DimensionsMM()
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("DimensionsMM() = %vx%v, want %vx%v", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDefaultPageSettings(t *testing.T) {
	t.Parallel()

	ps := DefaultPageSettings()
	if ps.Size != PageSizeA4 || ps.Orientation != OrientationPortrait {
		t.Errorf("DefaultPageSettings() = %+v, want A4 portrait", ps)
	}
}

// ---------------------------------------------------------------------------
// TestMode_Validate
// ---------------------------------------------------------------------------

func TestMode_Validate(t *testing.T) {
	t.Parallel()

	for _, m := range []Mode{"", ModeRaster, ModePrint} {
		if err := m.Validate(); err != nil {
			t.Errorf("Mode(%q).Validate() error = %v", m, err)
		}
	}
	if err := Mode("svg").Validate(); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Mode(svg).Validate() error = %v, want ErrInvalidMode", err)
	}
}

// ---------------------------------------------------------------------------
// TestCaptureConfig_Validate
// ---------------------------------------------------------------------------

func TestCaptureConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *captureConfig)
		wantErr error
	}{
		{"defaults", func(c *captureConfig) {}, nil},
		{"jpeg", func(c *captureConfig) { c.imageFormat = ImageFormatJPEG }, nil},
		{"negative scale", func(c *captureConfig) { c.scale = -1 }, ErrInvalidCapture},
		{"overlap fills canvas", func(c *captureConfig) { c.maxCanvasHeight = 400; c.chunkOverlap = 200 }, ErrInvalidCapture},
		{"negative tolerance", func(c *captureConfig) { c.heightTolerance = -0.1 }, ErrInvalidCapture},
		{"zero viewport", func(c *captureConfig) { c.viewportWidth = 0 }, ErrInvalidCapture},
		{"unknown format", func(c *captureConfig) { c.imageFormat = "gif" }, ErrInvalidImageFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultCaptureConfig()
			tt.mutate(&cfg)
			if err := cfg.validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptions_Apply(t *testing.T) {
	t.Parallel()

	c, err := NewConverter(
		withRenderer(&fakeRenderer{}),
		WithTimeout(5*time.Second),
		WithScale(3),
		WithMaxCanvasHeight(16384),
		WithChunkOverlap(40),
		WithSettleTimeout(time.Second),
		WithViewportWidth(1024),
		WithImageFormat(ImageFormatJPEG, 80),
		WithLogger(nil),
	)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}

	cfg := c.cfg
	if cfg.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.timeout)
	}
	if cfg.capture.scale != 3 || cfg.capture.maxCanvasHeight != 16384 || cfg.capture.chunkOverlap != 40 {
		t.Errorf("capture = %+v, want scale 3, canvas 16384, overlap 40", cfg.capture)
	}
	if cfg.capture.settleTimeout != time.Second || cfg.capture.viewportWidth != 1024 {
		t.Errorf("capture = %+v, want settle 1s, viewport 1024", cfg.capture)
	}
	if cfg.capture.imageFormat != ImageFormatJPEG || cfg.capture.jpegQuality != 80 {
		t.Errorf("image = %s/%d, want jpeg/80", cfg.capture.imageFormat, cfg.capture.jpegQuality)
	}
	if cfg.logger == nil {
		t.Error("WithLogger(nil) cleared the logger")
	}
	if c.engine.cfg != cfg.capture {
		t.Error("capture engine does not share the converter's settings")
	}
}

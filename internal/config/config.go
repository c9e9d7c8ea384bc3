// Package config loads pagesnap settings from YAML files and PAGESNAP_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-pagesnap/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPageSizeLength    = 10   // "letter", "a4", "legal"
	MaxOrientationLength = 10   // "portrait", "landscape"
	MaxTargetIDLength    = 200  // Element id
	MaxPathLength        = 4096 // File system path
	MaxAddrLength        = 255  // host:port
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "PAGESNAP_"

// Config holds all configuration for document generation.
type Config struct {
	Page    PageConfig    `yaml:"page"`
	Capture CaptureConfig `yaml:"capture"`
	Target  TargetConfig  `yaml:"target"`
	CSS     CSSConfig     `yaml:"css"`
	Assets  AssetsConfig  `yaml:"assets"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string `yaml:"size"`        // "a4", "letter", "legal" (default: "a4")
	Orientation string `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
}

// CaptureConfig tunes rasterization. Zero values keep library defaults.
type CaptureConfig struct {
	Scale           float64 `yaml:"scale"`
	MaxCanvasHeight int     `yaml:"maxCanvasHeight"` // Device pixels per pass
	ChunkOverlap    int     `yaml:"chunkOverlap"`    // CSS pixels
	SettleTimeout   string  `yaml:"settleTimeout"`   // Go duration, e.g. "300ms"
	ViewportWidth   int     `yaml:"viewportWidth"`
	ImageFormat     string  `yaml:"imageFormat"` // "png" or "jpeg"
	JPEGQuality     int     `yaml:"jpegQuality"` // 1-100
	Timeout         string  `yaml:"timeout"`     // Per-document, e.g. "90s"
}

// TargetConfig selects the element to capture.
type TargetConfig struct {
	ID   string `yaml:"id"`   // Element id (default: "cv-preview-content")
	Mode string `yaml:"mode"` // "raster" or "print"
}

// CSSConfig adds a stylesheet to Markdown and certificate sources.
type CSSConfig struct {
	File string `yaml:"file"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = same as source
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr         string `yaml:"addr"`         // Listen address (default "127.0.0.1:8080")
	Workers      int    `yaml:"workers"`      // Browser instances (0 = auto)
	MaxBodyBytes int64  `yaml:"maxBodyBytes"` // Request body limit
}

// Server defaults.
const (
	DefaultAddr         = "127.0.0.1:8080"
	DefaultMaxBodyBytes = 10 << 20
)

// Validate checks field lengths and ranges. Called by LoadConfig and
// ApplyEnv, but available for callers that construct Config manually.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"page.size", c.Page.Size, MaxPageSizeLength},
		{"page.orientation", c.Page.Orientation, MaxOrientationLength},
		{"target.id", c.Target.ID, MaxTargetIDLength},
		{"css.file", c.CSS.File, MaxPathLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"server.addr", c.Server.Addr, MaxAddrLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.Target.Mode != "" {
		switch strings.ToLower(c.Target.Mode) {
		case "raster", "print":
		default:
			return fmt.Errorf("%w: target.mode %q (must be raster or print)", ErrInvalidValue, c.Target.Mode)
		}
	}

	if c.Capture.Scale < 0 {
		return fmt.Errorf("%w: capture.scale must not be negative, got %v", ErrInvalidValue, c.Capture.Scale)
	}
	if c.Capture.MaxCanvasHeight < 0 || c.Capture.ChunkOverlap < 0 || c.Capture.ViewportWidth < 0 {
		return fmt.Errorf("%w: capture sizes must not be negative", ErrInvalidValue)
	}
	if c.Capture.JPEGQuality < 0 || c.Capture.JPEGQuality > 100 {
		return fmt.Errorf("%w: capture.jpegQuality must be between 1 and 100, got %d", ErrInvalidValue, c.Capture.JPEGQuality)
	}
	if c.Capture.ImageFormat != "" {
		switch strings.ToLower(c.Capture.ImageFormat) {
		case "png", "jpeg", "jpg":
		default:
			return fmt.Errorf("%w: capture.imageFormat %q (must be png or jpeg)", ErrInvalidValue, c.Capture.ImageFormat)
		}
	}
	if _, err := c.Capture.SettleTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Capture.TimeoutDuration(); err != nil {
		return err
	}

	if c.Server.Workers < 0 {
		return fmt.Errorf("%w: server.workers must not be negative, got %d", ErrInvalidValue, c.Server.Workers)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: server.maxBodyBytes must not be negative", ErrInvalidValue)
	}
	return nil
}

// SettleTimeoutDuration parses capture.settleTimeout. Empty returns 0.
func (c CaptureConfig) SettleTimeoutDuration() (time.Duration, error) {
	return parseDuration("capture.settleTimeout", c.SettleTimeout)
}

// TimeoutDuration parses capture.timeout. Empty returns 0.
func (c CaptureConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration("capture.timeout", c.Timeout)
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s %q (use a duration like 300ms or 90s)", ErrInvalidValue, field, s)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration that leaves every library default in place.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         DefaultAddr,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
	}
}

// ApplyEnv overrides fields from PAGESNAP_* variables found by lookup
// (os.LookupEnv in production). Unset variables leave fields alone.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalidValue, EnvPrefix, name, v)
		}
		*dst = n
		return nil
	}

	str("PAGE_SIZE", &c.Page.Size)
	str("ORIENTATION", &c.Page.Orientation)
	str("TARGET", &c.Target.ID)
	str("MODE", &c.Target.Mode)
	str("TIMEOUT", &c.Capture.Timeout)
	str("SETTLE_TIMEOUT", &c.Capture.SettleTimeout)
	str("IMAGE_FORMAT", &c.Capture.ImageFormat)
	str("ASSET_PATH", &c.Assets.BasePath)
	str("OUTPUT_DIR", &c.Output.DefaultDir)
	str("ADDR", &c.Server.Addr)

	if v, ok := lookup(EnvPrefix + "SCALE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sSCALE=%q is not a number", ErrInvalidValue, EnvPrefix, v)
		}
		c.Capture.Scale = f
	}
	for name, dst := range map[string]*int{
		"MAX_CANVAS_HEIGHT": &c.Capture.MaxCanvasHeight,
		"CHUNK_OVERLAP":     &c.Capture.ChunkOverlap,
		"VIEWPORT_WIDTH":    &c.Capture.ViewportWidth,
		"JPEG_QUALITY":      &c.Capture.JPEGQuality,
		"WORKERS":           &c.Server.Workers,
	} {
		if err := integer(name, dst); err != nil {
			return err
		}
	}

	return c.Validate()
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := yamlutil.LoadFileStrict(configPath, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/pagesnap/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	tried := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		local := name + ext
		if fileExists(local) {
			return local, nil
		}
		tried = append(tried, local)
	}

	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			user := filepath.Join(dir, "pagesnap", name+ext)
			if fileExists(user) {
				return user, nil
			}
			tried = append(tried, user)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

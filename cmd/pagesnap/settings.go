package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	pagesnap "github.com/alnah/go-pagesnap"
	"github.com/alnah/go-pagesnap/internal/config"
)

// loadSettings builds the effective configuration.
// Precedence: flags > PAGESNAP_* environment > config file > defaults.
func loadSettings(env *Environment, fs *flag.FlagSet, common commonFlags, page pageFlags, capture captureFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if common.config != "" {
		loaded, err := config.LoadConfig(common.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(env.LookupEnv); err != nil {
		return nil, err
	}

	mergePageFlags(fs, page, cfg)
	mergeCaptureFlags(fs, capture, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergePageFlags applies only the page flags that were set on the command line.
func mergePageFlags(fs *flag.FlagSet, f pageFlags, cfg *config.Config) {
	if fs.Changed("page-size") {
		cfg.Page.Size = f.size
	}
	if fs.Changed("orientation") {
		cfg.Page.Orientation = f.orientation
	}
}

// mergeCaptureFlags applies only the capture flags that were set on the command line.
func mergeCaptureFlags(fs *flag.FlagSet, f captureFlags, cfg *config.Config) {
	if fs.Changed("target") {
		cfg.Target.ID = f.target
	}
	if fs.Changed("mode") {
		cfg.Target.Mode = f.mode
	}
	if fs.Changed("scale") {
		cfg.Capture.Scale = f.scale
	}
	if fs.Changed("max-canvas-height") {
		cfg.Capture.MaxCanvasHeight = f.maxCanvas
	}
	if fs.Changed("chunk-overlap") {
		cfg.Capture.ChunkOverlap = f.overlap
	}
	if fs.Changed("settle-timeout") {
		cfg.Capture.SettleTimeout = f.settleTimeout
	}
	if fs.Changed("viewport-width") {
		cfg.Capture.ViewportWidth = f.viewportWidth
	}
	if fs.Changed("image-format") {
		cfg.Capture.ImageFormat = f.imageFormat
	}
	if fs.Changed("jpeg-quality") {
		cfg.Capture.JPEGQuality = f.jpegQuality
	}
	if fs.Changed("timeout") {
		cfg.Capture.Timeout = f.timeout
	}
	if fs.Changed("asset-path") {
		cfg.Assets.BasePath = f.assetPath
	}
}

// converterOptions turns the capture settings into converter options.
// Zero values are skipped so the library defaults stay in place.
func converterOptions(cfg *config.Config, logger *slog.Logger) ([]pagesnap.Option, error) {
	c := cfg.Capture
	opts := []pagesnap.Option{pagesnap.WithLogger(logger)}

	timeout, err := c.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		opts = append(opts, pagesnap.WithTimeout(timeout))
	}
	settle, err := c.SettleTimeoutDuration()
	if err != nil {
		return nil, err
	}
	if settle > 0 {
		opts = append(opts, pagesnap.WithSettleTimeout(settle))
	}

	if c.Scale != 0 {
		opts = append(opts, pagesnap.WithScale(c.Scale))
	}
	if c.MaxCanvasHeight != 0 {
		opts = append(opts, pagesnap.WithMaxCanvasHeight(c.MaxCanvasHeight))
	}
	if c.ChunkOverlap != 0 {
		opts = append(opts, pagesnap.WithChunkOverlap(c.ChunkOverlap))
	}
	if c.ViewportWidth != 0 {
		opts = append(opts, pagesnap.WithViewportWidth(c.ViewportWidth))
	}
	if c.ImageFormat != "" {
		opts = append(opts, pagesnap.WithImageFormat(imageFormat(c.ImageFormat), c.JPEGQuality))
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, pagesnap.WithAssetPath(cfg.Assets.BasePath))
	}
	return opts, nil
}

func imageFormat(s string) pagesnap.ImageFormat {
	switch strings.ToLower(s) {
	case "jpg", "jpeg":
		return pagesnap.ImageFormatJPEG
	}
	return pagesnap.ImageFormat(strings.ToLower(s))
}

// pageSettings returns nil when no page field is configured, so each
// source kind keeps its own default (certificates are landscape).
func pageSettings(cfg *config.Config) *pagesnap.PageSettings {
	if cfg.Page.Size == "" && cfg.Page.Orientation == "" {
		return nil
	}
	return &pagesnap.PageSettings{
		Size:        strings.ToLower(cfg.Page.Size),
		Orientation: strings.ToLower(cfg.Page.Orientation),
	}
}

func renderMode(cfg *config.Config) pagesnap.Mode {
	return pagesnap.Mode(strings.ToLower(cfg.Target.Mode))
}

// readCSS reads the extra stylesheet, if any.
func readCSS(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-provided
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return string(data), nil
}

// configSearchPaths extracts the paths listed in a config-not-found error.
func configSearchPaths(err error) []string {
	if !errors.Is(err, config.ErrConfigNotFound) {
		return nil
	}
	msg := err.Error()
	i := strings.Index(msg, "tried ")
	if i < 0 {
		return nil
	}
	return strings.Split(msg[i+len("tried "):], ", ")
}

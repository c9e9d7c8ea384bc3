package main

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	pagesnap "github.com/alnah/go-pagesnap"
	"github.com/alnah/go-pagesnap/internal/config"
)

// runConvert converts HTML and Markdown files or directories to PDF.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, fs, err := parseConvertFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printConvertUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := loadSettings(env, fs, flags.common, flags.page, flags.capture)
	if err != nil {
		return err
	}
	if fs.Changed("css") {
		cfg.CSS.File = flags.css
	}

	output := flags.output
	if output == "" {
		output = cfg.Output.DefaultDir
	}
	files, err := discoverFiles(fs.Args(), output, kindForPath)
	if err != nil {
		return err
	}

	css, err := readCSS(cfg.CSS.File)
	if err != nil {
		return err
	}

	params := &conversionParams{
		page:     pageSettings(cfg),
		mode:     renderMode(cfg),
		targetID: cfg.Target.ID,
		css:      css,
	}
	return runBatch(ctx, env, flags.common, flags.workers, cfg, files, params)
}

// runCertificate renders certificates described by YAML files.
func runCertificate(ctx context.Context, args []string, env *Environment) error {
	flags, fs, err := parseCertificateFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printCertificateUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := loadSettings(env, fs, flags.common, flags.page, flags.capture)
	if err != nil {
		return err
	}
	if fs.Changed("css") {
		cfg.CSS.File = flags.css
	}

	output := flags.output
	if output == "" {
		output = cfg.Output.DefaultDir
	}
	files, err := discoverFiles(fs.Args(), output, func(path string) (sourceKind, bool) {
		return kindCertificate, isCertificateFile(path)
	})
	if err != nil {
		return err
	}

	css, err := readCSS(cfg.CSS.File)
	if err != nil {
		return err
	}

	params := &conversionParams{
		page: pageSettings(cfg),
		mode: renderMode(cfg),
		css:  css,
	}
	return runBatch(ctx, env, flags.common, flags.workers, cfg, files, params)
}

// runBatch converts files on a pool sized for the batch and reports the results.
// workers falls back to the configured worker count, then to the CPU-based default.
func runBatch(ctx context.Context, env *Environment, common commonFlags, workers int, cfg *config.Config, files []FileToConvert, params *conversionParams) error {
	logger := newLogger(env.Stderr, common.quiet, common.verbose)
	opts, err := converterOptions(cfg, logger)
	if err != nil {
		return err
	}

	if workers <= 0 {
		workers = cfg.Server.Workers
	}
	size := min(pagesnap.ResolvePoolSize(workers), len(files))
	logger.Debug("starting batch", "files", len(files), "workers", size)

	pool := env.NewPool(size, opts)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing browsers", "error", err)
		}
	}()

	results := convertBatch(ctx, pool, files, params)
	return printResults(results, common.quiet, common.verbose, env)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	pagesnap "github.com/alnah/go-pagesnap"
	"github.com/alnah/go-pagesnap/internal/fileutil"
	"github.com/alnah/go-pagesnap/internal/yamlutil"
)

// filePermissions is rw-r--r-- for written PDFs.
const filePermissions = 0o644

// Sentinel errors for batch operations.
var (
	ErrNoInput     = errors.New("no input specified")
	ErrReadInput   = errors.New("failed to read input")
	ErrWritePDF    = errors.New("failed to write PDF file")
	ErrServiceInit = errors.New("failed to initialize converter")
)

// conversionParams holds settings shared by every job in a batch.
type conversionParams struct {
	page     *pagesnap.PageSettings
	mode     pagesnap.Mode
	targetID string
	css      string
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Pages      int
	Chunks     int
	Err        error
	Duration   time.Duration
}

// targetNotFoundError keeps the missing id for the CLI hint.
type targetNotFoundError struct {
	id  string
	err error
}

func (e *targetNotFoundError) Error() string { return e.err.Error() }
func (e *targetNotFoundError) Unwrap() error { return e.err }

// convertBatch processes files concurrently, one converter per worker.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))
	results := make([]ConversionResult, len(files))
	jobs := make(chan int, len(files))
	for i := range files {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire(ctx)
			if err != nil {
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       fmt.Errorf("%w: %w", ErrServiceInit, err),
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{InputPath: files[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		}()
	}
	wg.Wait()

	return results
}

// convertFile reads one source, converts it and writes the PDF.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{InputPath: f.InputPath}

	res, err := render(ctx, conv, f, params)
	if err != nil {
		if errors.Is(err, pagesnap.ErrTargetNotFound) {
			err = &targetNotFoundError{id: targetFor(f, params), err: err}
		}
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	out := f.OutputPath
	if out == "" {
		out = filepath.Join(f.OutputDir, res.Filename)
	}
	if err := fileutil.WriteFileAtomic(out, res.PDF, filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrWritePDF, err)
		result.Duration = time.Since(start)
		return result
	}

	result.OutputPath = out
	result.Pages = res.Pages
	result.Chunks = res.Chunks
	result.Duration = time.Since(start)
	return result
}

func render(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) (*pagesnap.Result, error) {
	sourceDir, err := filepath.Abs(filepath.Dir(f.InputPath))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	name := ""
	if f.OutputPath != "" {
		name = filepath.Base(f.OutputPath)
	}

	if f.Kind == kindCertificate {
		var cert pagesnap.Certificate
		if err := yamlutil.LoadFileStrict(f.InputPath, &cert); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
			}
			return nil, fmt.Errorf("%w: %s: %w", pagesnap.ErrInvalidCertificate, f.InputPath, err)
		}
		return conv.ConvertCertificate(ctx, pagesnap.CertificateInput{
			Certificate: &cert,
			CSS:         params.css,
			Filename:    name,
			Page:        params.page,
			Mode:        params.mode,
		})
	}

	data, err := os.ReadFile(f.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	if name == "" {
		name = pdfName(f.InputPath)
	}

	if f.Kind == kindMarkdown {
		return conv.ConvertMarkdown(ctx, pagesnap.MarkdownInput{
			Markdown:  string(data),
			SourceDir: sourceDir,
			CSS:       params.css,
			Filename:  name,
			Page:      params.page,
			Mode:      params.mode,
		})
	}
	return conv.Convert(ctx, pagesnap.Input{
		HTML:      string(data),
		SourceDir: sourceDir,
		TargetID:  params.targetID,
		Filename:  name,
		Page:      params.page,
		Mode:      params.mode,
	})
}

func targetFor(f FileToConvert, params *conversionParams) string {
	switch {
	case f.Kind == kindCertificate:
		return pagesnap.CertificateTargetID
	case f.Kind == kindMarkdown || params.targetID == "":
		return pagesnap.DefaultTargetID
	}
	return params.targetID
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs conversion results and returns the first failure,
// wrapped so its exit code survives.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) error {
	summary := countResults(results)
	var first error

	for _, r := range results {
		if r.Err != nil {
			// A lone failure is reported once, by runMain.
			if len(results) > 1 {
				fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			}
			if first == nil {
				first = r.Err
			}
			continue
		}
		if quiet {
			continue
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d pages, %d chunks, %v)\n",
				r.InputPath, r.OutputPath, r.Pages, r.Chunks, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	if first == nil {
		return nil
	}
	if len(results) == 1 {
		return first
	}
	return fmt.Errorf("%d of %d conversions failed: %w", summary.Failed, len(results), first)
}

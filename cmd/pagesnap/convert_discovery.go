package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedInput is returned for files with an extension the command cannot read.
var ErrUnsupportedInput = errors.New("unsupported input file")

// sourceKind tells convertFile how to read an input.
type sourceKind int

const (
	kindHTML sourceKind = iota
	kindMarkdown
	kindCertificate
)

// FileToConvert is one conversion job.
type FileToConvert struct {
	InputPath  string
	OutputPath string // Empty: OutputDir plus the name the converter picks
	OutputDir  string
	Kind       sourceKind
}

// kindForPath maps an extension to the convert command's source kinds.
func kindForPath(path string) (sourceKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return kindHTML, true
	case ".md", ".markdown":
		return kindMarkdown, true
	}
	return 0, false
}

// isCertificateFile reports whether path has a YAML extension.
func isCertificateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// discoverFiles expands inputs into jobs. Directories are walked recursively
// and their structure is mirrored under output. A single file input with an
// output ending in .pdf writes exactly there.
func discoverFiles(inputs []string, output string, match func(string) (sourceKind, bool)) ([]FileToConvert, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}

	exactOutput := strings.EqualFold(filepath.Ext(output), ".pdf")
	var files []FileToConvert

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}

		if !info.IsDir() {
			kind, ok := match(input)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, input)
			}
			f := FileToConvert{InputPath: input, Kind: kind}
			if exactOutput {
				f.OutputPath = output
			} else {
				f.OutputDir = outputDirFor(input, output, filepath.Dir(input))
			}
			files = append(files, f)
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != input && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			kind, ok := match(path)
			if !ok {
				return nil
			}
			files = append(files, FileToConvert{
				InputPath: path,
				OutputDir: outputDirFor(path, output, input),
				Kind:      kind,
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: walking %s: %w", ErrReadInput, input, err)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no supported files in %s", ErrNoInput, strings.Join(inputs, ", "))
	}
	if exactOutput && len(files) > 1 {
		return nil, fmt.Errorf("%w: --output %s names one file but %d inputs were found", ErrUsage, output, len(files))
	}
	return files, nil
}

// outputDirFor returns where the PDF for input goes. Without an output
// directory it sits next to its source; otherwise the path relative to
// baseDir is kept under output.
func outputDirFor(input, output, baseDir string) string {
	if output == "" {
		return filepath.Dir(input)
	}
	rel, err := filepath.Rel(baseDir, filepath.Dir(input))
	if err != nil || strings.HasPrefix(rel, "..") {
		return output
	}
	return filepath.Join(output, rel)
}

// pdfName returns the input's base name with a .pdf extension.
func pdfName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
}

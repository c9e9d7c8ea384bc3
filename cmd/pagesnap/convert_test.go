package main

// Notes:
// - discoverFiles runs against real temp directories.
// - convertBatch uses the shared fakePool from helpers_test.go.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	pagesnap "github.com/alnah/go-pagesnap"
)

// ---------------------------------------------------------------------------
// TestDiscoverFiles - Input expansion and output placement
// ---------------------------------------------------------------------------

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site", "cv.html"), "x")
	writeFile(t, filepath.Join(dir, "site", "notes.md"), "x")
	writeFile(t, filepath.Join(dir, "site", "team", "ada.htm"), "x")
	writeFile(t, filepath.Join(dir, "site", "logo.png"), "x")
	writeFile(t, filepath.Join(dir, "site", ".cache", "old.html"), "x")
	single := writeFile(t, filepath.Join(dir, "letter.markdown"), "x")

	t.Run("directory mirrored under output", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(dir, "pdf")
		files, err := discoverFiles([]string{filepath.Join(dir, "site")}, out, kindForPath)
		if err != nil {
			t.Fatalf("discoverFiles() error = %v", err)
		}

		got := map[string]string{}
		for _, f := range files {
			got[filepath.Base(f.InputPath)] = f.OutputDir
		}
		want := map[string]string{
			"cv.html":  out,
			"notes.md": out,
			"ada.htm":  filepath.Join(out, "team"),
		}
		if len(got) != len(want) {
			t.Fatalf("discovered %v, want %v", got, want)
		}
		for name, wantDir := range want {
			if got[name] != wantDir {
				t.Errorf("%s OutputDir = %q, want %q", name, got[name], wantDir)
			}
		}
	})

	t.Run("file without output stays beside source", func(t *testing.T) {
		t.Parallel()

		files, err := discoverFiles([]string{single}, "", kindForPath)
		if err != nil {
			t.Fatalf("discoverFiles() error = %v", err)
		}
		if len(files) != 1 || files[0].OutputDir != dir || files[0].Kind != kindMarkdown {
			t.Errorf("files = %+v", files)
		}
	})

	t.Run("exact pdf output", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(dir, "final.PDF")
		files, err := discoverFiles([]string{single}, out, kindForPath)
		if err != nil {
			t.Fatalf("discoverFiles() error = %v", err)
		}
		if files[0].OutputPath != out {
			t.Errorf("OutputPath = %q, want %q", files[0].OutputPath, out)
		}
	})
}

func TestDiscoverFiles_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	png := writeFile(t, filepath.Join(dir, "logo.png"), "x")
	a := writeFile(t, filepath.Join(dir, "a.html"), "x")
	b := writeFile(t, filepath.Join(dir, "b.html"), "x")
	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0o750); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		inputs  []string
		output  string
		wantErr error
	}{
		{"no inputs", nil, "", ErrNoInput},
		{"missing", []string{filepath.Join(dir, "missing.html")}, "", ErrReadInput},
		{"unsupported", []string{png}, "", ErrUnsupportedInput},
		{"empty directory", []string{empty}, "", ErrNoInput},
		{"one pdf for many", []string{a, b}, filepath.Join(dir, "all.pdf"), ErrUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := discoverFiles(tt.inputs, tt.output, kindForPath)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("discoverFiles() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestKindForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		want   sourceKind
		wantOK bool
	}{
		{"cv.html", kindHTML, true},
		{"CV.HTM", kindHTML, true},
		{"cv.md", kindMarkdown, true},
		{"cv.markdown", kindMarkdown, true},
		{"cv.yaml", 0, false},
		{"cv", 0, false},
	}

	for _, tt := range tests {
		got, ok := kindForPath(tt.path)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("kindForPath(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
	if !isCertificateFile("ada.YML") || isCertificateFile("ada.json") {
		t.Error("isCertificateFile() mismatch")
	}
	if got := pdfName("/tmp/site/cv.v2.html"); got != "cv.v2.pdf" {
		t.Errorf("pdfName() = %q, want cv.v2.pdf", got)
	}
}

// ---------------------------------------------------------------------------
// TestConvertBatch - Concurrent conversion
// ---------------------------------------------------------------------------

func TestConvertBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var files []FileToConvert
	for i := range 6 {
		in := writeFile(t, filepath.Join(dir, fmt.Sprintf("page%d.html", i)), "<div id=\"cv-preview-content\"></div>")
		files = append(files, FileToConvert{InputPath: in, OutputDir: filepath.Join(dir, "out"), Kind: kindHTML})
	}
	md := writeFile(t, filepath.Join(dir, "cv.md"), "# Ada")
	files = append(files, FileToConvert{InputPath: md, OutputDir: filepath.Join(dir, "out"), Kind: kindMarkdown})

	pool := &fakePool{conv: &fakeConverter{}, size: 3}
	params := &conversionParams{targetID: "cv-preview-content", css: "body{}"}

	results := convertBatch(context.Background(), pool, files, params)

	if len(results) != len(files) {
		t.Fatalf("got %d results, want %d", len(results), len(files))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("result %d error = %v", i, r.Err)
			continue
		}
		if r.InputPath != files[i].InputPath {
			t.Errorf("result %d InputPath = %q, want %q", i, r.InputPath, files[i].InputPath)
		}
		if _, err := os.Stat(r.OutputPath); err != nil {
			t.Errorf("output %s: %v", r.OutputPath, err)
		}
	}
	if pool.acquired != 3 || pool.released != 3 {
		t.Errorf("acquired %d released %d, want 3 each", pool.acquired, pool.released)
	}
	if got := pool.conv.markdown[0].CSS; got != "body{}" {
		t.Errorf("Markdown CSS = %q", got)
	}

	var names []string
	for _, in := range pool.conv.inputs {
		names = append(names, in.Filename)
	}
	sort.Strings(names)
	if names[0] != "page0.pdf" || names[5] != "page5.pdf" {
		t.Errorf("filenames = %v", names)
	}
}

func TestConvertBatch_AcquireFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []FileToConvert{
		{InputPath: writeFile(t, filepath.Join(dir, "a.html"), "x"), OutputDir: dir},
		{InputPath: writeFile(t, filepath.Join(dir, "b.html"), "x"), OutputDir: dir},
	}
	pool := &fakePool{conv: &fakeConverter{}, size: 2, acquireErr: pagesnap.ErrBrowserConnect}

	for _, r := range convertBatch(context.Background(), pool, files, &conversionParams{}) {
		if !errors.Is(r.Err, ErrServiceInit) || !errors.Is(r.Err, pagesnap.ErrBrowserConnect) {
			t.Errorf("%s error = %v, want ErrServiceInit wrapping ErrBrowserConnect", r.InputPath, r.Err)
		}
	}
}

func TestConvertBatch_CanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []FileToConvert{{InputPath: writeFile(t, filepath.Join(dir, "a.html"), "x"), OutputDir: dir}}
	pool := &fakePool{conv: &fakeConverter{}, size: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := convertBatch(ctx, pool, files, &conversionParams{})
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", results[0].Err)
	}
	if len(pool.conv.inputs) != 0 {
		t.Error("converter called after cancellation")
	}
}

func TestConvertFile_WriteFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := writeFile(t, filepath.Join(dir, "blocker"), "x")
	f := FileToConvert{
		InputPath:  writeFile(t, filepath.Join(dir, "a.html"), "x"),
		OutputPath: filepath.Join(blocker, "a.pdf"),
		Kind:       kindHTML,
	}

	r := convertFile(context.Background(), &fakeConverter{}, f, &conversionParams{})
	if !errors.Is(r.Err, ErrWritePDF) {
		t.Errorf("error = %v, want ErrWritePDF", r.Err)
	}
}

func TestTargetFor(t *testing.T) {
	t.Parallel()

	custom := &conversionParams{targetID: "resume"}
	tests := []struct {
		kind   sourceKind
		params *conversionParams
		want   string
	}{
		{kindHTML, custom, "resume"},
		{kindHTML, &conversionParams{}, pagesnap.DefaultTargetID},
		{kindMarkdown, custom, pagesnap.DefaultTargetID},
		{kindCertificate, custom, pagesnap.CertificateTargetID},
	}

	for _, tt := range tests {
		if got := targetFor(FileToConvert{Kind: tt.kind}, tt.params); got != tt.want {
			t.Errorf("targetFor(%v) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestPrintResults - Reporting
// ---------------------------------------------------------------------------

func TestPrintResults(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	results := []ConversionResult{
		{InputPath: "a.html", OutputPath: "a.pdf", Pages: 3, Chunks: 1},
		{InputPath: "b.html", Err: boom},
	}

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr}

	err := printResults(results, false, true, env)
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "1 of 2 conversions failed") {
		t.Errorf("printResults() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "a.html -> a.pdf (3 pages, 1 chunks") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stdout.String(), "1 succeeded, 1 failed") {
		t.Errorf("stdout missing summary: %q", stdout)
	}
	if !strings.Contains(stderr.String(), "FAILED b.html: boom") {
		t.Errorf("stderr = %q", stderr)
	}

	stdout.Reset()
	if err := printResults(results[:1], true, false, env); err != nil {
		t.Errorf("printResults() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet stdout = %q", stdout)
	}
}

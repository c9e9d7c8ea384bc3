package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	pagesnap "github.com/alnah/go-pagesnap"
)

// fakeConverter records every call and returns a stub PDF.
type fakeConverter struct {
	mu       sync.Mutex
	inputs   []pagesnap.Input
	markdown []pagesnap.MarkdownInput
	certs    []pagesnap.CertificateInput
	err      error
	errFor   map[string]error // keyed by Filename
}

func (f *fakeConverter) result(filename string) (*pagesnap.Result, error) {
	if err, ok := f.errFor[filename]; ok {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &pagesnap.Result{
		PDF:      []byte("%PDF-1.4 " + filename),
		Filename: filename,
		Mode:     pagesnap.ModeRaster,
		Pages:    2,
		Chunks:   1,
	}, nil
}

func (f *fakeConverter) Convert(_ context.Context, in pagesnap.Input) (*pagesnap.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	return f.result(in.Filename)
}

func (f *fakeConverter) ConvertMarkdown(_ context.Context, in pagesnap.MarkdownInput) (*pagesnap.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markdown = append(f.markdown, in)
	return f.result(in.Filename)
}

func (f *fakeConverter) ConvertCertificate(_ context.Context, in pagesnap.CertificateInput) (*pagesnap.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.certs = append(f.certs, in)
	name := in.Filename
	if name == "" {
		name = pagesnap.BuildFilename("Publication", "Certificate", in.Certificate.Name)
	}
	return f.result(name)
}

// fakePool hands out one shared fakeConverter.
type fakePool struct {
	mu         sync.Mutex
	conv       *fakeConverter
	size       int
	acquireErr error
	acquired   int
	released   int
	closed     bool
	opts       []pagesnap.Option
}

func (p *fakePool) Acquire(context.Context) (CLIConverter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	return p.conv, nil
}

func (p *fakePool) Release(CLIConverter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

func (p *fakePool) Size() int { return p.size }

func (p *fakePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// testEnv returns an Environment with captured output, an empty
// environment and a fake pool.
func testEnv(vars map[string]string) (*Environment, *fakePool, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	pool := &fakePool{conv: &fakeConverter{}}
	env := &Environment{
		Now:    func() time.Time { return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC) },
		Stdout: &stdout,
		Stderr: &stderr,
		LookupEnv: func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		},
		NewPool: func(size int, opts []pagesnap.Option) Pool {
			pool.size = size
			pool.opts = opts
			return pool
		},
	}
	return env, pool, &stdout, &stderr
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

package server

import (
	"context"

	pagesnap "github.com/alnah/go-pagesnap"
)

// Renderer produces PDFs for the HTTP handlers.
type Renderer interface {
	Render(ctx context.Context, in pagesnap.Input) (*pagesnap.Result, error)
	RenderMarkdown(ctx context.Context, in pagesnap.MarkdownInput) (*pagesnap.Result, error)
	RenderCertificate(ctx context.Context, in pagesnap.CertificateInput) (*pagesnap.Result, error)
}

// PoolRenderer runs each request on a converter borrowed from Pool.
// Requests beyond the pool size wait for a free converter or their context.
type PoolRenderer struct {
	Pool *pagesnap.ConverterPool
}

var _ Renderer = (*PoolRenderer)(nil)

func (p *PoolRenderer) Render(ctx context.Context, in pagesnap.Input) (*pagesnap.Result, error) {
	return withConverter(ctx, p.Pool, func(c *pagesnap.Converter) (*pagesnap.Result, error) {
		return c.Convert(ctx, in)
	})
}

func (p *PoolRenderer) RenderMarkdown(ctx context.Context, in pagesnap.MarkdownInput) (*pagesnap.Result, error) {
	return withConverter(ctx, p.Pool, func(c *pagesnap.Converter) (*pagesnap.Result, error) {
		return c.ConvertMarkdown(ctx, in)
	})
}

func (p *PoolRenderer) RenderCertificate(ctx context.Context, in pagesnap.CertificateInput) (*pagesnap.Result, error) {
	return withConverter(ctx, p.Pool, func(c *pagesnap.Converter) (*pagesnap.Result, error) {
		return c.ConvertCertificate(ctx, in)
	})
}

func withConverter(ctx context.Context, pool *pagesnap.ConverterPool, fn func(*pagesnap.Converter) (*pagesnap.Result, error)) (*pagesnap.Result, error) {
	conv, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Release(conv)
	return fn(conv)
}

package main

import (
	"context"
	"fmt"

	pagesnap "github.com/alnah/go-pagesnap"
)

// CLIConverter is the part of *pagesnap.Converter the commands use.
type CLIConverter interface {
	Convert(ctx context.Context, input pagesnap.Input) (*pagesnap.Result, error)
	ConvertMarkdown(ctx context.Context, input pagesnap.MarkdownInput) (*pagesnap.Result, error)
	ConvertCertificate(ctx context.Context, input pagesnap.CertificateInput) (*pagesnap.Result, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*pagesnap.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (CLIConverter, error)
	Release(CLIConverter)
	Size() int
	Close() error
}

// poolAdapter exposes a *pagesnap.ConverterPool through Pool.
type poolAdapter struct {
	pool *pagesnap.ConverterPool
}

func newConverterPool(size int, opts []pagesnap.Option) Pool {
	return &poolAdapter{pool: pagesnap.NewConverterPool(size, opts...)}
}

func (a *poolAdapter) Acquire(ctx context.Context) (CLIConverter, error) {
	conv, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Release panics on a converter the pool did not hand out (programmer error).
func (a *poolAdapter) Release(c CLIConverter) {
	conv, ok := c.(*pagesnap.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int    { return a.pool.Size() }
func (a *poolAdapter) Close() error { return a.pool.Close() }

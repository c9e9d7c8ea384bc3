package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	flag "github.com/spf13/pflag"

	pagesnap "github.com/alnah/go-pagesnap"
	"github.com/alnah/go-pagesnap/internal/server"
)

// HTTP server timeouts. Writes allow for slow browser renders.
const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 5 * time.Minute
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// runServe runs the HTTP API until ctx is canceled, then shuts down gracefully.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, fs, err := parseServeFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printServeUsage(env.Stdout)
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := loadSettings(env, fs, flags.common, flags.page, flags.capture)
	if err != nil {
		return err
	}
	if fs.Changed("addr") {
		cfg.Server.Addr = flags.addr
	}
	if fs.Changed("workers") {
		cfg.Server.Workers = flags.workers
	}
	if fs.Changed("max-body-bytes") {
		cfg.Server.MaxBodyBytes = flags.maxBody
	}

	level := slog.LevelInfo
	if flags.common.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(env.Stderr, &slog.HandlerOptions{Level: level}))

	opts, err := converterOptions(cfg, log)
	if err != nil {
		return err
	}
	pool := pagesnap.NewConverterPool(pagesnap.ResolvePoolSize(cfg.Server.Workers), opts...)
	defer func() {
		if err := pool.Close(); err != nil {
			log.Warn("closing browsers", "error", err)
		}
	}()

	handler := server.NewServer(&server.PoolRenderer{Pool: pool}, log, server.Config{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Page:         pageSettings(cfg),
		TargetID:     cfg.Target.ID,
		Mode:         renderMode(cfg),
	})

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("%w: listening on %s: %w", ErrUsage, cfg.Server.Addr, err)
	}

	httpServer := &http.Server{
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return serve(ctx, httpServer, ln, log, pool.Size())
}

// serve blocks until ctx is done or the server fails.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log *slog.Logger, workers int) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting pagesnap", "addr", ln.Addr().String(), "workers", workers)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/wikiroutes/internal/api"
	"github.com/dgallion1/wikiroutes/internal/config"
	"github.com/dgallion1/wikiroutes/internal/extract"
	"github.com/dgallion1/wikiroutes/internal/geocode"
	"github.com/dgallion1/wikiroutes/internal/pipeline"
	"github.com/dgallion1/wikiroutes/internal/wiki"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg := config.Load()

	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    32, // MB
			MaxBackups: 3,
			MaxAge:     14,
			Compress:   true,
		}
		defer rotated.Close()
		out = io.MultiWriter(os.Stdout, rotated)
	}
	log := slog.New(slog.NewJSONHandler(out, nil))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	wc := wiki.NewClient(wiki.Options{
		APIURL:      cfg.WikiAPIURL,
		WikidataURL: cfg.WikidataAPIURL,
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.HTTPTimeout,
		CacheTTL:    cfg.ArticleCacheTTL,
	})
	resolver := geocode.NewResolver(wc, wc, geocode.Config{
		BatchSize:     cfg.CoordBatchSize,
		MaxConcurrent: cfg.MaxConcurrentLookups,
		CacheSize:     cfg.CoordCacheSize,
		CacheTTL:      cfg.CoordCacheTTL,
	}, log)

	opts := extract.DefaultOptions()
	opts.HeadingText = cfg.SectionHeading
	opts.AnchorID = cfg.SectionAnchor
	opts.TableClass = cfg.TableClass

	// Initialize pipeline.
	svc := pipeline.NewService(wc, resolver, opts, log)
	orch := pipeline.NewOrchestrator(cfg, svc, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, wc.Stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		wc.Close()
	}()

	log.Info("starting wikiroutes", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// Command stampcardd serves the stamp presentation API: card lifecycle over
// HTTP and, optionally, the same tool surface over MCP/QUIC.
package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/stampworks/stampcard/card"
	"github.com/stampworks/stampcard/catalog"
	"github.com/stampworks/stampcard/dbopen"
	"github.com/stampworks/stampcard/mcpquic"
	"github.com/stampworks/stampcard/notify"
	"github.com/stampworks/stampcard/observability"
	"github.com/stampworks/stampcard/render"
	"github.com/stampworks/stampcard/stamp"
	"github.com/stampworks/stampcard/web"
)

func main() {
	cfg := DefaultConfig()
	if path := os.Getenv("CONFIG"); path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Catalog DB.
	catalogDB, err := dbopen.Open(cfg.CatalogDB, dbopen.WithMkdirAll(), dbopen.WithSchema(catalog.Schema))
	if err != nil {
		slog.Error("catalog db", "error", err)
		os.Exit(1)
	}
	defer catalogDB.Close()

	cat, err := catalog.New(ctx, catalogDB, logger)
	if err != nil {
		slog.Error("catalog load", "error", err)
		os.Exit(1)
	}
	go cat.StartWatcher(ctx, cfg.CatalogWatch())

	// Observability DB.
	obsDB, err := dbopen.Open(cfg.ObservabilityDB, dbopen.WithMkdirAll(), dbopen.WithSchema(observability.Schema))
	if err != nil {
		slog.Error("observability db", "error", err)
		os.Exit(1)
	}
	defer obsDB.Close()
	events := observability.NewEventLogger(obsDB)

	// Daily retention cleanup.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := observability.Cleanup(ctx, obsDB, observability.RetentionConfig{
					EventLogsDays: cfg.Retention.EventLogsDays,
					HTTPLogsDays:  cfg.Retention.HTTPLogsDays,
				})
				if err != nil {
					slog.Warn("retention cleanup", "error", err)
				}
			}
		}
	}()

	// Card registry.
	acks := notify.NewAckCenter(logger)
	fetcher := stamp.NewClient(stamp.Config{
		BaseURL: cfg.IndexerURL,
		Timeout: cfg.FetchTimeout(),
	})
	registry := card.NewRegistry(card.Config{
		Fetcher: fetcher,
		Catalog: cat,
		Planner: render.NewPlanner(),
		Acks:    acks,
		Events:  events,
		Logger:  logger,
	}, card.WithIdleTTL(cfg.IdleTTL()))
	defer registry.Close()
	go registry.Janitor(ctx, cfg.JanitorInterval())

	// Optional MCP QUIC.
	if cfg.MCP.Transport == "quic" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "stampcard",
			Version: "1.0.0",
		}, nil)
		registry.RegisterMCP(mcpSrv)

		var tlsCfg *tls.Config
		if cfg.MCP.TLSCert != "" && cfg.MCP.TLSKey != "" {
			tlsCfg, err = mcpquic.ServerTLSConfig(cfg.MCP.TLSCert, cfg.MCP.TLSKey)
		} else {
			tlsCfg, err = mcpquic.SelfSignedTLSConfig()
		}
		if err != nil {
			slog.Error("mcp quic tls", "error", err)
		} else {
			ql, qErr := mcpquic.NewListener(cfg.MCP.Addr, tlsCfg, mcpSrv, logger)
			if qErr != nil {
				slog.Error("mcp quic listener", "error", qErr)
			} else {
				go func() {
					slog.Info("mcp quic starting", "addr", cfg.MCP.Addr)
					if sErr := ql.Serve(ctx); sErr != nil && ctx.Err() == nil {
						slog.Error("mcp quic", "error", sErr)
					}
				}()
				defer ql.Close()
			}
		}
	}

	// HTTP server.
	handler := web.NewHandler(ctx, registry, acks, logger, web.WithRequestLogging(events.LogHTTP))
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

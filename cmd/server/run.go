package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/riskdraft/internal/config"
	"github.com/rpggio/riskdraft/internal/domain/activity"
	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/workspace"
	"github.com/rpggio/riskdraft/internal/export"
	"github.com/rpggio/riskdraft/internal/gemini"
	"github.com/rpggio/riskdraft/internal/mcp"
	"github.com/rpggio/riskdraft/internal/metrics"
	"github.com/rpggio/riskdraft/internal/sqlite"
	"github.com/rpggio/riskdraft/internal/transport"
)

const (
	modeHTTP  = "http"
	modeStdio = "stdio"
)

type runOptions struct {
	configPath string
	logLevel   string
}

type app struct {
	db        *sqlite.DB
	workspace *workspace.Workspace
	archive   *archive.Service
	activity  *activity.Service
	metrics   *metrics.Metrics
	mcp       *sdkmcp.Server
}

func run(ctx context.Context, opts runOptions, mode string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if mode != "" {
		cfg.Transport.Mode = mode
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == modeStdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	a, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer a.db.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Transport.Mode == modeStdio {
		return runStdioMode(ctx, logger, a.mcp)
	}
	return runHTTPMode(ctx, logger, a, cfg.Server.Host, cfg.Server.Port)
}

// build wires storage, the model client and the services.
func build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	loc, err := time.LoadLocation(cfg.Archive.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Archive.Timezone, err)
	}

	db, err := sqlite.Open(sqlite.MemoryDSN)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	m := metrics.New(nil)

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:          cfg.Gemini.APIKey,
		BaseURL:         cfg.Gemini.BaseURL,
		DraftModel:      cfg.Gemini.DraftModel,
		SupplementModel: cfg.Gemini.SupplementModel,
		SummaryModel:    cfg.Gemini.SummaryModel,
	}, logger, gemini.WithObserver(m))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	archiveSvc := archive.NewService(
		sqlite.NewProcessRepository(db),
		activitySvc,
		client,
		logger,
		archive.WithLocation(loc),
		archive.WithExporter(export.New(
			export.WithFilePrefix(cfg.Export.FilePrefix),
			export.WithSheetName(cfg.Export.SheetName),
		)),
	)
	m.TrackArchive(archiveSvc)
	ws := workspace.New(client, archiveSvc, logger)

	return &app{
		db:        db,
		workspace: ws,
		archive:   archiveSvc,
		activity:  activitySvc,
		metrics:   m,
		mcp: mcp.NewServer(mcp.Config{
			Services: mcp.Services{Workspace: ws, Archive: archiveSvc, Activity: activitySvc, Busy: m},
			Version:  Version,
			Logger:   logger,
		}),
	}, nil
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or the context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, a *app, host string, port int) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return a.mcp },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := transport.NewRouter(transport.Config{
		Workspace: a.workspace,
		Archive:   a.archive,
		Activity:  a.activity,
		Logger:    logger,
		Busy:      a.metrics,
		Metrics:   a.metrics.Handler(),
		MCP:       mcpHandler,
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	return shutdown(logger, httpServer)
}

func shutdown(logger *slog.Logger, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

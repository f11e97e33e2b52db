package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"jasper-go/internal/api"
	"jasper-go/internal/checksum"
	"jasper-go/internal/config"
	"jasper-go/internal/database"
	"jasper-go/internal/encryption"
	"jasper-go/internal/export"
	"jasper-go/internal/fetch"
	"jasper-go/internal/fs"
	"jasper-go/internal/jasper"
	"jasper-go/internal/mcpserver"
	"jasper-go/internal/model"
	"jasper-go/internal/transport"
	"jasper-go/internal/watch"
)

// shutdownTimeout bounds how long the HTTP server waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// JasperApp is the application layer between the CLI and the lifecycle
// manager. It constructs all dependencies from config and closes them on Close.
type JasperApp struct {
	cfg       *config.Config
	db        jasper.Database
	transport jasper.Transport
	encryptor jasper.Encryptor
	manager   *jasper.LifecycleManager
	logger    jasper.Logger
	op        *Operation
	logFile   *os.File
}

// NewJasperApp creates a fully wired JasperApp from the given config.
// operation names the CLI command being run (e.g. "archive", "serve").
// The caller must call Close when done.
func NewJasperApp(ctx context.Context, cfg *config.Config, operation string) (*JasperApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := NewOperation(operation, time.Now())
	sl, logFile, err := newLogger(cfg.LogDir, op.ID, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	a, err := wire(ctx, cfg, logger)
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.op = op
	a.logFile = logFile
	logger.Debug("operation started", "operation", op.Name)
	return a, nil
}

// wire builds every collaborator. Nothing is left open on error.
func wire(ctx context.Context, cfg *config.Config, logger jasper.Logger) (*JasperApp, error) {
	hasher, err := checksum.New(cfg.Hash.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("creating hasher: %w", err)
	}

	tr, err := transport.NewTransportFromConfig(ctx, cfg.Transport)
	if err != nil {
		return nil, fmt.Errorf("creating transport: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		UserAgent:         cfg.Fetch.UserAgent,
		Timeout:           cfg.Fetch.Timeout.Duration,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		Burst:             cfg.Fetch.Burst,
		MaxBodyBytes:      cfg.Fetch.MaxBodyBytes,
	}, nil)
	var packager jasper.Packager
	if cfg.Archive.PackageExternal {
		packager = fetch.NewHTMLPackager(fetcher, logger)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, jasper.RealClock{}, jasper.UUIDGenerator{})
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	fsmgr := fs.NewOSFilesystemManager()
	archiver := jasper.NewArchivalCoordinator(db, tr, fetcher, packager, hasher, fsmgr, logger, jasper.RealClock{}, jasper.ArchiveConfig{
		AppName:         cfg.Archive.AppName,
		PackageExternal: cfg.Archive.PackageExternal,
		DefaultTags:     cfg.Archive.DefaultTags,
		CostPerKiB:      cfg.Archive.CostPerKiB,
	})
	mgr := jasper.NewLifecycleManager(db, archiver, hasher, fsmgr, fetcher, enc, logger, jasper.RealClock{})

	return &JasperApp{
		cfg:       cfg,
		db:        db,
		transport: tr,
		encryptor: enc,
		manager:   mgr,
		logger:    logger,
	}, nil
}

// Manager returns the lifecycle manager every command operates on.
func (a *JasperApp) Manager() *jasper.LifecycleManager { return a.manager }

// Logger returns the invocation's logger.
func (a *JasperApp) Logger() jasper.Logger { return a.logger }

// Encryptor returns the configured export encryptor.
func (a *JasperApp) Encryptor() jasper.Encryptor { return a.encryptor }

// CheckTransport verifies that the archival transport is reachable.
func (a *JasperApp) CheckTransport(ctx context.Context) error {
	if err := a.transport.ValidateSetup(ctx); err != nil {
		return fmt.Errorf("transport %s: %w", a.transport.Name(), err)
	}
	return nil
}

// Export writes an export of q into the configured export directory.
// Empty options fall back to the [export] config section.
func (a *JasperApp) Export(ctx context.Context, q model.Query, opts jasper.ExportOptions) (*jasper.ExportResult, error) {
	if opts.Compression == "" {
		opts.Compression = export.Compression(a.cfg.Export.Compression)
	}
	opts.Encrypt = opts.Encrypt || a.cfg.Export.Encrypt
	return a.manager.Export(ctx, q, a.cfg.Export.Dir, opts)
}

// Watch tracks file locations until ctx is cancelled.
func (a *JasperApp) Watch(ctx context.Context, cb watch.EventCallback) error {
	return watch.New(a.manager, a.logger).Run(ctx, cb)
}

// MCPServer returns an MCP server over the manager.
func (a *JasperApp) MCPServer(version string) *mcpserver.Server {
	return mcpserver.New(a.manager, version)
}

// Serve runs the HTTP API and the file watcher until ctx is cancelled.
func (a *JasperApp) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           api.NewServerHandler(a.manager, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Watch(gCtx, nil)
	})

	g.Go(func() error {
		a.logger.Info("starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

// Finish records the outcome of the operation in the log.
func (a *JasperApp) Finish(err error) {
	took := a.op.Finish(err, time.Now())
	if err != nil {
		a.logger.Error("operation failed", "operation", a.op.Name, "duration", took, "error", err)
		return
	}
	a.logger.Debug("operation finished", "operation", a.op.Name, "duration", took)
}

// Close closes the database and the log file.
func (a *JasperApp) Close() error {
	if a.op != nil && !a.op.Done() {
		a.Finish(nil)
	}
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}


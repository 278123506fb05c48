// Projectindex serves the project index dashboard API.
//
// The project document lives in a GitHub repository. The listing is read at
// startup, with a local fallback when GitHub is unreachable, and single-field
// edits are committed back through the contents API.
//
// Configuration comes from ~/.config/projectindex/config.yaml and the
// environment. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	projectindex
//
//	# Enable updates and pick a port
//	GITHUB_TOKEN=ghp_... PROJECTINDEX_SERVER_HTTP_PORT=8080 projectindex
//
//	# Use an explicit config file
//	projectindex -config /etc/projectindex/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectindex/internal/catalog"
	"github.com/fyrsmithlabs/projectindex/internal/config"
	"github.com/fyrsmithlabs/projectindex/internal/ghstore"
	httpserver "github.com/fyrsmithlabs/projectindex/internal/http"
	"github.com/fyrsmithlabs/projectindex/internal/logging"
	"github.com/fyrsmithlabs/projectindex/internal/project"
	"github.com/fyrsmithlabs/projectindex/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", os.Getenv("PROJECTINDEX_CONFIG"), "path to config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  projectindex           Start the server\n")
			fmt.Fprintf(os.Stderr, "  projectindex version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWithFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(ctx, cfg); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}

func printVersion() {
	fmt.Printf("projectindex by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires the application and serves until ctx is cancelled:
//  1. Starts telemetry and the logger
//  2. Builds the GitHub reader and, with a token, the writable store
//  3. Hydrates the listing
//  4. Serves HTTP and shuts down gracefully
func run(ctx context.Context, cfg *config.Config) error {
	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	otelLogs := global.GetLoggerProvider()
	if !tel.IsEnabled() {
		otelLogs = nil
	}
	logger, err := logging.NewLogger(logCfg, otelLogs)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "starting projectindex",
		zap.String("version", version),
		zap.String("repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo),
		zap.String("path", cfg.GitHub.Path),
		zap.String("read_mode", cfg.Store.ReadMode),
		logging.Secret("github_token", cfg.GitHub.Token),
		zap.Bool("telemetry", tel.IsEnabled()),
	)

	deps, err := initStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize github store: %w", err)
	}
	if deps.store == nil {
		logger.Warn(ctx, "github token not configured, updates are disabled")
	}

	fallback := catalog.BundledFallback()
	if cfg.Store.FallbackPath != "" {
		fallback = catalog.FileFallback(cfg.Store.FallbackPath)
	}
	accessor := catalog.NewAccessor(deps.reader, fallback, logger)
	updater := catalog.NewUpdater(deps.store, logger)

	h := accessor.Hydrate(ctx)
	listing := project.NewListing(h.Document)
	logger.Info(ctx, "listing hydrated",
		zap.String("source", string(h.Source)),
		zap.Int("projects", len(h.Document.Projects)),
	)

	srv, err := httpserver.NewServer(&httpserver.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		UpdateRateLimit: cfg.Server.UpdateRateLimit,
		UpdateBurst:     cfg.Server.UpdateBurst,
		Meter:           tel.Meter("github.com/fyrsmithlabs/projectindex/internal/http"),
	}, listing, accessor, updater, logger)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	if cfg.Store.FallbackPath != "" {
		watcher, err := catalog.NewFallbackWatcher(cfg.Store.FallbackPath, logger)
		if err != nil {
			logger.Warn(ctx, "fallback document will not be watched", zap.Error(err))
		} else {
			defer watcher.Stop()
			watcher.Start(ctx, func(ctx context.Context) {
				listing.Replace(accessor.Hydrate(ctx).Document)
			})
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info(ctx, "shutdown complete")
	return nil
}

// stores holds the document reader used for the listing and the writable
// store used for updates. store is nil without a token.
type stores struct {
	reader catalog.Reader
	store  catalog.Store
}

// initStores builds the GitHub clients for the configured read mode.
func initStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	ghCfg := ghstore.Config{
		Owner:      cfg.GitHub.Owner,
		Repo:       cfg.GitHub.Repo,
		Branch:     cfg.GitHub.Branch,
		Path:       cfg.GitHub.Path,
		Token:      cfg.GitHub.Token,
		APIBaseURL: cfg.GitHub.APIBaseURL,
		RawBaseURL: cfg.GitHub.RawBaseURL,
		Timeout:    cfg.GitHub.Timeout,
	}

	client, err := ghstore.NewClient(ctx, ghCfg)
	if err != nil {
		return nil, err
	}
	contents, err := ghstore.NewContentsStore(client, ghCfg)
	if err != nil {
		return nil, err
	}

	s := &stores{reader: contents}
	if cfg.Store.ReadMode == config.ReadModeRaw {
		raw, err := ghstore.NewRawReader(nil, ghCfg)
		if err != nil {
			return nil, err
		}
		s.reader = raw
	}
	if ghCfg.Token.IsSet() {
		s.store = contents
	}
	return s, nil
}

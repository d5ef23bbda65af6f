package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"chakrals/internal/core/config"
	"chakrals/internal/data/history"
	"chakrals/internal/engine/analyzer"
	"chakrals/internal/engine/deps"
	"chakrals/internal/engine/files"
	"chakrals/internal/lsp"
	"chakrals/internal/shared/observability"
	"chakrals/internal/shared/util"
)

var (
	configPath = flag.String("config", "./chakrals.toml", "Path to config file")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("chakrals v%s\n", VERSION)
		os.Exit(0)
	}

	// stdout carries JSON-RPC, so all logging goes to stderr.
	logLevel := slog.LevelInfo
	verbosity := 0
	if *verbose {
		logLevel = slog.LevelDebug
		verbosity = 2
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	commonlog.Configure(verbosity, nil)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) && *configPath == "./chakrals.toml" {
			cfg = config.DefaultConfig()
		} else {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	if cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, VERSION)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown(ctx)
		}
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("validation history disabled", "path", cfg.History.Path, "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	tracker := deps.NewTracker(cfg.Dependency.ManifestName, cfg.Dependency.Packages)
	an := analyzer.New(cfg.Dependency.Packages)
	reader := files.NewReader(
		util.NewLimiter(cfg.Limits.ReadsPerSecond, cfg.Limits.ReadBurst),
		cfg.Limits.MaxFileSize)

	server := lsp.NewServer(cfg, tracker, an, reader, store, VERSION)

	if cfg.Observability.MetricsAddr != "" {
		obs := observability.NewServer(cfg.Observability.MetricsAddr, func(ctx context.Context) any {
			return server.Health(ctx)
		})
		if err := obs.Start(ctx); err != nil {
			slog.Warn("observability server disabled", "error", err)
		} else {
			defer obs.Stop(ctx)
		}
	}

	slog.Info("starting language server", "version", VERSION, "session", store.SessionID())
	if err := server.RunStdio(); err != nil {
		slog.Error("server terminated", "error", err)
		os.Exit(1)
	}
}

// Package main is the lookalike CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/lookalike/internal/catalog"
	"github.com/hyperjump/lookalike/internal/cli"
	"github.com/hyperjump/lookalike/internal/config"
	"github.com/hyperjump/lookalike/internal/server"
	"github.com/hyperjump/lookalike/internal/watcher"
	"github.com/hyperjump/lookalike/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/lookalike/config.yaml"
	defaultServerURL  = "http://localhost:5000"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When the default path does not exist either, built-in defaults are used and the
// returned path is empty.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.Default()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "lookup":
		runLookup()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("lookalike version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		var loadErr *catalog.LoadError
		if errors.As(err, &loadErr) {
			logger.Fatal("Catalog could not be loaded", zap.String("source", loadErr.Source), zap.Error(err))
		}
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var watchSvc *watcher.Watcher
	if cfg.Catalog.Watch {
		store := components.Store
		watchSvc, err = watcher.New(cfg.Catalog.Path, func(path string) {
			logger.Info("catalog file changed, reloading", zap.String("path", path))
			reloadCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			// A failed reload keeps serving the previous snapshot.
			_ = store.Reload(reloadCtx)
		}, watcher.WithLogger(logger))
		if err != nil {
			logger.Fatal("Failed to create catalog watcher", zap.Error(err))
		}
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start catalog watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(components.Service, &cfg.Server, logger, server.WithCatalogWatch(watchSvc != nil))
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// argsReorder moves any flags (and their values) that appear after the
// positional arguments to the front so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so
// "lookalike search shoe.jpg -top-k 3" would otherwise leave -top-k unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildLookupQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildLookupQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func printUsage() {
	fmt.Println(`lookalike - Find visually similar products by image

Usage:
  lookalike server [flags]            Start the HTTP server
  lookalike search [flags] <image>    Find products similar to an image
  lookalike lookup [flags] <text>     Find products by name or category
  lookalike import -in <catalog> -out <catalog>
                                      Convert a catalog between JSON, XLSX and SQLite
  lookalike status [flags]            Show catalog and embedder status
  lookalike version                   Show version
  lookalike help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/lookalike/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for local mode)
  --server string    Server URL (default: http://localhost:5000). Use --server "" to
                     load the catalog and embedder locally.
  --top-k int        Number of results (default: server default, 6)
  --output string    Output format: text, compact or json (default: text)

Lookup Flags:
  --server string    Server URL (default: http://localhost:5000)
  --limit int        Number of results
  --output string    Output format: text, compact or json (default: text)

Status Flags:
  --config string    Config file path (for local mode)
  --server string    Server URL (default: http://localhost:5000). Use --server "" for local mode.
  --output string    Output format: text or json (default: text)

Examples:
  lookalike server
  lookalike search shoe.jpg
  lookalike search --top-k 10 --output json shoe.jpg
  lookalike search --server "" shoe.jpg      # no server needed
  lookalike lookup cycling shorts
  lookalike import -in product_features.json -out catalog.db
  lookalike status --output json`)
}

// exitOnError prints err with a prefix and exits.
func exitOnError(prefix string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
		os.Exit(1)
	}
}

// parseFormat validates an -output value or exits.
func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	exitOnError("Invalid output", err)
	return format
}

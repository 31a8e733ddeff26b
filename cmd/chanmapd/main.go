// chanmapd standardizes channel names in a Dispatcharr-compatible catalog.
// Without a subcommand it runs the HTTP daemon; the subcommands run one
// action each and exit.
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
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chanmap/chanmap/internal/api"
	"github.com/chanmap/chanmap/internal/catalog"
	"github.com/chanmap/chanmap/internal/config"
	"github.com/chanmap/chanmap/internal/jobs"
	xlog "github.com/chanmap/chanmap/internal/log"
	"github.com/chanmap/chanmap/internal/refdata"
	"github.com/chanmap/chanmap/internal/store"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("chanmapd", flag.ExitOnError)
	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", "", "path to config file (YAML)")
	previewPath := fs.String("out", "", "output path for the preview subcommand")

	args := os.Args[1:]
	var command string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command = args[0]
		args = args[1:]
	}
	_ = fs.Parse(args)

	if *showVersion {
		fmt.Printf("chanmapd %s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	}

	xlog.Configure(xlog.Config{Level: "info", Service: "chanmap", Version: version})
	logger := xlog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{Path: *configPath}.Load()
	if err != nil {
		logger.Error().Err(err).Str(xlog.FieldEvent, "config.load_failed").Msg("cannot load configuration")
		return 1
	}
	xlog.Configure(xlog.Config{Level: cfg.LogLevel, Service: "chanmap", Version: version})

	db, err := refdata.Loader{Dir: cfg.RefData.Dir}.Load(cfg.Matching.Countries)
	if err != nil {
		logger.Error().Err(err).Str(xlog.FieldEvent, "refdata.load_failed").Msg("cannot load reference data")
		return 1
	}
	logger.Info().
		Strs("countries", db.Countries()).
		Int("stations", db.StationCount()).
		Int("premium", len(db.PremiumNames())).
		Msg("reference data loaded")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", cfg.DataDir).Msg("cannot create data directory")
		return 1
	}
	st, err := store.Open(filepath.Join(cfg.DataDir, "chanmap.db"))
	if err != nil {
		logger.Error().Err(err).Msg("cannot open store")
		return 1
	}
	defer func() { _ = st.Close() }()

	runner, err := newRunner(cfg, db, st)
	if err != nil {
		logger.Error().Err(err).Msg("cannot build runner")
		return 1
	}

	switch command {
	case "":
		return runDaemon(ctx, *configPath, cfg, st, runner)
	case "process":
		run, err := runner.Process(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("processing pass failed")
			return 1
		}
		fmt.Printf("processed %d channels: %d renamed (%d station, %d premium), %d skipped\n",
			run.TotalChannels, run.Renamed, run.StationHits, run.PremiumHits, run.Skipped)
		return 0
	case "preview":
		out := *previewPath
		if out == "" {
			out = filepath.Join(cfg.DataDir, fmt.Sprintf("chanmap_preview_%s.csv", time.Now().Format("20060102_150405")))
		}
		n, err := runner.Preview(ctx, out)
		if err != nil {
			logger.Error().Err(err).Msg("preview export failed")
			return 1
		}
		fmt.Printf("exported %d records to %s\n", n, out)
		return 0
	case "rename":
		return runAction(ctx, logger, "renamed", runner.Rename)
	case "suffix-unknown":
		return runAction(ctx, logger, "suffixed", runner.SuffixUnknown)
	case "logos":
		return runAction(ctx, logger, "assigned logos to", runner.ApplyLogos)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want process, preview, rename, suffix-unknown or logos)\n", command)
		return 2
	}
}

func runAction(ctx context.Context, logger zerolog.Logger, verb string, fn func(context.Context) (int, error)) int {
	n, err := fn(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("action failed")
		return 1
	}
	fmt.Printf("%s %d channels\n", verb, n)
	return 0
}

func newRunner(cfg config.Config, db *refdata.Database, st *store.Store) (*jobs.Runner, error) {
	client := catalog.New(cfg.Catalog.BaseURL, catalog.Options{
		Username:  cfg.Catalog.Username,
		Password:  cfg.Catalog.Password,
		Timeout:   cfg.Catalog.CatalogTimeout(),
		RateLimit: cfg.Catalog.RateLimit,
		RateBurst: cfg.Catalog.RateBurst,
	})
	return jobs.NewRunner(client, db, st, cfg)
}

// runDaemon serves the HTTP API until the context is cancelled. A config
// file change rebuilds the runner in place; the listener stays up.
func runDaemon(ctx context.Context, configPath string, cfg config.Config, st *store.Store, runner *jobs.Runner) int {
	logger := xlog.WithComponent("daemon")

	var mu sync.RWMutex
	current := runner

	holder := config.NewHolder(cfg, config.Loader{Path: configPath})
	updates := make(chan config.Config, 1)
	holder.Subscribe(updates)

	srv := api.New(func() *jobs.Runner {
		mu.RLock()
		defer mu.RUnlock()
		return current
	}, st, api.Options{RateLimitRPS: 20})

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("listen", cfg.Listen).Msg("http server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if configPath != "" {
			return holder.Watch(gctx)
		}
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-updates:
				nextDB, err := refdata.Loader{Dir: next.RefData.Dir}.Load(next.Matching.Countries)
				if err != nil {
					logger.Error().Err(err).Msg("reload: reference data load failed, keeping previous state")
					continue
				}
				nextRunner, err := newRunner(next, nextDB, st)
				if err != nil {
					logger.Error().Err(err).Msg("reload: runner rebuild failed, keeping previous state")
					continue
				}
				mu.Lock()
				current = nextRunner
				mu.Unlock()
				logger.Info().Str(xlog.FieldEvent, "config.reloaded").Msg("configuration reloaded")
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("daemon exited with error")
		return 1
	}
	logger.Info().Msg("daemon stopped")
	return 0
}

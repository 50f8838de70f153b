// stagehand: the installation controller service.
// Ingests mocap frames, runs the stage behaviors, and serves the
// operator dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inmotionlab/go-stagehand/internal/config"
	"github.com/inmotionlab/go-stagehand/internal/log"
	"github.com/inmotionlab/go-stagehand/pkg/behavior"
	"github.com/inmotionlab/go-stagehand/pkg/dashboard"
	"github.com/inmotionlab/go-stagehand/pkg/journal"
	"github.com/inmotionlab/go-stagehand/pkg/mocap"
	"github.com/inmotionlab/go-stagehand/pkg/scene"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "stagehand: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags override the environment for quick operator tweaks.
	setupPath := flag.String("setup", cfg.SetupPath, "installation setup YAML")
	listen := flag.String("listen", cfg.Listen, "dashboard listen address")
	bridge := flag.String("bridge", cfg.BridgeURL, "mocap bridge websocket URL")
	ingest := flag.String("ingest", cfg.Ingest, "frame ingestion mode: dial or listen")
	journalPath := flag.String("journal", cfg.JournalPath, "journal SQLite path (empty = memory)")
	logLevel := flag.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	flag.Parse()

	cfg.SetupPath = *setupPath
	cfg.Listen = *listen
	cfg.BridgeURL = *bridge
	cfg.Ingest = *ingest
	cfg.JournalPath = *journalPath
	cfg.LogLevel = *logLevel
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Init(cfg.LogLevel, cfg.LogFormat)
	logger := log.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Journal store: SQLite when a path is configured, memory otherwise.
	var store journal.Store
	if cfg.JournalPath != "" {
		sqlStore, err := journal.OpenSQLite(cfg.JournalPath)
		if err != nil {
			return err
		}
		store = sqlStore
		logger.Info("journal opened", "path", cfg.JournalPath)
	} else {
		store = journal.NewMemory(1000)
		logger.Info("journal in memory only")
	}
	defer store.Close()

	async := journal.NewAsyncRecorder(store, 256)

	registry := mocap.NewRegistry(cfg.StaleAfter)
	stage := scene.New()

	setup, err := behavior.Load(cfg.SetupPath)
	if err != nil {
		return err
	}

	// Tunables are announced to the dashboard after build; the
	// recorder fans events out to both the store and the dashboard
	// stream, so the server must exist before the behaviors. Build
	// with a deferred recorder indirection.
	var recorder journal.Recorder = async
	deferred := journal.RecorderFunc(func(ev journal.Event) { recorder.Record(ev) })

	built, err := setup.Build(stage, registry, deferred)
	if err != nil {
		return err
	}

	var tunables []behavior.Tunable
	for _, b := range built {
		if tn, ok := b.(behavior.Tunable); ok {
			tunables = append(tunables, tn)
		}
	}

	srv := dashboard.NewServer(cfg.Listen, stage, registry, store, tunables)
	recorder = journal.MultiRecorder(async, srv)
	stage.OnChange(srv.PublishSnapshot)

	logger.Info("setup loaded",
		"path", cfg.SetupPath, "behaviors", len(built), "ingest", cfg.Ingest)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return async.Run(ctx) })
	g.Go(func() error { return stage.Run(ctx, cfg.TickHz) })
	g.Go(func() error { return srv.Run(ctx) })

	switch cfg.Ingest {
	case config.IngestDial:
		client := mocap.NewClient(cfg.BridgeURL, registry)
		if desc, err := client.Probe(ctx); err != nil {
			logger.Warn("bridge probe failed, will keep dialing", "error", err)
		} else {
			logger.Info("bridge probed", "bridge", desc.Bridge, "bodies", len(desc.Bodies))
		}
		g.Go(func() error { return client.Run(ctx) })

	case config.IngestListen:
		feed := mocap.NewFeed(registry)
		feed.RegisterRoutes(srv.App())
		logger.Info("inbound mocap feed mounted", "path", "/ws/mocap")
	}

	recorder.Record(journal.New(journal.KindServiceStart, "", "", map[string]any{
		"listen": cfg.Listen, "ingest": cfg.Ingest,
	}))

	err = g.Wait()

	// The async recorder has drained by now; record the stop directly.
	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = store.Append(stopCtx, journal.New(journal.KindServiceStop, "", "", nil))

	return err
}

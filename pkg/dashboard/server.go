// Package dashboard serves the operator surface: REST endpoints for
// status, scene, bodies, events, and runtime tuning, plus live
// websocket streams of scene snapshots and journal events.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/inmotionlab/go-stagehand/pkg/behavior"
	"github.com/inmotionlab/go-stagehand/pkg/hub"
	"github.com/inmotionlab/go-stagehand/pkg/journal"
	"github.com/inmotionlab/go-stagehand/pkg/mocap"
	"github.com/inmotionlab/go-stagehand/pkg/scene"
)

// Server is the operator dashboard.
type Server struct {
	app  *fiber.App
	addr string
	log  *slog.Logger

	stage    *scene.Stage
	registry *mocap.Registry
	store    journal.Store
	tunables map[string]behavior.Tunable

	sceneHub *hub.Hub
	eventHub *hub.Hub

	started time.Time
}

// NewServer wires the dashboard over the stage, registry, and journal
// store. tunables are the behaviors exposed for runtime retuning.
func NewServer(addr string, stage *scene.Stage, registry *mocap.Registry, store journal.Store, tunables []behavior.Tunable) *Server {
	s := &Server{
		addr:     addr,
		log:      slog.Default().With("component", "dashboard"),
		stage:    stage,
		registry: registry,
		store:    store,
		tunables: make(map[string]behavior.Tunable, len(tunables)),
		sceneHub: hub.New("scene"),
		eventHub: hub.New("events"),
		started:  time.Now(),
	}
	for _, tn := range tunables {
		s.tunables[tn.Name()] = tn
	}

	app := fiber.New(fiber.Config{
		AppName:               "stagehand",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/scene", s.handleScene)
	api.Get("/bodies", s.handleBodies)
	api.Get("/events", s.handleEvents)
	api.Post("/behaviors/:name/tune", s.handleTune)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/scene", websocket.New(s.handleSceneWS))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App exposes the fiber app so ingestion can mount the inbound mocap
// feed on the same listener.
func (s *Server) App() *fiber.App {
	return s.app
}

// PublishSnapshot streams a scene snapshot to connected clients.
// Wired to scene.Stage.OnChange.
func (s *Server) PublishSnapshot(snap scene.Snapshot) {
	if err := s.sceneHub.PublishJSON(snap); err != nil {
		s.log.Warn("failed to publish snapshot", "error", err)
	}
}

// Record implements journal.Recorder: every event is streamed live to
// dashboard clients in addition to whatever store persists it.
func (s *Server) Record(ev journal.Event) {
	if err := s.eventHub.PublishJSON(ev); err != nil {
		s.log.Warn("failed to publish event", "error", err)
	}
}

// Run starts the hubs and the HTTP listener; it blocks until ctx is
// cancelled, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	go s.sceneHub.Run(ctx)
	go s.eventHub.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		errc <- s.app.Listen(s.addr)
	}()
	s.log.Info("dashboard listening", "addr", s.addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		_ = s.app.Shutdown()
		return ctx.Err()
	}
}

package dashboard

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/inmotionlab/go-stagehand/pkg/journal"
)

// Status summarizes the running service for GET /api/status.
type Status struct {
	Uptime       string   `json:"uptime"`
	Tick         uint64   `json:"tick"`
	Revision     uint64   `json:"revision"`
	Props        int      `json:"props"`
	Behaviors    []string `json:"behaviors"`
	Bodies       int      `json:"bodies"`
	SceneClients int      `json:"scene_clients"`
	EventClients int      `json:"event_clients"`
}

// handleStatus returns the service summary.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	snap := s.stage.Snapshot()
	return c.JSON(Status{
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		Tick:         snap.Tick,
		Revision:     snap.Revision,
		Props:        len(snap.Props),
		Behaviors:    snap.Behaviors,
		Bodies:       len(s.registry.Status()),
		SceneClients: s.sceneHub.SubscriberCount(),
		EventClients: s.eventHub.SubscriberCount(),
	})
}

// handleScene returns the current scene snapshot.
func (s *Server) handleScene(c *fiber.Ctx) error {
	return c.JSON(s.stage.Snapshot())
}

// handleBodies returns the mocap registry contents.
func (s *Server) handleBodies(c *fiber.Ctx) error {
	return c.JSON(s.registry.Status())
}

// handleEvents returns recent journal events, newest first.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	events, err := s.store.Recent(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if events == nil {
		events = []journal.Event{} // keep JSON as [] not null
	}
	return c.JSON(events)
}

// handleTune applies a tuning patch to a behavior by name.
func (s *Server) handleTune(c *fiber.Ctx) error {
	name := c.Params("name")
	tn, ok := s.tunables[name]
	if !ok {
		names := make([]string, 0, len(s.tunables))
		for n := range s.tunables {
			names = append(names, n)
		}
		sort.Strings(names)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":     "unknown behavior: " + name,
			"behaviors": names,
		})
	}

	if err := tn.Retune(c.Body()); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.log.Info("behavior retuned", "behavior", name)
	return c.JSON(fiber.Map{"behavior": name, "status": "ok"})
}

// handleSceneWS streams scene snapshots.
func (s *Server) handleSceneWS(c *websocket.Conn) {
	// Send the current snapshot immediately so clients don't wait
	// for the next change.
	_ = c.WriteJSON(s.stage.Snapshot())
	s.sceneHub.Subscribe(c)
}

// handleEventsWS streams journal events.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	s.eventHub.Subscribe(c)
}

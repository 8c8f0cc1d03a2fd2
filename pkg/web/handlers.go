package web

import (
	"bytes"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-rover/pkg/dashboard"
	"github.com/teslashibe/go-rover/pkg/history"
	"github.com/teslashibe/go-rover/pkg/hub"
	"github.com/teslashibe/go-rover/pkg/render"
	"github.com/teslashibe/go-rover/pkg/rover"
)

// handleIndex serves the control panel page
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(indexHTML)
}

// handleHealth reports liveness plus a few counters
func (s *Server) handleHealth(c *fiber.Ctx) error {
	v := s.panel.View()
	resp := fiber.Map{
		"status":     "ok",
		"session_id": v.SessionID,
		"cycle":      v.Cycle,
		"points":     v.History.Len(),
		"clients":    s.statusHub.ClientCount(),
	}
	if s.stats != nil {
		resp["loop"] = s.stats()
	}
	return c.JSON(resp)
}

// handleState returns the latest View
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.panel.View())
}

// ModeRequest is the request body for switching modes
type ModeRequest struct {
	Auto *bool `json:"auto"`
}

// handleMode toggles auto/manual
func (s *Server) handleMode(c *fiber.Ctx) error {
	var req ModeRequest
	if err := c.BodyParser(&req); err != nil || req.Auto == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": `body must be {"auto": true|false}`,
		})
	}

	s.panel.SetAutoMode(*req.Auto)
	s.trigger()
	return c.JSON(fiber.Map{"auto_mode": s.panel.AutoMode()})
}

// handleMove issues one manual move
func (s *Server) handleMove(c *fiber.Ctx) error {
	dir, err := rover.ParseDirection(c.Params("direction"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.panel.Move(c.UserContext(), dir); err != nil {
		return s.commandError(c, err)
	}
	s.trigger()
	return c.JSON(fiber.Map{"command": "move", "direction": dir})
}

// handleStop issues a manual stop
func (s *Server) handleStop(c *fiber.Ctx) error {
	if err := s.panel.Stop(c.UserContext()); err != nil {
		return s.commandError(c, err)
	}
	s.trigger()
	return c.JSON(fiber.Map{"command": "stop"})
}

// handleRestart opens a new rover session and clears the history
func (s *Server) handleRestart(c *fiber.Ctx) error {
	if err := s.panel.Restart(c.UserContext()); err != nil {
		s.logger.Error("session restart failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	s.trigger()
	return c.JSON(fiber.Map{"session_id": s.panel.View().SessionID})
}

// commandError maps a control failure to an HTTP status
func (s *Server) commandError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadGateway
	switch {
	case errors.Is(err, dashboard.ErrAutoMode):
		status = fiber.StatusConflict
	case errors.Is(err, dashboard.ErrNotStarted):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, rover.ErrInvalidDirection):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// handlePathPlot renders the path plot PNG
func (s *Server) handlePathPlot(c *fiber.Ctx) error {
	return s.sendPNG(c, render.PathPNG)
}

// handleBatteryPlot renders the battery chart PNG
func (s *Server) handleBatteryPlot(c *fiber.Ctx) error {
	return s.sendPNG(c, render.BatteryPNG)
}

func (s *Server) sendPNG(c *fiber.Ctx, draw func(io.Writer, history.Snapshot) error) error {
	var buf bytes.Buffer
	if err := draw(&buf, s.panel.View().History); err != nil {
		if errors.Is(err, render.ErrNoData) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		s.logger.Error("plot render failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(buf.Bytes())
}

// handleSensor returns the raw sensor reading of the last refresh
func (s *Server) handleSensor(c *fiber.Ctx) error {
	data, err := render.SensorJSON(s.panel.View().Sensor)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// handleStatusWS streams Views to one websocket client
func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.NewClient(s.statusHub, c).Run()
}

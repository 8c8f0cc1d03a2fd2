// Package web serves the rover control panel: a sidebar with the mode
// toggle and manual drive buttons, and a main panel with the path plot,
// battery chart and raw sensor data, kept live over a websocket.
package web

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/dashboard"
	"github.com/teslashibe/go-rover/pkg/hub"
	"github.com/teslashibe/go-rover/pkg/rover"
)

// Panel is the session surface the web panel drives.
// *dashboard.Session implements it.
type Panel interface {
	View() dashboard.View
	AutoMode() bool
	SetAutoMode(on bool)
	Move(ctx context.Context, dir rover.Direction) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
}

var _ Panel = (*dashboard.Session)(nil)

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	port   string
	panel  Panel
	logger *slog.Logger

	// statusHub streams every published View to /ws/status clients
	statusHub *hub.Hub

	trigger func()
	stats   func() dashboard.LoopStats
}

// Option configures a Server.
type Option func(*Server)

// WithTrigger sets the callback used to request an immediate refresh
// after a control interaction.
func WithTrigger(fn func()) Option {
	return func(s *Server) { s.trigger = fn }
}

// WithStats exposes refresh loop counters on /health.
func WithStats(fn func() dashboard.LoopStats) Option {
	return func(s *Server) { s.stats = fn }
}

// NewServer creates a new web dashboard server
func NewServer(port string, panel Panel, debug bool, opts ...Option) *Server {
	s := &Server{
		port:      port,
		panel:     panel,
		logger:    log.With("component", "web"),
		statusHub: hub.New("status"),
		trigger:   func() {},
	}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		AppName:               "Rover Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if debug {
		app.Use(logger.New())
	}

	app.Get("/", s.handleIndex)
	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/mode", s.handleMode)
	api.Post("/move/:direction", s.handleMove)
	api.Post("/stop", s.handleStop)
	api.Post("/session/restart", s.handleRestart)
	api.Get("/plot/path.png", s.handlePathPlot)
	api.Get("/plot/battery.png", s.handleBatteryPlot)
	api.Get("/sensor", s.handleSensor)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app

	// Seed the hub so the first websocket client gets a frame immediately.
	s.Broadcast(panel.View())
	return s
}

// Broadcast pushes a View to every websocket client.
// Wire it to dashboard.Session.OnRefresh.
func (s *Server) Broadcast(v dashboard.View) {
	if err := s.statusHub.BroadcastJSON(v); err != nil {
		s.logger.Warn("broadcast failed", "error", err)
	}
}

// Serve runs the server on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.statusHub.Run(ctx)
	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			s.logger.Warn("shutdown failed", "error", err)
		}
	}()

	s.logger.Info("web dashboard listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// ListenAndServe listens on the configured port and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// ClientCount returns the number of live websocket clients.
func (s *Server) ClientCount() int {
	return s.statusHub.ClientCount()
}

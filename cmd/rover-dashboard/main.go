// rover-dashboard: web control panel for the remote rover simulation.
// Polls the rover API on a fixed interval, runs the auto-pilot and serves
// the path plot, battery chart and sensor data over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/teslashibe/go-rover/internal/config"
	"github.com/teslashibe/go-rover/internal/httpc"
	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/autopilot"
	"github.com/teslashibe/go-rover/pkg/dashboard"
	"github.com/teslashibe/go-rover/pkg/rover"
	"github.com/teslashibe/go-rover/pkg/web"
)

var version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	port := flag.String("port", "", "HTTP port (overrides PORT / DASHBOARD_PORT)")
	apiURL := flag.String("api", "", "Rover API base URL (overrides ROVER_API_URL)")
	manual := flag.Bool("manual", false, "Start in manual mode")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	err = cfg.Apply(config.Overrides{APIURL: *apiURL, Port: *port, Manual: *manual, Debug: *debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)
	logger := log.With("component", "main")

	fmt.Println()
	fmt.Println("🛰️  Rover Dashboard v" + version)
	fmt.Println("   API: " + cfg.APIBase())
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := rover.NewHTTPClient(cfg.APIBase(), rover.WithHTTPClient(httpc.NewClient(cfg.HTTPTimeout)))
	pilotOpts := []autopilot.Option{autopilot.WithLowBattery(cfg.LowBattery)}
	if cfg.Seed != 0 {
		pilotOpts = append(pilotOpts, autopilot.WithSeed(cfg.Seed))
	}
	session := dashboard.New(client,
		dashboard.WithPilot(autopilot.New(client, pilotOpts...)),
		dashboard.WithAutoMode(cfg.AutoMode),
	)

	if err := session.Start(ctx); err != nil {
		logger.Error("could not start rover session", "error", err)
		os.Exit(1)
	}

	loop := dashboard.NewLoop(session, cfg.RefreshInterval)
	server := web.NewServer(cfg.Port, session, *debug,
		web.WithTrigger(loop.Trigger),
		web.WithStats(loop.Stats),
	)
	session.OnRefresh(server.Broadcast)

	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresh loop stopped", "error", err)
		}
	}()

	logger.Info("dashboard ready",
		"url", "http://localhost:"+cfg.Port,
		"auto_mode", cfg.AutoMode,
		"refresh_interval", cfg.RefreshInterval)

	if err := server.ListenAndServe(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("👋 shut down")
}

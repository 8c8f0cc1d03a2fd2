// rover-tui: terminal control panel for the remote rover simulation.
// Same controls as the web dashboard; logs go to a file so they do not
// tear the screen.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/teslashibe/go-rover/internal/config"
	"github.com/teslashibe/go-rover/internal/httpc"
	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/autopilot"
	"github.com/teslashibe/go-rover/pkg/dashboard"
	"github.com/teslashibe/go-rover/pkg/rover"
	"github.com/teslashibe/go-rover/pkg/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	apiURL := flag.String("api", "", "Rover API base URL (overrides ROVER_API_URL)")
	manual := flag.Bool("manual", false, "Start in manual mode")
	logFile := flag.String("log", "rover-tui.log", "Log file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Apply(config.Overrides{APIURL: *apiURL, Manual: *manual}); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	f, err := tea.LogToFile(*logFile, "rover-tui")
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ open log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	log.InitWriter(cfg.LogLevel, f)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
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

	fmt.Println("🛰️  Connecting to " + cfg.APIBase() + " ...")
	if err := session.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ could not start rover session: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(tui.New(ctx, session, cfg.RefreshInterval),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// rover-watch: tails a running rover-dashboard over its websocket and
// prints one line per refresh.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/dashboard"
)

func main() {
	addr := flag.String("addr", "localhost:8501", "Dashboard host:port")
	asJSON := flag.Bool("json", false, "Print raw JSON frames")
	flag.Parse()

	log.Init(os.Getenv("LOG_LEVEL"))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/status"}
	for ctx.Err() == nil {
		if err := watch(ctx, u.String(), *asJSON); err != nil {
			log.Warn("connection lost, retrying", "url", u.String(), "error", err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(2 * time.Second):
		}
	}
}

func watch(ctx context.Context, target string, raw bool) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("connected", "url", target)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if raw {
			fmt.Println(string(data))
			continue
		}

		var v dashboard.View
		if err := json.Unmarshal(data, &v); err != nil {
			log.Warn("bad frame", "error", err)
			continue
		}
		fmt.Println(summary(v))
	}
}

func summary(v dashboard.View) string {
	mode := "manual"
	if v.AutoMode {
		mode = "auto"
	}
	line := fmt.Sprintf("#%-5d %-6s pos=(%.0f,%.0f) battery=%.0f%% obstacle=%v tag=%v",
		v.Cycle, mode, v.Position.X, v.Position.Y, v.Battery,
		v.Sensor.Obstacle(), v.Sensor.TagDetected())
	if v.LastAction != nil {
		line += " pilot=" + v.LastAction.String()
	}
	if v.LastCommand != "" {
		line += " cmd=" + v.LastCommand
	}
	if v.LastError != "" {
		line += " error=" + v.LastError
	}
	return line
}

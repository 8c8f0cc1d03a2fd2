package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-rover/pkg/dashboard"
	"github.com/teslashibe/go-rover/pkg/rover"
)

func newTestServer(t *testing.T, opts ...dashboard.Option) (*Server, *dashboard.Session, *rover.Mock) {
	t.Helper()
	mock := rover.NewMock()
	session := dashboard.New(mock, opts...)
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return NewServer("0", session, false), session, mock
}

func do(t *testing.T, s *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestIndex(t *testing.T) {
	s, _, _ := newTestServer(t)

	resp, body := do(t, s, "GET", "/", "")
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	for _, want := range []string{"Rover Controls", "Rover Dashboard", "/ws/status"} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	resp, body := do(t, s, "GET", "/health", "")
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("status = %v, want ok", got["status"])
	}
	if got["session_id"] != "mock-session" {
		t.Errorf("session_id = %v, want mock-session", got["session_id"])
	}
}

func TestState(t *testing.T) {
	s, session, _ := newTestServer(t)
	if _, err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	_, body := do(t, s, "GET", "/api/state", "")
	var v dashboard.View
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Cycle != 1 {
		t.Errorf("Cycle = %d, want 1", v.Cycle)
	}
	if v.History.Len() != 1 {
		t.Errorf("history length = %d, want 1", v.History.Len())
	}
}

func TestMode(t *testing.T) {
	s, session, _ := newTestServer(t)

	triggered := 0
	s.trigger = func() { triggered++ }

	for _, body := range []string{"", "{}", "not json"} {
		resp, _ := do(t, s, "POST", "/api/mode", body)
		if resp.StatusCode != 400 {
			t.Errorf("body %q: Status = %d, want 400", body, resp.StatusCode)
		}
	}

	resp, body := do(t, s, "POST", "/api/mode", `{"auto": false}`)
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200 (%s)", resp.StatusCode, body)
	}
	if session.AutoMode() {
		t.Error("session should be in manual mode")
	}
	if triggered != 1 {
		t.Errorf("trigger called %d times, want 1", triggered)
	}
}

func TestMove_RejectedInAutoMode(t *testing.T) {
	s, _, mock := newTestServer(t)
	mock.Reset()

	resp, _ := do(t, s, "POST", "/api/move/forward", "")
	if resp.StatusCode != 409 {
		t.Errorf("Status = %d, want 409", resp.StatusCode)
	}
	if len(mock.Calls()) != 0 {
		t.Errorf("rover called in auto mode: %v", mock.Methods())
	}
}

func TestMove_Manual(t *testing.T) {
	s, _, mock := newTestServer(t, dashboard.WithAutoMode(false))
	mock.Reset()

	triggered := 0
	s.trigger = func() { triggered++ }

	resp, _ := do(t, s, "POST", "/api/move/left", "")
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	moves := mock.Moves()
	if len(moves) != 1 || moves[0] != rover.Left {
		t.Errorf("moves = %v, want [left]", moves)
	}
	if triggered != 1 {
		t.Errorf("trigger called %d times, want 1", triggered)
	}
}

func TestMove_BadDirection(t *testing.T) {
	s, _, mock := newTestServer(t, dashboard.WithAutoMode(false))
	mock.Reset()

	resp, _ := do(t, s, "POST", "/api/move/up", "")
	if resp.StatusCode != 400 {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}
	if len(mock.Calls()) != 0 {
		t.Errorf("rover called for bad direction: %v", mock.Methods())
	}
}

func TestMove_RoverFailure(t *testing.T) {
	s, _, mock := newTestServer(t, dashboard.WithAutoMode(false))
	mock.MoveFunc = func(ctx context.Context, session rover.SessionID, dir rover.Direction) error {
		return &rover.APIError{Endpoint: rover.PathMove, StatusCode: 500, Body: "boom"}
	}

	resp, _ := do(t, s, "POST", "/api/move/right", "")
	if resp.StatusCode != 502 {
		t.Errorf("Status = %d, want 502", resp.StatusCode)
	}
}

func TestStop(t *testing.T) {
	s, _, mock := newTestServer(t, dashboard.WithAutoMode(false))
	mock.Reset()

	resp, _ := do(t, s, "POST", "/api/stop", "")
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if got := mock.Methods(); len(got) != 1 || got[0] != "Stop" {
		t.Errorf("calls = %v, want [Stop]", got)
	}
}

func TestRestart(t *testing.T) {
	s, session, mock := newTestServer(t)
	if _, err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	mock.StartSessionFunc = func(ctx context.Context) (rover.SessionID, error) {
		return "second", nil
	}

	resp, body := do(t, s, "POST", "/api/session/restart", "")
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte("second")) {
		t.Errorf("body = %s, want new session id", body)
	}
	if n := session.History().Len(); n != 0 {
		t.Errorf("history length after restart = %d, want 0", n)
	}
}

func TestPlots(t *testing.T) {
	s, session, _ := newTestServer(t)

	for _, path := range []string{"/api/plot/path.png", "/api/plot/battery.png"} {
		resp, _ := do(t, s, "GET", path, "")
		if resp.StatusCode != 204 {
			t.Errorf("%s before refresh: Status = %d, want 204", path, resp.StatusCode)
		}
	}

	if _, err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	pngMagic := []byte("\x89PNG\r\n\x1a\n")
	for _, path := range []string{"/api/plot/path.png", "/api/plot/battery.png"} {
		resp, body := do(t, s, "GET", path, "")
		if resp.StatusCode != 200 {
			t.Errorf("%s: Status = %d, want 200", path, resp.StatusCode)
			continue
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("%s: Content-Type = %q", path, ct)
		}
		if !bytes.HasPrefix(body, pngMagic) {
			t.Errorf("%s: body is not a PNG", path)
		}
	}
}

func TestSensor(t *testing.T) {
	s, session, mock := newTestServer(t)
	mock.SensorDataFunc = func(ctx context.Context, id rover.SessionID) (rover.SensorReading, error) {
		return rover.SensorReading{
			"obstacle": true,
			"rfid":     map[string]any{"tag_detected": false},
			"lidar":    []any{1.5, 2.5},
		}, nil
	}
	if _, err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	resp, body := do(t, s, "GET", "/api/sensor", "")
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["obstacle"] != true {
		t.Errorf("obstacle = %v, want true", got["obstacle"])
	}
	if _, ok := got["lidar"]; !ok {
		t.Error("unknown sensor fields should pass through")
	}
}

func TestStatusWebSocket(t *testing.T) {
	s, session, _ := newTestServer(t)
	session.OnRefresh(s.Broadcast)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx, ln)

	url := "ws://" + ln.Addr().String() + "/ws/status"
	var conn *websocket.Conn
	for i := 0; i < 20; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The first frame replays the current view.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first dashboard.View
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial view: %v", err)
	}
	if first.SessionID != "mock-session" {
		t.Errorf("initial SessionID = %q, want mock-session", first.SessionID)
	}
	if n := s.ClientCount(); n != 1 {
		t.Errorf("ClientCount = %d, want 1", n)
	}

	if _, err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var v dashboard.View
		if err := conn.ReadJSON(&v); err != nil {
			t.Fatalf("waiting for refreshed view: %v", err)
		}
		if v.Cycle == 1 {
			if v.History.Len() != 1 {
				t.Errorf("history length = %d, want 1", v.History.Len())
			}
			break
		}
	}
}

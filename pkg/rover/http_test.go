package rover

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/teslashibe/go-rover/internal/log"
)

// fakeAPI is a scripted rover server that records requests.
type fakeAPI struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   map[string]string
	statuses map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		bodies:   map[string]string{},
		statuses: map[string]int{},
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	body := f.bodies[r.URL.Path]
	code := f.statuses[r.URL.Path]
	f.mu.Unlock()

	if code == 0 {
		code = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(body))
}

func (f *fakeAPI) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, api *fakeAPI) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL + "/")
}

func TestStartSession(t *testing.T) {
	api := newFakeAPI()
	api.bodies[PathSessionStart] = `{"session_id": "abc-123"}`
	client := newTestClient(t, api)

	id, err := client.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if id != "abc-123" {
		t.Errorf("session: got %q, want abc-123", id)
	}
	req := api.last()
	if req.Method != http.MethodPost {
		t.Errorf("method: got %s, want POST", req.Method)
	}
	if req.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestStartSession_MissingKey(t *testing.T) {
	api := newFakeAPI()
	api.bodies[PathSessionStart] = `{"message": "ok"}`
	client := newTestClient(t, api)

	id, err := client.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if id != "" {
		t.Errorf("session: got %q, want empty", id)
	}
}

func TestStatus(t *testing.T) {
	api := newFakeAPI()
	api.bodies[PathStatus] = `{"coordinates": [12, -40.5], "battery": 73}`
	client := newTestClient(t, api)

	st, err := client.Status(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Position != (Position{X: 12, Y: -40.5}) {
		t.Errorf("position: got %+v", st.Position)
	}
	if st.Battery != 73 {
		t.Errorf("battery: got %v, want 73", st.Battery)
	}

	req := api.last()
	if req.Method != http.MethodGet {
		t.Errorf("method: got %s, want GET", req.Method)
	}
	if got := req.URL.Query().Get("session_id"); got != "s1" {
		t.Errorf("session_id: got %q, want s1", got)
	}
}

func TestStatus_Defaults(t *testing.T) {
	api := newFakeAPI()
	api.bodies[PathStatus] = `{}`
	client := newTestClient(t, api)

	st, err := client.Status(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Position != (Position{}) {
		t.Errorf("position: got %+v, want (0,0)", st.Position)
	}
	if st.Battery != 100 {
		t.Errorf("battery: got %v, want 100", st.Battery)
	}
}

func TestStatus_MissingBatteryOnly(t *testing.T) {
	api := newFakeAPI()
	api.bodies[PathStatus] = `{"coordinates": [3, 4]}`
	client := newTestClient(t, api)

	st, err := client.Status(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Position != (Position{X: 3, Y: 4}) || st.Battery != 100 {
		t.Errorf("got %+v, want (3,4) battery 100", st)
	}
}

func TestStatus_MalformedCoordinates(t *testing.T) {
	api := newFakeAPI()
	api.bodies[PathStatus] = `{"coordinates": [1, 2, 3], "battery": 50}`
	client := newTestClient(t, api)

	_, err := client.Status(context.Background(), "s1")
	if !errors.Is(err, ErrMalformedStatus) {
		t.Errorf("expected ErrMalformedStatus, got %v", err)
	}
}

func TestStatus_ServerError(t *testing.T) {
	api := newFakeAPI()
	api.statuses[PathStatus] = http.StatusBadGateway
	api.bodies[PathStatus] = `upstream down`
	client := newTestClient(t, api)

	_, err := client.Status(context.Background(), "s1")
	apiErr, ok := IsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || !apiErr.IsServerError() {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
	if apiErr.Body != "upstream down" {
		t.Errorf("body: got %q", apiErr.Body)
	}
}

func TestStatus_NotFound(t *testing.T) {
	api := newFakeAPI()
	api.statuses[PathStatus] = http.StatusNotFound
	client := newTestClient(t, api)

	_, err := client.Status(context.Background(), "gone")
	apiErr, ok := IsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.IsNotFound() || apiErr.IsServerError() {
		t.Errorf("unexpected classification: %+v", apiErr)
	}
	if apiErr.Endpoint != PathStatus {
		t.Errorf("endpoint: got %q", apiErr.Endpoint)
	}
}

func TestStatus_BadJSON(t *testing.T) {
	api := newFakeAPI()
	api.bodies[PathStatus] = `<html>`
	client := newTestClient(t, api)

	if _, err := client.Status(context.Background(), "s1"); err == nil {
		t.Error("expected decode error")
	}
}

func TestSensorData_PassThrough(t *testing.T) {
	api := newFakeAPI()
	api.bodies[PathSensorData] = `{"obstacle": true, "rfid": {"tag_detected": true, "tag_id": "T-9"}, "temperature": 21.5}`
	client := newTestClient(t, api)

	reading, err := client.SensorData(context.Background(), "s1")
	if err != nil {
		t.Fatalf("SensorData: %v", err)
	}
	if !reading.Obstacle() || !reading.TagDetected() {
		t.Errorf("flags: obstacle=%v tag=%v", reading.Obstacle(), reading.TagDetected())
	}
	if reading["temperature"] != 21.5 {
		t.Errorf("temperature: got %v", reading["temperature"])
	}
	rfid := reading["rfid"].(map[string]any)
	if rfid["tag_id"] != "T-9" {
		t.Errorf("rfid passthrough lost: %v", rfid)
	}
}

func TestMove(t *testing.T) {
	api := newFakeAPI()
	api.bodies[PathMove] = `{"status": "moving"}`
	client := newTestClient(t, api)

	if err := client.Move(context.Background(), "s1", Left); err != nil {
		t.Fatalf("Move: %v", err)
	}
	req := api.last()
	if req.Method != http.MethodPost || req.URL.Path != PathMove {
		t.Errorf("got %s %s", req.Method, req.URL.Path)
	}
	q := req.URL.Query()
	if q.Get("session_id") != "s1" || q.Get("direction") != "left" {
		t.Errorf("query: %v", q)
	}
}

func TestMove_InvalidDirectionSendsNothing(t *testing.T) {
	api := newFakeAPI()
	client := newTestClient(t, api)

	err := client.Move(context.Background(), "s1", Direction("up"))
	if !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}
	if len(api.requests) != 0 {
		t.Errorf("expected no requests, got %d", len(api.requests))
	}
}

func TestStopAndCharge(t *testing.T) {
	api := newFakeAPI()
	api.bodies[PathStop] = `not json at all`
	client := newTestClient(t, api)

	if err := client.Stop(context.Background(), "s1"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := api.last().URL.Path; got != PathStop {
		t.Errorf("path: got %s", got)
	}
	if err := client.Charge(context.Background(), "s1"); err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if got := api.last().URL.Path; got != PathCharge {
		t.Errorf("path: got %s", got)
	}
}

func TestContextCancelled(t *testing.T) {
	api := newFakeAPI()
	client := newTestClient(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.Stop(ctx, "s1"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCommands_IgnoreRejectedReplies(t *testing.T) {
	api := newFakeAPI()
	api.statuses[PathMove] = http.StatusBadRequest
	api.statuses[PathStop] = http.StatusInternalServerError
	api.statuses[PathCharge] = http.StatusServiceUnavailable
	api.bodies[PathStop] = `{"error": "rover busy"}`
	client := newTestClient(t, api)

	if err := client.Move(context.Background(), "s1", Forward); err != nil {
		t.Errorf("Move: %v", err)
	}
	if err := client.Stop(context.Background(), "s1"); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := client.Charge(context.Background(), "s1"); err != nil {
		t.Errorf("Charge: %v", err)
	}
	if len(api.requests) != 3 {
		t.Errorf("requests: got %d, want 3", len(api.requests))
	}
}

func TestWithLogger_TracesRequests(t *testing.T) {
	t.Setenv("GO_ENV", "")
	api := newFakeAPI()
	api.statuses[PathStop] = http.StatusInternalServerError
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	client := NewHTTPClient(server.URL, WithLogger(log.New("debug", &buf)))

	if err := client.Stop(context.Background(), "s1"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"rover api call", "path=" + PathStop, "request_id=", "rover command rejected", "status=500"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if got := api.last().Header.Get("X-Request-ID"); got == "" || !strings.Contains(out, got) {
		t.Errorf("request id %q not logged", got)
	}
}

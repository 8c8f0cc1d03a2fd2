// Package dashboard owns the state of one rover control session.
//
// A Session is the explicit context object shared by every front end: it
// holds the server-issued session id, the telemetry history, the auto/manual
// mode flag and the latest sensor reading. Refresh performs one complete
// poll-and-act cycle; Loop drives refreshes on a timer or on demand.
//
// All remote work on a Session is serialized, so only one refresh or
// control command talks to the rover at a time.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/autopilot"
	"github.com/teslashibe/go-rover/pkg/history"
	"github.com/teslashibe/go-rover/pkg/rover"
)

// Session is one dashboard session against the rover simulation.
type Session struct {
	client  rover.Client
	pilot   *autopilot.Pilot
	history *history.Store
	now     func() time.Time
	logger  *slog.Logger

	// opMu serializes every call that reaches the rover.
	opMu sync.Mutex

	mu        sync.RWMutex
	id        rover.SessionID
	started   bool
	auto      bool
	cycle     uint64
	view      View
	onRefresh func(View)
}

// Option configures a Session.
type Option func(*Session)

// WithPilot replaces the default auto-pilot.
func WithPilot(p *autopilot.Pilot) Option {
	return func(s *Session) { s.pilot = p }
}

// WithClock overrides time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithAutoMode sets the initial mode. Sessions start in auto mode.
func WithAutoMode(on bool) Option {
	return func(s *Session) { s.auto = on }
}

// New creates a Session. Call Start before the first Refresh.
func New(client rover.Client, opts ...Option) *Session {
	s := &Session{
		client:  client,
		history: history.New(),
		now:     time.Now,
		auto:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pilot == nil {
		s.pilot = autopilot.New(client)
	}
	if s.logger == nil {
		s.logger = log.With("component", "dashboard")
	}
	s.view = s.emptyView()
	return s
}

// OnRefresh registers a callback invoked with every published View.
// The callback runs on the goroutine that produced the View.
func (s *Session) OnRefresh(fn func(View)) {
	s.mu.Lock()
	s.onRefresh = fn
	s.mu.Unlock()
}

// Start obtains a session id from the rover service.
// A response without an id is logged and the session proceeds with an
// empty id, which the server will then reject or ignore.
func (s *Session) Start(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.start(ctx)
}

func (s *Session) start(ctx context.Context) error {
	id, err := s.client.StartSession(ctx)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if id == "" {
		s.logger.Warn("rover service did not issue a session id")
	}

	s.mu.Lock()
	s.id = id
	s.started = true
	s.cycle = 0
	s.view = s.emptyView()
	s.mu.Unlock()

	s.logger.Info("rover session started", "session_id", id)
	return nil
}

// Restart opens a fresh rover session and discards the history.
func (s *Session) Restart(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.start(ctx); err != nil {
		return err
	}
	s.history.Reset()
	s.publish(s.View())
	return nil
}

// SessionID returns the current server-issued id.
func (s *Session) SessionID() rover.SessionID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// AutoMode reports whether the auto-pilot is active.
func (s *Session) AutoMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auto
}

// SetAutoMode switches between auto and manual. History is untouched.
func (s *Session) SetAutoMode(on bool) {
	s.mu.Lock()
	changed := s.auto != on
	s.auto = on
	s.view.AutoMode = on
	s.mu.Unlock()

	if changed {
		s.logger.Info("mode changed", "auto", on)
		s.publish(s.View())
	}
}

// View returns the latest published View.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// History returns a snapshot of the accumulated telemetry.
func (s *Session) History() history.Snapshot {
	return s.history.Snapshot()
}

// Refresh runs one cycle: read status and sensors, append to the history,
// record obstacle and tag sightings, then let the auto-pilot act when auto
// mode is on. A failure aborts the rest of the cycle and is reported in
// the published View; the next Refresh starts clean.
func (s *Session) Refresh(ctx context.Context) (View, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return View{}, ErrNotStarted
	}
	s.cycle++
	cycle := s.cycle
	id := s.id
	auto := s.auto
	prev := s.view
	s.mu.Unlock()

	cycleID := uuid.NewString()
	logger := s.logger.With("cycle", cycle, "cycle_id", cycleID)

	view, fresh, err := s.refresh(ctx, id, auto)
	if err != nil {
		logger.Error("refresh failed", "error", err)
		if !fresh {
			// Nothing was read this cycle; keep showing the last good frame.
			view = prev
			view.AutoMode = auto
			view.UpdatedAt = s.now()
		}
		view.Cycle = cycle
		view.CycleID = cycleID
		view.LastError = err.Error()
		s.store(view)
		return view, err
	}

	view.Cycle = cycle
	view.CycleID = cycleID
	logger.Debug("refresh complete",
		"x", view.Position.X,
		"y", view.Position.Y,
		"battery", view.Battery,
		"points", view.History.Len())
	s.store(view)
	return view, nil
}

// refresh reports fresh when status and sensor data were read and
// appended, even if the auto-pilot then failed.
func (s *Session) refresh(ctx context.Context, id rover.SessionID, auto bool) (View, bool, error) {
	status, err := s.client.Status(ctx, id)
	if err != nil {
		return View{}, false, fmt.Errorf("fetch status: %w", err)
	}
	reading, err := s.client.SensorData(ctx, id)
	if err != nil {
		return View{}, false, fmt.Errorf("fetch sensor data: %w", err)
	}

	now := s.now()
	pos := status.Position
	s.history.Append(pos, status.Battery, now)
	if reading.Obstacle() {
		s.history.RecordObstacle(pos)
	}
	if reading.TagDetected() {
		s.history.RecordTag(pos)
	}

	view := View{
		SessionID: id,
		AutoMode:  auto,
		Position:  pos,
		Battery:   status.Battery,
		Sensor:    reading,
		History:   s.history.Snapshot(),
		UpdatedAt: now,
	}
	s.mu.RLock()
	view.LastCommand = s.view.LastCommand
	s.mu.RUnlock()

	if auto {
		action, err := s.pilot.Step(ctx, id, status.Battery)
		view.LastAction = &action
		if err != nil {
			return view, true, err
		}
	}
	return view, true, nil
}

// Move issues a manual move. It is rejected while auto mode is on.
func (s *Session) Move(ctx context.Context, dir rover.Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: %q", rover.ErrInvalidDirection, dir)
	}
	return s.command(ctx, "move "+string(dir), func(id rover.SessionID) error {
		return s.client.Move(ctx, id, dir)
	})
}

// Stop issues a manual stop. It is rejected while auto mode is on.
func (s *Session) Stop(ctx context.Context) error {
	return s.command(ctx, "stop", func(id rover.SessionID) error {
		return s.client.Stop(ctx, id)
	})
}

func (s *Session) command(ctx context.Context, name string, call func(rover.SessionID) error) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	started, auto, id := s.started, s.auto, s.id
	s.mu.RUnlock()

	if !started {
		return ErrNotStarted
	}
	if auto {
		return ErrAutoMode
	}
	if err := call(id); err != nil {
		s.logger.Warn("manual command failed", "command", name, "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}

	s.mu.Lock()
	s.view.LastCommand = name
	s.mu.Unlock()
	s.logger.Info("manual command", "command", name)
	return nil
}

func (s *Session) store(v View) {
	s.mu.Lock()
	// The mode may have been toggled while the cycle was in flight.
	v.AutoMode = s.auto
	s.view = v
	s.mu.Unlock()
	s.publish(v)
}

func (s *Session) publish(v View) {
	s.mu.RLock()
	fn := s.onRefresh
	s.mu.RUnlock()
	if fn != nil {
		fn(v)
	}
}

// emptyView must be called with mu held or before the Session is shared.
func (s *Session) emptyView() View {
	return View{
		SessionID: s.id,
		AutoMode:  s.auto,
		Sensor:    rover.SensorReading{},
		History:   history.New().Snapshot(),
	}
}

// Package history accumulates rover telemetry for one dashboard session.
//
// Four parallel sequences (x, y, battery, time) gain exactly one entry per
// refresh. Obstacle and tag positions are sparse and only recorded when the
// corresponding sensor flag is set. Nothing is deduplicated or trimmed.
package history

import (
	"sync"
	"time"

	"github.com/teslashibe/go-rover/pkg/rover"
)

// Store is the session-scoped, append-only telemetry history.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	x         []float64
	y         []float64
	battery   []float64
	time      []time.Time
	obstacles []rover.Position
	tags      []rover.Position
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Append pushes one entry to each of the parallel sequences.
func (s *Store) Append(pos rover.Position, battery float64, t time.Time) {
	s.mu.Lock()
	s.x = append(s.x, pos.X)
	s.y = append(s.y, pos.Y)
	s.battery = append(s.battery, battery)
	s.time = append(s.time, t)
	s.mu.Unlock()
}

// RecordObstacle stores the position where an obstacle was reported.
func (s *Store) RecordObstacle(pos rover.Position) {
	s.mu.Lock()
	s.obstacles = append(s.obstacles, pos)
	s.mu.Unlock()
}

// RecordTag stores the position where an RFID tag was detected.
func (s *Store) RecordTag(pos rover.Position) {
	s.mu.Lock()
	s.tags = append(s.tags, pos)
	s.mu.Unlock()
}

// Len returns the number of refreshes recorded.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.x)
}

// Reset discards everything. Used when the rover session is restarted.
func (s *Store) Reset() {
	s.mu.Lock()
	s.x, s.y, s.battery, s.time = nil, nil, nil, nil
	s.obstacles, s.tags = nil, nil
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current history.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		X:         clone(s.x),
		Y:         clone(s.y),
		Battery:   clone(s.battery),
		Time:      clone(s.time),
		Obstacles: clone(s.obstacles),
		Tags:      clone(s.tags),
	}
}

// Snapshot is an immutable copy of a Store.
type Snapshot struct {
	X         []float64        `json:"x"`
	Y         []float64        `json:"y"`
	Battery   []float64        `json:"battery"`
	Time      []time.Time      `json:"time"`
	Obstacles []rover.Position `json:"obstacles"`
	Tags      []rover.Position `json:"tags"`
}

// Len returns the number of refreshes in the snapshot.
func (s Snapshot) Len() int {
	return len(s.X)
}

// Path returns the recorded positions in order.
func (s Snapshot) Path() []rover.Position {
	out := make([]rover.Position, len(s.X))
	for i := range s.X {
		out[i] = rover.Position{X: s.X[i], Y: s.Y[i]}
	}
	return out
}

// Last returns the most recent position and battery, if any.
func (s Snapshot) Last() (rover.Position, float64, bool) {
	n := len(s.X)
	if n == 0 {
		return rover.Position{}, 0, false
	}
	return rover.Position{X: s.X[n-1], Y: s.Y[n-1]}, s.Battery[n-1], true
}

// clone copies a slice, always returning a non-nil result so JSON
// renders [] rather than null.
func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

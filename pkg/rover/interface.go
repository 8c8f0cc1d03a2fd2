// Package rover provides a client for the remote rover simulation API.
//
// The API is a handful of stateless HTTP endpoints scoped by a session id
// issued by the server. Consumers should depend only on the small
// interfaces they actually use; Client composes all of them.
package rover

import "context"

// SessionStarter obtains a new session from the simulation.
type SessionStarter interface {
	StartSession(ctx context.Context) (SessionID, error)
}

// StatusReader reads the rover position and battery.
type StatusReader interface {
	Status(ctx context.Context, session SessionID) (Status, error)
}

// SensorReader reads the raw sensor payload.
type SensorReader interface {
	SensorData(ctx context.Context, session SessionID) (SensorReading, error)
}

// Mover issues a single directional move.
type Mover interface {
	Move(ctx context.Context, session SessionID, dir Direction) error
}

// Stopper halts the rover.
type Stopper interface {
	Stop(ctx context.Context, session SessionID) error
}

// Charger starts charging the rover.
type Charger interface {
	Charge(ctx context.Context, session SessionID) error
}

// Driver is everything the auto-pilot needs.
type Driver interface {
	Mover
	Stopper
	Charger
}

// Client is the composite interface for the full rover API.
type Client interface {
	SessionStarter
	StatusReader
	SensorReader
	Driver
}

// Ensure both implementations satisfy Client
var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*Mock)(nil)
)

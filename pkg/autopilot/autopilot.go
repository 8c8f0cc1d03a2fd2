// Package autopilot drives the rover while the dashboard is in auto mode.
//
// Each refresh gets one decision: below the low-battery threshold the rover
// is stopped and put on charge, otherwise it makes a random move. There is
// no path planning and no memory between refreshes.
package autopilot

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/teslashibe/go-rover/pkg/rover"
)

// DefaultLowBattery is the battery percentage below which the rover charges.
const DefaultLowBattery = 10.0

// Chooser picks an index in [0, n). *rand.Rand satisfies it.
type Chooser interface {
	Intn(n int) int
}

// Kind classifies what the pilot did on a refresh.
type Kind string

const (
	KindIdle   Kind = "idle"
	KindMove   Kind = "move"
	KindCharge Kind = "charge"
)

// Action describes the decision taken on one refresh.
type Action struct {
	Kind      Kind            `json:"kind"`
	Direction rover.Direction `json:"direction,omitempty"`
}

// String implements fmt.Stringer.
func (a Action) String() string {
	if a.Kind == KindMove {
		return fmt.Sprintf("move %s", a.Direction)
	}
	return string(a.Kind)
}

// Pilot issues auto-mode commands through a rover.Driver.
type Pilot struct {
	driver     rover.Driver
	rng        Chooser
	lowBattery float64
}

// Option configures a Pilot.
type Option func(*Pilot)

// WithChooser injects the random source.
func WithChooser(c Chooser) Option {
	return func(p *Pilot) { p.rng = c }
}

// WithSeed seeds a private random source.
func WithSeed(seed int64) Option {
	return func(p *Pilot) { p.rng = rand.New(rand.NewSource(seed)) }
}

// WithLowBattery overrides the charge threshold.
func WithLowBattery(threshold float64) Option {
	return func(p *Pilot) { p.lowBattery = threshold }
}

// New creates a Pilot. Without options it uses a time-seeded source and
// the default threshold.
func New(driver rover.Driver, opts ...Option) *Pilot {
	p := &Pilot{
		driver:     driver,
		lowBattery: DefaultLowBattery,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p
}

// LowBattery returns the charge threshold.
func (p *Pilot) LowBattery() float64 {
	return p.lowBattery
}

// Step makes one decision for the given battery level.
// Low battery issues Stop then Charge and no move.
func (p *Pilot) Step(ctx context.Context, session rover.SessionID, battery float64) (Action, error) {
	if battery < p.lowBattery {
		if err := p.driver.Stop(ctx, session); err != nil {
			return Action{Kind: KindCharge}, fmt.Errorf("autopilot stop: %w", err)
		}
		if err := p.driver.Charge(ctx, session); err != nil {
			return Action{Kind: KindCharge}, fmt.Errorf("autopilot charge: %w", err)
		}
		return Action{Kind: KindCharge}, nil
	}

	dir := rover.Directions[p.rng.Intn(len(rover.Directions))]
	if err := p.driver.Move(ctx, session, dir); err != nil {
		return Action{Kind: KindMove, Direction: dir}, fmt.Errorf("autopilot move %s: %w", dir, err)
	}
	return Action{Kind: KindMove, Direction: dir}, nil
}

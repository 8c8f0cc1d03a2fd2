package dashboard

import (
	"time"

	"github.com/teslashibe/go-rover/pkg/autopilot"
	"github.com/teslashibe/go-rover/pkg/history"
	"github.com/teslashibe/go-rover/pkg/rover"
)

// View is the immutable state published after every refresh.
// It carries everything a front end needs to draw one frame.
type View struct {
	SessionID   rover.SessionID     `json:"session_id"`
	AutoMode    bool                `json:"auto_mode"`
	Cycle       uint64              `json:"cycle"`
	CycleID     string              `json:"cycle_id,omitempty"`
	Position    rover.Position      `json:"position"`
	Battery     float64             `json:"battery"`
	Sensor      rover.SensorReading `json:"sensor"`
	History     history.Snapshot    `json:"history"`
	LastAction  *autopilot.Action   `json:"last_action,omitempty"`
	LastCommand string              `json:"last_command,omitempty"`
	LastError   string              `json:"last_error,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// HasData reports whether at least one refresh succeeded.
func (v View) HasData() bool {
	return v.History.Len() > 0
}

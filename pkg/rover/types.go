package rover

import (
	"fmt"
	"strings"
)

// SessionID identifies one rover's simulated state on the server.
// The empty value means the server did not issue one.
type SessionID string

// Direction is a movement command understood by the move endpoint.
type Direction string

// Supported directions.
const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
	Left     Direction = "left"
	Right    Direction = "right"
)

// Directions lists every valid direction in a fixed order.
var Directions = [...]Direction{Forward, Backward, Left, Right}

// Valid reports whether d is one of the four supported directions.
func (d Direction) Valid() bool {
	for _, v := range Directions {
		if d == v {
			return true
		}
	}
	return false
}

// ParseDirection converts user input into a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}

// Position is a point in the simulation plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultBattery is reported when the status response omits the battery.
const DefaultBattery = 100.0

// Status is the decoded status endpoint response.
type Status struct {
	Position Position `json:"position"`
	Battery  float64  `json:"battery"`
}

// SensorReading is the sensor payload exactly as the server sent it.
// Only the obstacle flag and rfid.tag_detected are interpreted.
type SensorReading map[string]any

// Obstacle reports whether the reading flags an obstacle.
func (r SensorReading) Obstacle() bool {
	return truthy(r["obstacle"])
}

// TagDetected reports whether the RFID reader saw a tag.
func (r SensorReading) TagDetected() bool {
	rfid, ok := r["rfid"].(map[string]any)
	if !ok {
		return false
	}
	return truthy(rfid["tag_detected"])
}

// truthy follows JSON-ish truthiness: false, 0, "", null and empty
// containers are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

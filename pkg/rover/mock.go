package rover

import (
	"context"
	"sync"
)

// Mock implements Client for testing.
// Each Func field may be replaced; calls are recorded in order.
type Mock struct {
	StartSessionFunc func(ctx context.Context) (SessionID, error)
	StatusFunc       func(ctx context.Context, session SessionID) (Status, error)
	SensorDataFunc   func(ctx context.Context, session SessionID) (SensorReading, error)
	MoveFunc         func(ctx context.Context, session SessionID, dir Direction) error
	StopFunc         func(ctx context.Context, session SessionID) error
	ChargeFunc       func(ctx context.Context, session SessionID) error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method    string
	Session   SessionID
	Direction Direction // set for Move only
}

// NewMock creates a mock rover parked at the origin with a full battery
// and quiet sensors.
func NewMock() *Mock {
	return &Mock{
		StartSessionFunc: func(ctx context.Context) (SessionID, error) {
			return "mock-session", nil
		},
		StatusFunc: func(ctx context.Context, session SessionID) (Status, error) {
			return Status{Battery: DefaultBattery}, nil
		},
		SensorDataFunc: func(ctx context.Context, session SessionID) (SensorReading, error) {
			return SensorReading{"obstacle": false}, nil
		},
	}
}

// StartSession calls StartSessionFunc and records the call.
func (m *Mock) StartSession(ctx context.Context) (SessionID, error) {
	m.record(MockCall{Method: "StartSession"})
	if m.StartSessionFunc != nil {
		return m.StartSessionFunc(ctx)
	}
	return "", nil
}

// Status calls StatusFunc and records the call.
func (m *Mock) Status(ctx context.Context, session SessionID) (Status, error) {
	m.record(MockCall{Method: "Status", Session: session})
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, session)
	}
	return Status{Battery: DefaultBattery}, nil
}

// SensorData calls SensorDataFunc and records the call.
func (m *Mock) SensorData(ctx context.Context, session SessionID) (SensorReading, error) {
	m.record(MockCall{Method: "SensorData", Session: session})
	if m.SensorDataFunc != nil {
		return m.SensorDataFunc(ctx, session)
	}
	return SensorReading{}, nil
}

// Move calls MoveFunc and records the call.
func (m *Mock) Move(ctx context.Context, session SessionID, dir Direction) error {
	m.record(MockCall{Method: "Move", Session: session, Direction: dir})
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, session, dir)
	}
	return nil
}

// Stop calls StopFunc and records the call.
func (m *Mock) Stop(ctx context.Context, session SessionID) error {
	m.record(MockCall{Method: "Stop", Session: session})
	if m.StopFunc != nil {
		return m.StopFunc(ctx, session)
	}
	return nil
}

// Charge calls ChargeFunc and records the call.
func (m *Mock) Charge(ctx context.Context, session SessionID) error {
	m.record(MockCall{Method: "Charge", Session: session})
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, session)
	}
	return nil
}

func (m *Mock) record(c MockCall) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

// Calls returns a copy of all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Methods returns the recorded method names in call order.
func (m *Mock) Methods() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// Moves returns the directions of every recorded Move call.
func (m *Mock) Moves() []Direction {
	var out []Direction
	for _, c := range m.Calls() {
		if c.Method == "Move" {
			out = append(out, c.Direction)
		}
	}
	return out
}

// Reset clears the recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

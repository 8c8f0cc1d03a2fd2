package dashboard

import "errors"

var (
	// ErrNotStarted is returned when a refresh or command runs before Start.
	ErrNotStarted = errors.New("dashboard: session not started")

	// ErrAutoMode is returned for manual commands while the auto-pilot drives.
	ErrAutoMode = errors.New("dashboard: manual control disabled in auto mode")
)

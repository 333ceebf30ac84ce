package storage

import (
	"time"
)

// SessionMeta describes the run a session records.
type SessionMeta struct {
	Name          string  `json:"name"`          // Scenario name
	Scenario      string  `json:"scenario"`      // Scenario file the run replayed
	DT            float64 `json:"dt"`            // Control tick interval in seconds
	MaxMotorForce float64 `json:"maxMotorForce"` // Upper bound of every recorded motor force in N
}

// Session represents a single recorded controller run.
type Session struct {
	SessionMeta

	ID        int64     `json:"ID"`                      // Unique identifier for the session
	StartTime time.Time `json:"startTime"`               // When the run began
	Config    *string   `json:"config,string,omitempty"` // Controller configuration in JSON format
}

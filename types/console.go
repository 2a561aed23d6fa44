package types

import "time"

// ------------------------
// Operator console (topic "config/console", "console/state")
// ------------------------

// ConsoleConfig selects the changer capability the console drives.
type ConsoleConfig struct {
	Prompt       string `json:"prompt"`
	CapabilityID int    `json:"capability_id"`
	TimeoutMS    int    `json:"timeout_ms,omitempty"` // per request; 0 means 2000
}

type ConsoleState struct {
	Level    string    `json:"level"`  // "idle", "up", "degraded", "error", "stopped"
	Status   string    `json:"status"` // short machine-readable code
	Commands int       `json:"commands"`
	Failures int       `json:"failures"`
	TS       time.Time `json:"ts"`
	Error    string    `json:"error,omitempty"`
}

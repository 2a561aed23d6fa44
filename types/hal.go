package types

import "time"

// ------------------------
// HAL configuration (topic "config/hal")
// ------------------------

type HALConfig struct {
	Devices []HALDevice `json:"devices"`
}

type HALDevice struct {
	ID     string `json:"id"`               // logical device id
	Type   string `json:"type"`             // builder key, e.g. "sdchanger"
	Params any    `json:"params,omitempty"` // device-specific params (JSON-like)
	BusRef BusRef `json:"bus_ref"`
}

// BusRef names a bus configured by the platform layer.
type BusRef struct {
	Type string `json:"type"` // "i2c"
	ID   string `json:"id"`   // "i2c0"
}

// ------------------------
// Retained state
// ------------------------

type HALState struct {
	Level  string    `json:"level"`  // "idle", "ready", "error", "stopped"
	Status string    `json:"status"` // short machine-readable code
	TS     time.Time `json:"ts"`
	Error  string    `json:"error,omitempty"`
}

// Link is the link state reported for a capability.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

type CapabilityState struct {
	Link  Link      `json:"link"`
	TS    time.Time `json:"ts"`
	Error string    `json:"error,omitempty"` // errcode string
}

// ------------------------
// Generic control
// ------------------------

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type ReadNowAck struct {
	OK bool `json:"ok"`
}

// SetRate changes a producer's sampling period.
type SetRate struct {
	Period time.Duration `json:"period"`
}

type SetRateAck struct {
	OK     bool          `json:"ok"`
	Period time.Duration `json:"period"`
}

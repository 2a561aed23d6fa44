package types

import "time"

// ------------------------
// SD changer (kind "sdchanger")
// ------------------------

// PortInfo describes one storage-bus host port. Pin numbers are board GPIO
// numbers; -1 means not connected.
type PortInfo struct {
	Port         string `json:"port"` // "A" or "B"
	Clock        int    `json:"clk"`
	Command      int    `json:"cmd"`
	Data         []int  `json:"data"`
	Width        uint8  `json:"width"`
	CardDetect   int    `json:"cd"`
	WriteProtect int    `json:"wp"`
}

// SDChangerInfo is the retained info document.
type SDChangerInfo struct {
	Driver          string     `json:"driver"`
	Bus             string     `json:"bus"`
	Slots           int        `json:"slots"`
	Expanders       []uint16   `json:"expanders"` // group A, group B
	Ports           []PortInfo `json:"ports"`
	ExclusiveSelect bool       `json:"exclusive_select"`
}

// SlotSelect requests that a slot be routed to its port (verb "select").
type SlotSelect struct {
	Slot int `json:"slot"`
}

// SlotPower switches a slot's supply (verb "power").
type SlotPower struct {
	Slot int  `json:"slot"`
	On   bool `json:"on"`
}

type SlotSelectReply struct {
	OK   bool     `json:"ok"`
	Slot int      `json:"slot"`
	Port PortInfo `json:"port"`
}

// DetectReply answers verb "detect". Bit i of Mask is slot i.
type DetectReply struct {
	OK    bool  `json:"ok"`
	Mask  uint8 `json:"mask"`
	Count int   `json:"count"`
	Slots []int `json:"slots"`
}

// ChangerStatus is published as the capability value and answers verb
// "status". Selected is -1 when no slot has been selected.
type ChangerStatus struct {
	Detected      uint8     `json:"detected"`
	DetectedCount int       `json:"detected_count"`
	Powered       uint8     `json:"powered"`
	PoweredCount  int       `json:"powered_count"`
	Selected      int       `json:"selected"`
	ActiveSelects uint8     `json:"active_selects"`
	TS            time.Time `json:"ts"`
}

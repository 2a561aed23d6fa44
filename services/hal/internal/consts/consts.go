package consts

// Top-level topics
const (
	TokConfig     = "config"
	TokHAL        = "hal"
	TokCapability = "capability"
	TokInfo       = "info"
	TokState      = "state"
	TokValue      = "value"
	TokControl    = "control"
)

// Control verbs handled by the service for every producer.
const (
	CtrlReadNow = "read_now"
	CtrlSetRate = "set_rate"
)

// SD changer verbs, passed through to the adaptor.
const (
	CtrlSelect = "select"
	CtrlPower  = "power"
	CtrlDetect = "detect"
	CtrlStatus = "status"
	CtrlReset  = "reset"
)

// Capability kinds
const (
	KindSDChanger = "sdchanger"
)

// Bus types accepted in BusRef.Type.
const (
	BusI2C = "i2c"
)

package sdchanger

// Pin is a host GPIO number. NoPin marks a signal that is not wired.
type Pin int8

const NoPin Pin = -1

// PortConfig is the pin assignment of one storage-bus port. Card-detect and
// write-protect are never wired to the host; the expander synthesises them.
type PortConfig struct {
	Clock        Pin
	Command      Pin
	Data         [4]Pin
	Width        uint8
	CardDetect   Pin
	WriteProtect Pin
}

// I2CConfig is the expander bus wiring on the host.
type I2CConfig struct {
	SCL       Pin
	SDA       Pin
	Frequency uint32
}

// Expander I2C addressing: A2..A0 straps on top of the MCP23017 base.
const (
	AddressBase = 0x20
	AddressA    = AddressBase + 6 // A2=1 A1=1 A0=0
	AddressB    = AddressBase + 4 // A2=1 A1=0 A0=0
)

// Config holds the fixed board wiring plus behaviour switches.
type Config struct {
	Ports     [GroupCount]PortConfig
	Addresses [GroupCount]uint8
	I2C       I2CConfig

	// ExclusiveSelect also releases the other group's select lines on every
	// select, so at most one slot in the whole changer is connected.
	ExclusiveSelect bool
}

// DefaultConfig returns the reference board wiring.
func DefaultConfig() Config {
	return Config{
		Ports: [GroupCount]PortConfig{
			GroupA: {
				Clock:        6,
				Command:      7,
				Data:         [4]Pin{5, 4, 16, 15},
				Width:        4,
				CardDetect:   NoPin,
				WriteProtect: NoPin,
			},
			GroupB: {
				Clock:        42,
				Command:      41,
				Data:         [4]Pin{2, 1, 39, 40},
				Width:        4,
				CardDetect:   NoPin,
				WriteProtect: NoPin,
			},
		},
		Addresses: [GroupCount]uint8{GroupA: AddressA, GroupB: AddressB},
		I2C: I2CConfig{
			SCL:       12,
			SDA:       13,
			Frequency: 100_000,
		},
	}
}

// Port returns the bus port configuration serving slot.
func (c *Changer) Port(slot Slot) (PortConfig, error) {
	if !slot.Valid() {
		return PortConfig{}, invalidSlot("port", slot)
	}
	return c.cfg.Ports[slot.Group()], nil
}

// Expander returns the expander governing slot. It is resolved on every call
// from the slot alone; nothing is cached between operations.
func (c *Changer) Expander(slot Slot) (Expander, error) {
	if !slot.Valid() {
		return nil, invalidSlot("expander", slot)
	}
	return c.exp[slot.Group()], nil
}

package sdchanger

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp23017"
)

// GPIO registers with IOCON.BANK=0 (power-on default): port A, port B follows.
const (
	regGPIOA = 0x12
	regGPIOB = 0x13
)

// MCP adapts an MCP23017 to the Expander interface. Pin modes go through
// the mcp23017 driver; bank reads and writes are single-register transfers
// so an input bank is never rewritten from a cached value.
type MCP struct {
	bus  drivers.I2C
	addr uint8
	dev  *mcp23017.Device

	// Fixed buffers to avoid per-call heap allocations.
	w [2]byte
	r [1]byte
}

// NewMCP checks the expander responds at addr and returns an adapter for it.
func NewMCP(bus drivers.I2C, addr uint8) (*MCP, error) {
	dev, err := mcp23017.NewI2C(bus, addr)
	if err != nil {
		return nil, err
	}
	return &MCP{bus: bus, addr: addr, dev: dev}, nil
}

// Address returns the 7-bit I2C address.
func (m *MCP) Address() uint8 { return m.addr }

func bankBase(b Bank) int {
	if b == BankB {
		return 8
	}
	return 0
}

func bankReg(b Bank) byte {
	if b == BankB {
		return regGPIOB
	}
	return regGPIOA
}

func (m *MCP) SetDirection(b Bank, inputs uint8) error {
	return m.updateModes(b, func(mode mcp23017.PinMode, bit bool) mcp23017.PinMode {
		mode &^= mcp23017.Direction
		if !bit {
			mode |= mcp23017.Output
		}
		return mode
	}, inputs)
}

func (m *MCP) SetPullup(b Bank, mask uint8) error {
	return m.updateModes(b, func(mode mcp23017.PinMode, bit bool) mcp23017.PinMode {
		if bit {
			return mode | mcp23017.Pullup
		}
		return mode &^ mcp23017.Pullup
	}, mask)
}

func (m *MCP) updateModes(b Bank, apply func(mcp23017.PinMode, bool) mcp23017.PinMode, mask uint8) error {
	var modes [mcp23017.PinCount]mcp23017.PinMode
	if err := m.dev.GetModes(modes[:]); err != nil {
		return err
	}
	base := bankBase(b)
	for i := 0; i < 8; i++ {
		modes[base+i] = apply(modes[base+i], mask&(1<<i) != 0)
	}
	return m.dev.SetModes(modes[:])
}

func (m *MCP) ReadBank(b Bank) (uint8, error) {
	m.w[0] = bankReg(b)
	if err := m.bus.Tx(uint16(m.addr), m.w[:1], m.r[:1]); err != nil {
		return 0, err
	}
	return m.r[0], nil
}

func (m *MCP) WriteBank(b Bank, v uint8) error {
	m.w[0] = bankReg(b)
	m.w[1] = v
	return m.bus.Tx(uint16(m.addr), m.w[:2], nil)
}

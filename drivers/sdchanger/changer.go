// Package sdchanger drives an eight-slot removable media changer built from
// two storage-bus host ports and two MCP23017 GPIO expanders.
//
// Slots 0..3 share port A and expander A, slots 4..7 share port B and
// expander B. Each expander reads card-detect switches on bank A and drives
// per-slot select and power lines on bank B:
//
//	ch, err := sdchanger.New(i2c, sdchanger.DefaultConfig())
//	port, err := ch.Select(5) // hand port to the storage-bus host driver
//
// A Changer is not safe for concurrent use. Callers that share one across
// goroutines must serialise access; the read-modify-write of an output bank
// is otherwise subject to lost updates.
package sdchanger

import (
	"errors"
	"strconv"

	"sdchanger-go/errcode"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp23017"
)

var (
	ErrInvalidSlot = errors.New("sdchanger: slot out of range")
	ErrNotDetected = errors.New("sdchanger: no card detected")
	ErrNoExpander  = errors.New("sdchanger: missing expander")
)

func invalidSlot(op string, s Slot) error {
	return &errcode.E{C: errcode.InvalidParams, Op: op, Msg: "slot " + strconv.Itoa(int(s)), Err: ErrInvalidSlot}
}

func notDetected(op string, s Slot) error {
	return &errcode.E{C: errcode.NotFound, Op: op, Msg: "slot " + strconv.Itoa(int(s)), Err: ErrNotDetected}
}

func ioErr(op string, err error) error { return errcode.Wrap(errcode.IOError, op, err) }

// Changer holds the selection and power registry for one changer board.
type Changer struct {
	cfg Config
	exp [GroupCount]Expander

	selected    Slot
	hasSelected bool
	powered     Mask
}

// New creates both expanders on bus at the configured addresses and drives
// the board into its idle state.
func New(bus drivers.I2C, cfg Config) (*Changer, error) {
	if bus == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "create", Msg: "nil i2c bus"}
	}
	var exps [GroupCount]Expander
	for g := range exps {
		m, err := NewMCP(bus, cfg.Addresses[g])
		if errors.Is(err, mcp23017.ErrInvalidHWAddress) {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "create", Msg: "expander " + Group(g).String(), Err: err}
		}
		if err != nil {
			return nil, ioErr("create", err)
		}
		exps[g] = m
	}
	return NewWithExpanders(cfg, exps[GroupA], exps[GroupB])
}

// NewWithExpanders builds a Changer over already constructed expanders and
// configures them: bank A input with pull-ups, bank B output at all ones
// (every slot unpowered and deselected).
func NewWithExpanders(cfg Config, a, b Expander) (*Changer, error) {
	if a == nil || b == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "create", Err: ErrNoExpander}
	}
	c := &Changer{cfg: cfg, exp: [GroupCount]Expander{GroupA: a, GroupB: b}}
	for _, e := range c.exp {
		if err := e.SetDirection(detectBank, 0xFF); err != nil {
			return nil, ioErr("create", err)
		}
		if err := e.SetDirection(controlBank, 0x00); err != nil {
			return nil, ioErr("create", err)
		}
		if err := e.SetPullup(detectBank, 0xFF); err != nil {
			return nil, ioErr("create", err)
		}
		if err := e.WriteBank(controlBank, outputIdle); err != nil {
			return nil, ioErr("create", err)
		}
	}
	return c, nil
}

// Config returns the wiring the changer was built with.
func (c *Changer) Config() Config { return c.cfg }

// Select connects slot to its group's bus port and returns that port's
// configuration. The slot must hold a card. The other three select lines of
// the same expander are released in the same write; the other group's lines
// are left alone unless ExclusiveSelect is set.
func (c *Changer) Select(slot Slot) (PortConfig, error) {
	const op = "select"
	if err := c.requireDetected(op, slot); err != nil {
		return PortConfig{}, err
	}
	port, err := c.Port(slot)
	if err != nil {
		return PortConfig{}, err
	}

	if c.cfg.ExclusiveSelect {
		other := slot.Group() ^ 1
		if err := c.modify(op, c.exp[other], ReleaseSelects); err != nil {
			return PortConfig{}, err
		}
		if c.hasSelected && c.selected.Group() == other {
			c.hasSelected = false
		}
	}

	exp, err := c.Expander(slot)
	if err != nil {
		return PortConfig{}, err
	}
	if err := c.modify(op, exp, func(cur uint8) uint8 { return ApplySelect(cur, slot) }); err != nil {
		return PortConfig{}, err
	}
	c.selected, c.hasSelected = slot, true
	return port, nil
}

// SetPower switches the power rail of slot. The slot must hold a card.
func (c *Changer) SetPower(slot Slot, on bool) error {
	const op = "power"
	if err := c.requireDetected(op, slot); err != nil {
		return err
	}
	exp, err := c.Expander(slot)
	if err != nil {
		return err
	}
	if err := c.modify(op, exp, func(cur uint8) uint8 { return ApplyPower(cur, slot, on) }); err != nil {
		return err
	}
	c.powered = c.powered.With(slot, on)
	return nil
}

// Selected returns the slot chosen by the last successful Select. ok is
// false until a slot has been selected.
func (c *Changer) Selected() (slot Slot, ok bool) { return c.selected, c.hasSelected }

func (c *Changer) IsSelected(slot Slot) bool {
	return c.hasSelected && slot.Valid() && c.selected == slot
}

// Powered returns the in-memory power mask. It mirrors the hardware as long
// as every power change goes through this Changer.
func (c *Changer) Powered() Mask { return c.powered }

func (c *Changer) IsPowered(slot Slot) bool { return c.powered.Has(slot) }

// Detected reads both card-detect banks. Every call performs two fresh bus
// transactions; nothing is cached.
func (c *Changer) Detected() (Mask, error) {
	rawA, err := c.exp[GroupA].ReadBank(detectBank)
	if err != nil {
		return 0, ioErr("detect", err)
	}
	rawB, err := c.exp[GroupB].ReadBank(detectBank)
	if err != nil {
		return 0, ioErr("detect", err)
	}
	return DecodeDetected(rawA, rawB), nil
}

func (c *Changer) IsDetected(slot Slot) (bool, error) {
	if !slot.Valid() {
		return false, invalidSlot("detect", slot)
	}
	m, err := c.Detected()
	if err != nil {
		return false, err
	}
	return m.Has(slot), nil
}

// ActiveSelects reads both output banks and reports every slot whose select
// line is currently driven. Without ExclusiveSelect this can name one slot
// per group.
func (c *Changer) ActiveSelects() (Mask, error) {
	var m Mask
	for g, e := range c.exp {
		out, err := e.ReadBank(controlBank)
		if err != nil {
			return 0, ioErr("active_selects", err)
		}
		m |= decodeSelects(Group(g), out)
	}
	return m, nil
}

// Reset drives both output banks back to idle, powering down and
// deselecting every slot.
func (c *Changer) Reset() error {
	for g, e := range c.exp {
		if err := e.WriteBank(controlBank, outputIdle); err != nil {
			// The banks already written are idle; drop their state.
			for done := 0; done < g; done++ {
				c.forgetGroup(Group(done))
			}
			return ioErr("reset", err)
		}
	}
	c.powered = 0
	c.hasSelected = false
	return nil
}

func (c *Changer) forgetGroup(g Group) {
	base := Slot(g) * SlotsPerGroup
	for n := Slot(0); n < SlotsPerGroup; n++ {
		c.powered = c.powered.With(base+n, false)
	}
	if c.hasSelected && c.selected.Group() == g {
		c.hasSelected = false
	}
}

func (c *Changer) requireDetected(op string, slot Slot) error {
	if !slot.Valid() {
		return invalidSlot(op, slot)
	}
	ok, err := c.IsDetected(slot)
	if err != nil {
		return err
	}
	if !ok {
		return notDetected(op, slot)
	}
	return nil
}

// modify performs one read-modify-write cycle on an expander's output bank.
func (c *Changer) modify(op string, e Expander, f func(uint8) uint8) error {
	cur, err := e.ReadBank(controlBank)
	if err != nil {
		return ioErr(op, err)
	}
	if err := e.WriteBank(controlBank, f(cur)); err != nil {
		return ioErr(op, err)
	}
	return nil
}

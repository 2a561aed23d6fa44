package platform

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"

	"sdchanger-go/drivers/sdchanger"
)

// MCP23017 registers with IOCON.BANK=0; A/B pairs are adjacent and the
// address pointer auto-increments.
const (
	regIODIRA = 0x00
	regGPPUA  = 0x0C
	regGPIOA  = 0x12
	regGPIOB  = 0x13
	regOLATA  = 0x14
	regOLATB  = 0x15
	regCount  = 0x16
)

var ErrNack = errors.New("i2c: nack")

// SimExpander is a register-level MCP23017 model. Card-detect switches pull
// inputs low when a card is present.
type SimExpander struct {
	regs  [regCount]byte
	cards [2]uint8 // per bank, bit set = switch closed
	fail  bool
}

func newSimExpander() *SimExpander {
	e := &SimExpander{}
	e.regs[regIODIRA] = 0xFF
	e.regs[regIODIRA+1] = 0xFF
	return e
}

// pins computes what a GPIO read returns for bank b.
func (e *SimExpander) pins(b int) byte {
	dir := e.regs[regIODIRA+b]
	out := e.regs[regOLATA+b]
	in := ^e.cards[b] // open switches read high via pull-up
	return (in & dir) | (out &^ dir)
}

func (e *SimExpander) read(reg byte) byte {
	switch reg {
	case regGPIOA, regGPIOB:
		return e.pins(int(reg - regGPIOA))
	}
	return e.regs[reg]
}

func (e *SimExpander) write(reg, v byte) {
	switch reg {
	case regGPIOA, regGPIOB:
		// Writes to GPIO land in the output latch.
		e.regs[regOLATA+reg-regGPIOA] = v
		return
	}
	e.regs[reg] = v
}

// SimBoard is a host I²C bus carrying the changer's two expanders. It
// implements drivers.I2C.
type SimBoard struct {
	mu  sync.Mutex
	exp map[uint16]*SimExpander
	grp [sdchanger.GroupCount]*SimExpander
}

var _ drivers.I2C = (*SimBoard)(nil)

// NewSimBoard places expanders at the given group A and B addresses.
func NewSimBoard(addrA, addrB uint8) *SimBoard {
	b := &SimBoard{exp: map[uint16]*SimExpander{}}
	b.grp[sdchanger.GroupA] = newSimExpander()
	b.grp[sdchanger.GroupB] = newSimExpander()
	b.exp[uint16(addrA)] = b.grp[sdchanger.GroupA]
	b.exp[uint16(addrB)] = b.grp[sdchanger.GroupB]
	return b
}

func (b *SimBoard) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.exp[addr]
	if !ok || e.fail {
		return ErrNack
	}
	if len(w) == 0 {
		return nil
	}
	reg := w[0]
	for _, v := range w[1:] {
		if reg >= regCount {
			return ErrNack
		}
		e.write(reg, v)
		reg++
	}
	for i := range r {
		if reg >= regCount {
			return ErrNack
		}
		r[i] = e.read(reg)
		reg++
	}
	return nil
}

// Insert closes the card-detect switch of slot.
func (b *SimBoard) Insert(slot sdchanger.Slot) { b.setCard(slot, true) }

// Eject opens the card-detect switch of slot.
func (b *SimBoard) Eject(slot sdchanger.Slot) { b.setCard(slot, false) }

func (b *SimBoard) setCard(slot sdchanger.Slot, in bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.grp[slot.Group()]
	if in {
		e.cards[0] |= 1 << slot.Local()
	} else {
		e.cards[0] &^= 1 << slot.Local()
	}
}

// Output returns the control bank latch of group g.
func (b *SimBoard) Output(g sdchanger.Group) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grp[g].regs[regOLATB]
}

// SetFailing makes every transaction to group g NACK.
func (b *SimBoard) SetFailing(g sdchanger.Group, fail bool) {
	b.mu.Lock()
	b.grp[g].fail = fail
	b.mu.Unlock()
}

// Factory exposes b as I²C bus id.
func (b *SimBoard) Factory(id string) *StaticI2CFactory {
	return &StaticI2CFactory{Buses: map[string]drivers.I2C{id: b}}
}

// StaticI2CFactory maps fixed bus ids to buses.
type StaticI2CFactory struct {
	Buses map[string]drivers.I2C
}

func (f *StaticI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.Buses[id]
	return b, ok
}

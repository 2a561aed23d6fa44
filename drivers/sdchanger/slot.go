package sdchanger

import "math/bits"

const (
	// SlotCount is the number of logical media slots behind the changer.
	SlotCount = 8
	// GroupCount is the number of physical bus ports (and expanders).
	GroupCount = 2
	// SlotsPerGroup is how many slots share one bus port.
	SlotsPerGroup = SlotCount / GroupCount
)

// Group is one half of the changer: one bus port, one expander, four slots.
type Group uint8

const (
	GroupA Group = iota
	GroupB
)

func (g Group) String() string {
	switch g {
	case GroupA:
		return "A"
	case GroupB:
		return "B"
	default:
		return "?"
	}
}

// Slot identifies one logical media slot in [0, SlotCount).
type Slot uint8

// Valid reports whether s addresses a real slot.
func (s Slot) Valid() bool { return s < SlotCount }

// Group returns the port group owning s.
func (s Slot) Group() Group {
	if s < SlotsPerGroup {
		return GroupA
	}
	return GroupB
}

// Local is the position of s within its group's output bank.
func (s Slot) Local() uint8 { return uint8(s) % SlotsPerGroup }

// PowerBit is the output-bank bit driving the slot's power rail (active-low).
func (s Slot) PowerBit() uint8 { return 2 * s.Local() }

// SelectBit is the output-bank bit connecting the slot to its bus port (active-low).
func (s Slot) SelectBit() uint8 { return 2*s.Local() + 1 }

// Mask holds one bit per slot; bit i refers to Slot(i).
type Mask uint8

func (m Mask) Has(s Slot) bool {
	if !s.Valid() {
		return false
	}
	return m&(1<<s) != 0
}

func (m Mask) With(s Slot, on bool) Mask {
	if !s.Valid() {
		return m
	}
	if on {
		return m | 1<<s
	}
	return m &^ (1 << s)
}

// Count is the number of slots set in m.
func (m Mask) Count() int { return bits.OnesCount8(uint8(m)) }

// Slots lists the set slots in ascending order.
func (m Mask) Slots() []Slot {
	out := make([]Slot, 0, m.Count())
	for s := Slot(0); s < SlotCount; s++ {
		if m.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Binary renders m MSB first, slot 7 on the left.
func (m Mask) Binary() string {
	var b [8]byte
	for i := 0; i < 8; i++ {
		if m&(1<<(7-i)) != 0 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b[:])
}

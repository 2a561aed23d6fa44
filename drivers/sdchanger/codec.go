package sdchanger

// Output bank layout, per local slot n (0..3):
//
//	bit 2n   power  (0 = on, 1 = off)
//	bit 2n+1 select (0 = connected to the port, 1 = isolated)
const (
	selectBits uint8 = 0b10101010
	powerBits  uint8 = 0b01010101

	// outputIdle is the bank value with every slot off and deselected.
	outputIdle uint8 = 0xFF
)

// ApplySelect returns cur with every select line in the bank released and
// only s's select line driven active. Power bits are not touched.
func ApplySelect(cur uint8, s Slot) uint8 {
	return (cur | selectBits) &^ (1 << s.SelectBit())
}

// ApplyPower returns cur with s's power line switched. Every other bit is kept.
func ApplyPower(cur uint8, s Slot, on bool) uint8 {
	if on {
		return cur &^ (1 << s.PowerBit())
	}
	return cur | 1<<s.PowerBit()
}

// ReleaseSelects returns cur with every select line in the bank released.
func ReleaseSelects(cur uint8) uint8 { return cur | selectBits }

// decodeSelects maps an output bank of group g to the slots whose select
// line is active.
func decodeSelects(g Group, out uint8) Mask {
	var m Mask
	base := Slot(g) * SlotsPerGroup
	for n := Slot(0); n < SlotsPerGroup; n++ {
		s := base + n
		if out&(1<<s.SelectBit()) == 0 {
			m = m.With(s, true)
		}
	}
	return m
}

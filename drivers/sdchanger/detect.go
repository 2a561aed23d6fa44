package sdchanger

// Only the low nibble of each expander's input bank is wired to card-detect
// switches. The lines are pulled up and shorted to ground by a card.
const detectLines uint8 = 0x0F

// DecodeDetected combines the raw input banks of both expanders into one
// mask with bit i set when a card sits in slot i.
func DecodeDetected(rawA, rawB uint8) Mask {
	combined := (rawB&detectLines)<<4 | rawA&detectLines
	return Mask(^combined)
}

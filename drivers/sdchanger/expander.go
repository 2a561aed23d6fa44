package sdchanger

// Bank selects one 8-bit port of a 16-bit expander.
type Bank uint8

const (
	BankA Bank = iota
	BankB
)

// Bank roles on both expanders.
const (
	detectBank  = BankA // card-detect inputs, pulled up, low nibble wired
	controlBank = BankB // select/power outputs
)

// Expander is the register-level surface the changer needs from a GPIO
// expander. Every call is one bus transaction (or a short fixed sequence).
type Expander interface {
	// SetDirection configures bank pins; a set bit makes the pin an input.
	SetDirection(bank Bank, inputs uint8) error
	// SetPullup enables the pull-up on every pin set in mask.
	SetPullup(bank Bank, mask uint8) error
	ReadBank(bank Bank) (uint8, error)
	WriteBank(bank Bank, v uint8) error
}

//go:build !rp2040 && !rp2350

package platform

import (
	"sdchanger-go/drivers/sdchanger"
	"sdchanger-go/services/hal/internal/halcore"
)

// DefaultI2CFactory provides "i2c0" backed by a simulated changer with the
// reference expander addresses and cards in slots 0 and 5.
func DefaultI2CFactory() halcore.I2CBusFactory {
	b := NewSimBoard(sdchanger.AddressA, sdchanger.AddressB)
	b.Insert(0)
	b.Insert(5)
	return b.Factory("i2c0")
}

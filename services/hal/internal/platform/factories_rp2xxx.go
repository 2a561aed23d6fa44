//go:build rp2040 || rp2350

package platform

import (
	"machine"

	"tinygo.org/x/drivers"

	"sdchanger-go/drivers/sdchanger"
	"sdchanger-go/services/hal/internal/halcore"
)

// DefaultI2CFactory configures i2c0 on the board-default pins at the
// changer's bus frequency.
func DefaultI2CFactory() halcore.I2CBusFactory {
	cfg := sdchanger.DefaultConfig()
	f := &StaticI2CFactory{Buses: make(map[string]drivers.I2C)}

	b0 := machine.I2C0
	if err := b0.Configure(machine.I2CConfig{
		Frequency: cfg.I2C.Frequency,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		println("[platform] i2c0 configure failed:", err.Error())
		return f
	}
	f.Buses["i2c0"] = b0
	return f
}

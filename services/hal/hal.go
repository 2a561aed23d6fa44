// Package hal exposes board devices as bus capabilities. Configuration
// arrives on "config/hal"; each configured device publishes retained info
// and state under hal/capability/<kind>/<id>/ and serves control verbs on
// hal/capability/<kind>/<id>/control/<verb>.
package hal

import (
	"context"

	"sdchanger-go/bus"
	"sdchanger-go/services/hal/internal/halcore"
	"sdchanger-go/services/hal/internal/platform"
	"sdchanger-go/services/hal/internal/service"

	// Device builders register themselves with the registry.
	_ "sdchanger-go/services/hal/internal/devices/sdchanger"
)

// Run starts the HAL with the platform's default buses and blocks until
// ctx is cancelled.
func Run(ctx context.Context, conn *bus.Connection) {
	RunWith(ctx, conn, platform.DefaultI2CFactory())
}

// RunWith starts the HAL on the given buses.
func RunWith(ctx context.Context, conn *bus.Connection, buses halcore.I2CBusFactory) {
	service.New(conn, buses).Run(ctx)
}

//go:build rp2040 || rp2350

// Command sdchanger is the changer firmware: it publishes the embedded
// board config, runs the HAL and serves the operator console on uart0.
package main

import (
	"context"
	"machine"
	"time"

	"sdchanger-go/bus"
	"sdchanger-go/services/config"
	"sdchanger-go/services/console"
	"sdchanger-go/services/hal"
	"sdchanger-go/types"
)

const (
	boardID     = "sdchanger"
	consoleBaud = 115200
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	ctx := context.Background()
	b := bus.NewBus(8)
	halConn := b.NewConnection("hal")
	consoleConn := b.NewConnection("console")
	monConn := b.NewConnection("monitor")

	go monitor(monConn)

	println("[main] starting hal …")
	go hal.Run(ctx, halConn)

	println("[main] starting console on uart0 …")
	go console.Start(ctx, consoleConn, console.UARTOpener(consoleBaud, machine.UART0_TX_PIN, machine.UART0_RX_PIN))

	println("[main] publishing config for", boardID)
	config.NewConfigService().Start(config.WithDevice(ctx, boardID), b.NewConnection("config"))

	select {}
}

// monitor prints HAL and console state transitions.
func monitor(conn *bus.Connection) {
	halSub := conn.Subscribe(bus.T("hal", "state"))
	capSub := conn.Subscribe(bus.T("hal", "capability", "+", "+", "state"))
	conSub := conn.Subscribe(bus.T("console", "state"))
	for {
		select {
		case m := <-halSub.Channel():
			if st, ok := m.Payload.(types.HALState); ok {
				println("[hal]", st.Level, st.Status, st.Error)
			}
		case m := <-capSub.Channel():
			if st, ok := m.Payload.(types.CapabilityState); ok {
				println("[cap]", string(st.Link), st.Error)
			}
		case m := <-conSub.Channel():
			if st, ok := m.Payload.(types.ConsoleState); ok {
				println("[console]", st.Level, st.Status, st.Error)
			}
		}
	}
}

//go:build !rp2040 && !rp2350

package integration

import (
	"context"
	"testing"
	"time"

	"sdchanger-go/bus"
	"sdchanger-go/drivers/sdchanger"
	"sdchanger-go/services/config"
	"sdchanger-go/services/console"
	"sdchanger-go/services/hal"
	"sdchanger-go/services/hal/internal/platform"
	"sdchanger-go/types"
)

// The embedded board config drives the HAL, and the console operates the
// simulated changer through it.
func TestBoard_ConfigHALConsole(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(64)
	board := platform.NewSimBoard(sdchanger.AddressA, sdchanger.AddressB)
	board.Insert(2)
	board.Insert(5)

	mon := b.NewConnection("monitor")
	stateSub := mon.Subscribe(bus.T("hal", "state"))
	go hal.RunWith(ctx, b.NewConnection("hal"), board.Factory("i2c0"))

	con := console.New(b.NewConnection("console"))
	cfgSub := mon.Subscribe(bus.T("config", "console"))

	config.NewConfigService().Start(config.WithDevice(ctx, "sdchanger"), b.NewConnection("config"))

	deadline := time.After(2 * time.Second)
	for ready := false; !ready; {
		select {
		case m := <-stateSub.Channel():
			st := m.Payload.(types.HALState)
			if st.Level == "error" {
				t.Fatalf("hal state %+v", st)
			}
			ready = st.Level == "ready"
		case <-deadline:
			t.Fatal("timeout waiting for hal ready")
		}
	}

	m, err := recvOrTimeout(cfgSub.Channel(), time.Second)
	if err != nil {
		t.Fatalf("no config/console: %v", err)
	}
	raw := m.Payload.(map[string]any)
	con.Configure(types.ConsoleConfig{Prompt: raw["prompt"].(string), CapabilityID: int(raw["capability_id"].(float64))})

	steps := []struct{ line, want string }{
		{"detect", "ok mask=0x24 count=2 slots=2,5"},
		{"select 5", "ok slot=5 port=B width=4"},
		{"select 0", "err not_found"},
		{"power 2 on", "ok"},
		{"status", "ok detected=0x24 powered=0x04 selected=5 active=0x20"},
		{"rate 100", "ok period_ms=200"},
		{"read", "ok"},
		{"reset", "ok"},
		{"status", "ok detected=0x24 powered=0x00 selected=none active=0x00"},
	}
	for _, s := range steps {
		if got := con.Exec(ctx, s.line); got != s.want {
			t.Fatalf("%q: got %q, want %q", s.line, got, s.want)
		}
	}
	if board.Output(sdchanger.GroupA) != 0xFF || board.Output(sdchanger.GroupB) != 0xFF {
		t.Fatal("outputs still driven after reset")
	}
}

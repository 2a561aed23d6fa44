package platform

import (
	"errors"
	"testing"

	"sdchanger-go/drivers/sdchanger"
	"sdchanger-go/errcode"
)

func newSimChanger(t *testing.T) (*SimBoard, *sdchanger.Changer) {
	t.Helper()
	b := NewSimBoard(sdchanger.AddressA, sdchanger.AddressB)
	ch, err := sdchanger.New(b, sdchanger.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b, ch
}

func TestSimBoardBringUp(t *testing.T) {
	b, _ := newSimChanger(t)
	for _, g := range []sdchanger.Group{sdchanger.GroupA, sdchanger.GroupB} {
		e := b.grp[g]
		if e.regs[regIODIRA] != 0xFF || e.regs[regIODIRA+1] != 0x00 {
			t.Fatalf("group %v: IODIR = %#x/%#x", g, e.regs[regIODIRA], e.regs[regIODIRA+1])
		}
		if e.regs[regGPPUA] != 0xFF {
			t.Fatalf("group %v: GPPUA = %#x", g, e.regs[regGPPUA])
		}
		if b.Output(g) != 0xFF {
			t.Fatalf("group %v: output = %#x", g, b.Output(g))
		}
	}
}

func TestSimBoardDetectAndSelect(t *testing.T) {
	b, ch := newSimChanger(t)
	b.Insert(0)
	b.Insert(5)

	m, err := ch.Detected()
	if err != nil || m != 0b0010_0001 {
		t.Fatalf("Detected() = %08b, %v", m, err)
	}

	port, err := ch.Select(5)
	if err != nil {
		t.Fatalf("Select(5): %v", err)
	}
	if port.Clock != 42 {
		t.Fatalf("Select(5) returned port with clock %d", port.Clock)
	}
	if got := b.Output(sdchanger.GroupB); got != 0b1111_0111 {
		t.Fatalf("group B output = %08b", got)
	}

	if err := ch.SetPower(0, true); err != nil {
		t.Fatalf("SetPower(0): %v", err)
	}
	if got := b.Output(sdchanger.GroupA); got != 0b1111_1110 {
		t.Fatalf("group A output = %08b", got)
	}

	b.Eject(5)
	if _, err := ch.Select(5); errcode.Of(err) != errcode.NotFound {
		t.Fatalf("Select after eject: %v", err)
	}
}

func TestSimBoardFailure(t *testing.T) {
	b, ch := newSimChanger(t)
	b.Insert(1)
	b.SetFailing(sdchanger.GroupA, true)

	_, err := ch.Detected()
	if errcode.Of(err) != errcode.IOError || !errors.Is(err, ErrNack) {
		t.Fatalf("Detected() err = %v", err)
	}
	if _, ok := b.Factory("i2c0").ByID("i2c1"); ok {
		t.Fatal("unexpected bus i2c1")
	}
}

func TestSimBoardMissingExpander(t *testing.T) {
	b := NewSimBoard(sdchanger.AddressA, 0x21)
	_, err := sdchanger.New(b, sdchanger.DefaultConfig())
	if errcode.Of(err) != errcode.IOError {
		t.Fatalf("New with missing expander: %v", err)
	}
}

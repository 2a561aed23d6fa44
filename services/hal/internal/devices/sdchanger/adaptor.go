package sdchanger

import (
	"context"
	"sync"
	"time"

	"sdchanger-go/drivers/sdchanger"
	"sdchanger-go/errcode"
	"sdchanger-go/services/hal/internal/consts"
	"sdchanger-go/services/hal/internal/halcore"
	"sdchanger-go/services/hal/internal/registry"
	"sdchanger-go/types"
	"sdchanger-go/x/conv"
)

// ---------------- Params supplied via config ----------------

type Params struct {
	AddrA           int   `json:"addr_a,omitempty"` // expander for slots 0..3
	AddrB           int   `json:"addr_b,omitempty"` // expander for slots 4..7
	ExclusiveSelect *bool `json:"exclusive_select,omitempty"`
	SampleEveryMS   int   `json:"sample_every_ms,omitempty"`
}

const (
	defaultSampleEvery = time.Second
	maxI2CAddr         = 0x7F // 7-bit addressing
)

func init() {
	registry.RegisterBuilder(consts.KindSDChanger, builder{})
}

// changer is the driver surface the adaptor depends upon.
type changer interface {
	Config() sdchanger.Config
	Select(sdchanger.Slot) (sdchanger.PortConfig, error)
	SetPower(sdchanger.Slot, bool) error
	Selected() (sdchanger.Slot, bool)
	Powered() sdchanger.Mask
	Detected() (sdchanger.Mask, error)
	ActiveSelects() (sdchanger.Mask, error)
	Reset() error
}

// newChanger is replaced in tests.
var newChanger = func(in registry.BuildInput, cfg sdchanger.Config) (changer, error) {
	i2c, ok := in.Buses.ByID(in.BusRefID)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: "build", Msg: in.BusRefID}
	}
	return sdchanger.New(i2c, cfg)
}

type builder struct{}

func (builder) Build(in registry.BuildInput) (registry.BuildOutput, error) {
	if in.BusRefType != consts.BusI2C || in.BusRefID == "" {
		return registry.BuildOutput{}, &errcode.E{C: errcode.InvalidParams, Op: "build", Msg: "missing i2c bus"}
	}
	var p Params
	if err := conv.DecodeJSON(in.ParamsJSON, &p); err != nil {
		return registry.BuildOutput{}, errcode.Wrap(errcode.InvalidParams, "build", err)
	}

	cfg := sdchanger.DefaultConfig()
	for g, addr := range [2]int{p.AddrA, p.AddrB} {
		if addr < 0 || addr > maxI2CAddr {
			return registry.BuildOutput{}, &errcode.E{C: errcode.InvalidParams, Op: "build", Msg: "i2c address out of range"}
		}
		if addr != 0 {
			cfg.Addresses[g] = uint8(addr)
		}
	}
	if p.ExclusiveSelect != nil {
		cfg.ExclusiveSelect = *p.ExclusiveSelect
	}

	ch, err := newChanger(in, cfg)
	if err != nil {
		return registry.BuildOutput{}, err
	}

	every := defaultSampleEvery
	if p.SampleEveryMS > 0 {
		every = time.Duration(p.SampleEveryMS) * time.Millisecond
	}
	return registry.BuildOutput{
		Adaptor:     &adaptor{id: in.DeviceID, bus: in.BusRefID, dev: ch},
		BusID:       in.BusRefID,
		SampleEvery: every,
	}, nil
}

// adaptor exposes one changer as capability kind "sdchanger". The mutex
// serialises the poll worker against control verbs; the driver itself is
// not safe for concurrent use.
type adaptor struct {
	id  string
	bus string

	mu  sync.Mutex
	dev changer
}

func (a *adaptor) ID() string { return a.id }

func (a *adaptor) Capabilities() []halcore.CapInfo {
	cfg := a.dev.Config()
	return []halcore.CapInfo{{
		Kind: consts.KindSDChanger,
		Info: types.SDChangerInfo{
			Driver:          "mcp23017",
			Bus:             a.bus,
			Slots:           sdchanger.SlotCount,
			Expanders:       []uint16{uint16(cfg.Addresses[0]), uint16(cfg.Addresses[1])},
			Ports:           []types.PortInfo{portInfo(sdchanger.GroupA, cfg.Ports[0]), portInfo(sdchanger.GroupB, cfg.Ports[1])},
			ExclusiveSelect: cfg.ExclusiveSelect,
		},
	}}
}

// Trigger has nothing to start: detection is a plain register read.
func (a *adaptor) Trigger(ctx context.Context) (time.Duration, error) { return 0, nil }

func (a *adaptor) Collect(ctx context.Context) (halcore.Sample, error) {
	st, err := a.status()
	if err != nil {
		return nil, err
	}
	return halcore.Sample{{Kind: consts.KindSDChanger, Payload: st, TS: st.TS}}, nil
}

func (a *adaptor) Control(kind, method string, payload any) (any, error) {
	switch method {
	case consts.CtrlSelect:
		var p types.SlotSelect
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		slot, err := toSlot(p.Slot)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		port, err := a.dev.Select(slot)
		a.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return types.SlotSelectReply{OK: true, Slot: p.Slot, Port: portInfo(slot.Group(), port)}, nil

	case consts.CtrlPower:
		var p types.SlotPower
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		slot, err := toSlot(p.Slot)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		err = a.dev.SetPower(slot, p.On)
		a.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return types.OKReply{OK: true}, nil

	case consts.CtrlDetect:
		a.mu.Lock()
		m, err := a.dev.Detected()
		a.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return types.DetectReply{OK: true, Mask: uint8(m), Count: m.Count(), Slots: slotInts(m)}, nil

	case consts.CtrlStatus:
		return a.status()

	case consts.CtrlReset:
		a.mu.Lock()
		err := a.dev.Reset()
		a.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return types.OKReply{OK: true}, nil
	}
	return nil, halcore.ErrUnsupported
}

func (a *adaptor) status() (types.ChangerStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	det, err := a.dev.Detected()
	if err != nil {
		return types.ChangerStatus{}, err
	}
	act, err := a.dev.ActiveSelects()
	if err != nil {
		return types.ChangerStatus{}, err
	}
	pw := a.dev.Powered()
	st := types.ChangerStatus{
		Detected:      uint8(det),
		DetectedCount: det.Count(),
		Powered:       uint8(pw),
		PoweredCount:  pw.Count(),
		Selected:      -1,
		ActiveSelects: uint8(act),
		TS:            time.Now(),
	}
	if s, ok := a.dev.Selected(); ok {
		st.Selected = int(s)
	}
	return st, nil
}

// ---- helpers ----

func decode[T any](payload any, dst *T) error {
	if err := conv.DecodeJSON(payload, dst); err != nil {
		return errcode.Wrap(errcode.InvalidParams, "decode", err)
	}
	return nil
}

func toSlot(n int) (sdchanger.Slot, error) {
	if n < 0 || n >= sdchanger.SlotCount {
		return 0, &errcode.E{C: errcode.InvalidParams, Op: "slot", Err: sdchanger.ErrInvalidSlot}
	}
	return sdchanger.Slot(n), nil
}

func slotInts(m sdchanger.Mask) []int {
	out := []int{}
	for _, s := range m.Slots() {
		out = append(out, int(s))
	}
	return out
}

func portInfo(g sdchanger.Group, p sdchanger.PortConfig) types.PortInfo {
	data := make([]int, 0, len(p.Data))
	for _, d := range p.Data {
		data = append(data, int(d))
	}
	return types.PortInfo{
		Port:         g.String(),
		Clock:        int(p.Clock),
		Command:      int(p.Command),
		Data:         data,
		Width:        p.Width,
		CardDetect:   int(p.CardDetect),
		WriteProtect: int(p.WriteProtect),
	}
}

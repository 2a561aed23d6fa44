// Package config publishes the board's embedded configuration on the bus.
// Each top-level key of the board document is published retained on
// config/<key>; the "hal" section is decoded into types.HALConfig first.
package config

import (
	"context"
	"encoding/json"
	"errors"

	"sdchanger-go/bus"
	"sdchanger-go/errcode"
	"sdchanger-go/types"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	halKey       = "hal"
)

type ctxKey struct{}

// WithDevice returns a context carrying the board id whose embedded
// configuration should be published.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ctxKey{}, device)
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

var ErrNoDevice = errors.New("missing device ID in context")

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// Decode splits a board document into per-key payloads.
func Decode(raw []byte) (map[string]any, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "decode", err)
	}
	out := make(map[string]any, len(sections))
	for k, v := range sections {
		if k == halKey {
			var hc types.HALConfig
			if err := json.Unmarshal(v, &hc); err != nil {
				return nil, errcode.Wrap(errcode.InvalidParams, "decode "+k, err)
			}
			out[k] = hc
			continue
		}
		var x any
		if err := json.Unmarshal(v, &x); err != nil {
			return nil, errcode.Wrap(errcode.InvalidParams, "decode "+k, err)
		}
		out[k] = x
	}
	return out, nil
}

// publishConfig reads the device config from embedded data and publishes it as retained messages.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(ctxKey{}).(string)
	if device == "" {
		return ErrNoDevice
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return &errcode.E{C: errcode.NotFound, Op: "lookup", Msg: device}
	}

	sections, err := Decode(raw)
	if err != nil {
		return err
	}
	for k, v := range sections {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
	}()
}

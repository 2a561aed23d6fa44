//go:build rp2040 || rp2350

package console

import (
	"context"
	"io"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// UARTOpener returns an Opener for uart0. The peripheral is configured on
// first open and left running between sessions.
func UARTOpener(baud uint32, tx, rx machine.Pin) Opener {
	configured := false
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		hw := uartx.UART0
		if !configured {
			if err := hw.Configure(uartx.UARTConfig{BaudRate: baud, TX: tx, RX: rx}); err != nil {
				return nil, err
			}
			configured = true
		}
		lctx, cancel := context.WithCancel(ctx)
		return &uartLink{u: hw, ctx: lctx, cancel: cancel}, nil
	}
}

type uartLink struct {
	u      *uartx.UART
	ctx    context.Context
	cancel context.CancelFunc
}

func (l *uartLink) Read(p []byte) (int, error) { return l.u.RecvSomeContext(l.ctx, p) }
func (l *uartLink) Write(p []byte) (int, error) { return l.u.Write(p) }
func (l *uartLink) Close() error                { l.cancel(); return nil }

// Package console serves a line-oriented operator console for the SD
// changer. Each input line is tokenised shell-style and forwarded to the
// HAL as a control request on hal/capability/sdchanger/<id>/control/<verb>;
// the reply is written back as a single "ok ..." or "err <code>" line.
package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"

	"sdchanger-go/bus"
	"sdchanger-go/errcode"
	"sdchanger-go/types"
	"sdchanger-go/x/conv"
)

const (
	defaultPrompt  = "sd> "
	defaultTimeout = 2 * time.Second
	kindSDChanger  = "sdchanger"
)

var (
	topicConfig = bus.Topic{"config", "console"}
	topicState  = bus.Topic{"console", "state"}
)

// Opener returns the operator link. The console reopens it with backoff
// when it fails; a clean io.EOF ends the session until the next config.
type Opener func(ctx context.Context) (io.ReadWriteCloser, error)

// Start runs the console until ctx is cancelled. It waits for a config on
// "config/console" and (re)starts the link for each one.
func Start(ctx context.Context, conn *bus.Connection, open Opener) {
	s := New(conn)
	s.run(ctx, open)
}

// Service executes console commands against the HAL.
type Service struct {
	conn *bus.Connection

	mu       sync.Mutex
	cfg      types.ConsoleConfig
	commands int
	failures int
	curRun   context.CancelFunc
}

func New(conn *bus.Connection) *Service {
	return &Service{conn: conn, cfg: types.ConsoleConfig{Prompt: defaultPrompt}}
}

// Configure replaces the active console configuration.
func (s *Service) Configure(cfg types.ConsoleConfig) {
	if cfg.Prompt == "" {
		cfg.Prompt = defaultPrompt
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *Service) config() types.ConsoleConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Service) run(ctx context.Context, open Opener) {
	cfgSub := s.conn.Subscribe(topicConfig)
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.stopCurrent()
			s.publishState("stopped", "context_cancelled", nil)
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState("error", "config_subscription_closed", nil)
				return
			}
			var cfg types.ConsoleConfig
			if err := conv.DecodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			s.Configure(cfg)
			s.reconfigure(ctx, open)
		}
	}
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
}

func (s *Service) reconfigure(parent context.Context, open Opener) {
	s.mu.Lock()
	if s.curRun != nil {
		s.curRun()
	}
	ctx, cancel := context.WithCancel(parent)
	s.curRun = cancel
	s.mu.Unlock()

	go s.runLink(ctx, open)
}

func (s *Service) runLink(ctx context.Context, open Opener) {
	if open == nil {
		s.publishState("error", "no_link", nil)
		return
	}
	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		if ctx.Err() != nil {
			return
		}
		rwc, err := open(ctx)
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "open_failed_retrying", err)
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		s.publishState("up", "link_established", nil)
		stop := context.AfterFunc(ctx, func() { _ = rwc.Close() })
		err = s.Serve(ctx, rwc)
		stop()
		_ = rwc.Close()
		if err == nil || errors.Is(err, io.EOF) {
			s.publishState("idle", "link_closed", nil)
			return
		}
		if ctx.Err() != nil {
			return
		}
		delay := backoff()
		s.publishState("degraded", "link_lost_retrying", err)
		if !sleep(ctx, delay) {
			return
		}
	}
}

// Serve reads commands from rw until EOF, a read error or ctx expiry.
func (s *Service) Serve(ctx context.Context, rw io.ReadWriter) error {
	rd := bufio.NewReader(rw)
	for {
		if _, err := io.WriteString(rw, s.config().Prompt); err != nil {
			return err
		}
		line, err := rd.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if _, werr := io.WriteString(rw, s.Exec(ctx, line)+"\r\n"); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Exec runs one command line and returns the reply line.
func (s *Service) Exec(ctx context.Context, line string) string {
	reply, err := s.exec(ctx, line)

	s.mu.Lock()
	s.commands++
	if err != nil {
		s.failures++
	}
	s.mu.Unlock()

	if err != nil {
		return "err " + string(errcode.Of(err))
	}
	if reply == "" {
		return "ok"
	}
	return "ok " + reply
}

func (s *Service) exec(ctx context.Context, line string) (string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return "", errcode.Wrap(errcode.InvalidParams, "parse", err)
	}
	if len(args) == 0 {
		return "", nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "help", "?":
		return "commands: help detect status select <slot> power <slot> on|off reset rate <ms> read", nil

	case "detect":
		if len(args) != 0 {
			return "", errcode.InvalidParams
		}
		res, err := s.request(ctx, "detect", nil)
		if err != nil {
			return "", err
		}
		d, ok := res.(types.DetectReply)
		if !ok {
			return "", errcode.Error
		}
		return "mask=" + hex8(d.Mask) + " count=" + strconv.Itoa(d.Count) + " slots=" + joinInts(d.Slots), nil

	case "status":
		if len(args) != 0 {
			return "", errcode.InvalidParams
		}
		res, err := s.request(ctx, "status", nil)
		if err != nil {
			return "", err
		}
		st, ok := res.(types.ChangerStatus)
		if !ok {
			return "", errcode.Error
		}
		sel := "none"
		if st.Selected >= 0 {
			sel = strconv.Itoa(st.Selected)
		}
		return "detected=" + hex8(st.Detected) +
			" powered=" + hex8(st.Powered) +
			" selected=" + sel +
			" active=" + hex8(st.ActiveSelects), nil

	case "select":
		slot, err := slotArg(args, 1)
		if err != nil {
			return "", err
		}
		res, err := s.request(ctx, "select", types.SlotSelect{Slot: slot})
		if err != nil {
			return "", err
		}
		r, ok := res.(types.SlotSelectReply)
		if !ok {
			return "", errcode.Error
		}
		return "slot=" + strconv.Itoa(r.Slot) + " port=" + r.Port.Port + " width=" + strconv.Itoa(int(r.Port.Width)), nil

	case "power":
		slot, err := slotArg(args, 2)
		if err != nil {
			return "", err
		}
		var on bool
		switch strings.ToLower(args[1]) {
		case "on", "1", "true":
			on = true
		case "off", "0", "false":
		default:
			return "", errcode.InvalidParams
		}
		_, err = s.request(ctx, "power", types.SlotPower{Slot: slot, On: on})
		return "", err

	case "reset":
		if len(args) != 0 {
			return "", errcode.InvalidParams
		}
		_, err := s.request(ctx, "reset", nil)
		return "", err

	case "rate":
		if len(args) != 1 {
			return "", errcode.InvalidParams
		}
		ms, err := strconv.Atoi(args[0])
		if err != nil || ms <= 0 {
			return "", errcode.InvalidParams
		}
		res, err := s.request(ctx, "set_rate", types.SetRate{Period: time.Duration(ms) * time.Millisecond})
		if err != nil {
			return "", err
		}
		ack, ok := res.(types.SetRateAck)
		if !ok {
			return "", errcode.Error
		}
		return "period_ms=" + strconv.FormatInt(ack.Period.Milliseconds(), 10), nil

	case "read":
		if len(args) != 0 {
			return "", errcode.InvalidParams
		}
		_, err := s.request(ctx, "read_now", nil)
		return "", err
	}
	return "", errcode.Unsupported
}

// request sends verb to the configured changer capability and maps error
// replies onto their code.
func (s *Service) request(ctx context.Context, verb string, payload any) (any, error) {
	cfg := s.config()
	timeout := defaultTimeout
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	topic := bus.T("hal", "capability", kindSDChanger, cfg.CapabilityID, "control", verb)
	reply, err := s.conn.RequestWait(ctx, s.conn.NewMessage(topic, payload, false))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errcode.Wrap(errcode.Timeout, verb, err)
		}
		return nil, errcode.Wrap(errcode.Error, verb, err)
	}
	if e, ok := reply.Payload.(types.ErrorReply); ok {
		return nil, &errcode.E{C: errcode.Code(e.Error), Op: verb}
	}
	return reply.Payload, nil
}

// -----------------------------------------------------------------------------
// Utilities
// -----------------------------------------------------------------------------

func slotArg(args []string, want int) (int, error) {
	if len(args) != want {
		return 0, errcode.InvalidParams
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errcode.Wrap(errcode.InvalidParams, "slot", err)
	}
	return n, nil
}

func hex8(v uint8) string {
	var buf [4]byte
	buf[0], buf[1] = '0', 'x'
	conv.U8Hex(buf[2:], v)
	return string(buf[:])
}

func joinInts(v []int) string {
	if len(v) == 0 {
		return "-"
	}
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func (s *Service) publishState(level, status string, err error) {
	s.mu.Lock()
	st := types.ConsoleState{
		Level:    level,
		Status:   status,
		Commands: s.commands,
		Failures: s.failures,
		TS:       time.Now(),
	}
	s.mu.Unlock()
	if err != nil {
		st.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(topicState, st, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Command sdctl drives the SD changer console over a serial port.
//
//	sdctl -config sdctl.yaml select 5
//	sdctl -port /dev/ttyACM0 status
//
// With no command words it reads commands from stdin, one per line.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.bug.st/serial"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "YAML settings file")
		port    = flag.String("port", "", "serial port (overrides settings)")
		baud    = flag.Int("baud", 0, "baud rate (overrides settings)")
		timeout = flag.Int("timeout-ms", 0, "read timeout in ms (overrides settings)")
		list    = flag.Bool("list", false, "list serial ports and exit")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *list {
		ports, err := serial.GetPortsList()
		if err != nil {
			slog.Error("listing ports", "err", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	s, err := LoadSettings(*cfgPath)
	if err != nil {
		slog.Error("error reading settings", "path", *cfgPath, "err", err)
		os.Exit(1)
	}
	if *port != "" {
		s.Port = *port
	}
	if *baud > 0 {
		s.Baud = *baud
	}
	if *timeout > 0 {
		s.ReadTimeoutMS = *timeout
	}
	if err := s.Validate(); err != nil {
		slog.Error("invalid settings", "err", err)
		os.Exit(2)
	}

	p, err := serial.Open(s.Port, &serial.Mode{BaudRate: s.Baud})
	if err != nil {
		slog.Error("error opening port", "port", s.Port, "err", err)
		os.Exit(1)
	}
	defer p.Close()
	if err := p.SetReadTimeout(s.ReadTimeout()); err != nil {
		slog.Error("error setting read timeout", "err", err)
		os.Exit(1)
	}
	_ = p.ResetInputBuffer()
	slog.Debug("port open", "port", s.Port, "baud", s.Baud)

	sess := newSession(p, s.Prompt)
	if err := sess.Sync(); err != nil {
		slog.Error("no prompt from board", "err", err)
		os.Exit(1)
	}

	if args := flag.Args(); len(args) > 0 {
		if !run(sess, strings.Join(args, " ")) {
			os.Exit(1)
		}
		return
	}

	failed := false
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !run(sess, line) {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func run(sess *session, cmd string) bool {
	slog.Debug("sending", "cmd", cmd)
	reply, err := sess.Do(cmd)
	if err != nil {
		var re *ReplyError
		if errors.As(err, &re) {
			fmt.Println("err", re.Code)
		} else {
			slog.Error("command failed", "cmd", cmd, "err", err)
		}
		return false
	}
	if reply == "" {
		fmt.Println("ok")
	} else {
		fmt.Println("ok", reply)
	}
	return true
}

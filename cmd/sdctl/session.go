package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

var errReadTimeout = errors.New("read timeout")

// ReplyError is an "err <code>" reply from the board.
type ReplyError struct{ Code string }

func (e *ReplyError) Error() string { return "board replied " + e.Code }

// session drives the board console: one command line out, one reply line
// back, then the prompt.
type session struct {
	rw     io.ReadWriter
	prompt string
	buf    [1]byte
}

func newSession(rw io.ReadWriter, prompt string) *session {
	return &session{rw: rw, prompt: prompt}
}

// Sync elicits a fresh prompt, discarding any pending output.
func (s *session) Sync() error {
	if _, err := io.WriteString(s.rw, "\n"); err != nil {
		return err
	}
	_, err := s.readUntil(s.prompt)
	return err
}

// Do sends one command and returns the reply with its "ok" stripped.
func (s *session) Do(cmd string) (string, error) {
	if _, err := io.WriteString(s.rw, strings.TrimSpace(cmd)+"\n"); err != nil {
		return "", err
	}
	line, err := s.readUntil("\n")
	if err != nil {
		return "", err
	}
	if _, err := s.readUntil(s.prompt); err != nil {
		return "", err
	}

	// A prompt left over from Sync may precede the reply.
	for strings.HasPrefix(line, s.prompt) {
		line = line[len(s.prompt):]
	}
	line = strings.TrimSpace(line)
	switch {
	case line == "ok":
		return "", nil
	case strings.HasPrefix(line, "ok "):
		return line[3:], nil
	case strings.HasPrefix(line, "err "):
		return "", &ReplyError{Code: line[4:]}
	}
	return "", errors.New("unexpected reply: " + line)
}

// readUntil reads until the bytes read end with suffix. A read returning
// no data and no error is a serial read timeout.
func (s *session) readUntil(suffix string) (string, error) {
	var out bytes.Buffer
	for !bytes.HasSuffix(out.Bytes(), []byte(suffix)) {
		n, err := s.rw.Read(s.buf[:])
		if n == 1 {
			out.WriteByte(s.buf[0])
			continue
		}
		if err != nil {
			return out.String(), err
		}
		return out.String(), errReadTimeout
	}
	return out.String(), nil
}

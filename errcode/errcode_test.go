package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOfUnwrapsChains(t *testing.T) {
	cause := errors.New("nack")
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", NotFound, NotFound},
		{"wrapped E", Wrap(IOError, "select", cause), IOError},
		{"fmt wrapped E", fmt.Errorf("outer: %w", &E{C: InvalidParams, Op: "power"}), InvalidParams},
		{"fmt wrapped code", fmt.Errorf("outer: %w", Busy), Busy},
		{"outermost wins", Wrap(NotFound, "select", Timeout), NotFound},
		{"plain", cause, Error},
	}
	for _, tc := range cases {
		if got := Of(tc.err); got != tc.want {
			t.Fatalf("%s: Of()=%q want %q", tc.name, got, tc.want)
		}
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(IOError, "op", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
}

func TestEKeepsCause(t *testing.T) {
	cause := errors.New("bus stuck")
	err := Wrap(IOError, "read_bank", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause lost")
	}
	if got := err.Error(); got != "read_bank: io_error: bus stuck" {
		t.Fatalf("Error()=%q", got)
	}
	e := &E{C: NotFound, Op: "select", Msg: "slot 3 empty", Err: cause}
	if got := e.Error(); got != "select: not_found: slot 3 empty" {
		t.Fatalf("Error()=%q", got)
	}
}

package conv

import "testing"

func TestDecodeJSON(t *testing.T) {
	type P struct {
		Slot int  `json:"slot"`
		On   bool `json:"on"`
	}

	for name, in := range map[string]any{
		"bytes":  []byte(`{"slot":5,"on":true}`),
		"string": `{"slot":5,"on":true}`,
		"map":    map[string]any{"slot": 5, "on": true},
		"typed":  P{Slot: 5, On: true},
	} {
		var p P
		if err := DecodeJSON(in, &p); err != nil {
			t.Fatalf("%s: decode failed: %v", name, err)
		}
		if p.Slot != 5 || !p.On {
			t.Fatalf("%s: unexpected result: %+v", name, p)
		}
	}

	var p P
	if err := DecodeJSON(nil, &p); err != nil || p != (P{}) {
		t.Fatalf("nil source: %+v, %v", p, err)
	}
	if err := DecodeJSON(`{"slot":`, &p); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestU8Hex(t *testing.T) {
	var buf [4]byte
	for _, tc := range []struct {
		in   uint8
		want string
	}{{0x00, "00"}, {0x0A, "0A"}, {0x81, "81"}, {0xFF, "FF"}} {
		if got := string(U8Hex(buf[:], tc.in)); got != tc.want {
			t.Fatalf("U8Hex(%#x) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := U8Hex(buf[:1], 0x12); len(got) != 0 {
		t.Fatalf("short buffer: %q", got)
	}
}

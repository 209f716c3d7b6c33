package suit

import (
	"encoding/hex"
	"errors"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *suit.Error with kind %v, got %v", kind, err)
	}
	if se.Kind != kind {
		t.Fatalf("expected kind %v, got %v (%v)", kind, se.Kind, err)
	}
	return se
}

func TestCursorUintWidths(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"00", 0},
		{"17", 23},
		{"1818", 24},
		{"190100", 256},
		{"1a00010000", 65536},
		{"1b0000000100000000", 1 << 32},
	}
	for _, tc := range cases {
		c := NewCursor(mustHex(t, tc.in))
		v, err := c.Uint64()
		if err != nil {
			t.Fatalf("Uint64(%s): %v", tc.in, err)
		}
		if v != tc.want {
			t.Fatalf("Uint64(%s) = %d, want %d", tc.in, v, tc.want)
		}
		if c.Len() != 0 {
			t.Fatalf("Uint64(%s) left %d bytes", tc.in, c.Len())
		}
	}
}

func TestCursorNegativeInts(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"20", -1},
		{"3863", -100},
		{"3a00010000", -65537},
	}
	for _, tc := range cases {
		c := NewCursor(mustHex(t, tc.in))
		v, err := c.Int64()
		if err != nil {
			t.Fatalf("Int64(%s): %v", tc.in, err)
		}
		if v != tc.want {
			t.Fatalf("Int64(%s) = %d, want %d", tc.in, v, tc.want)
		}
	}

	// -2^64 does not fit an int64
	c := NewCursor(mustHex(t, "3bffffffffffffffff"))
	_, err := c.Int64()
	requireKind(t, err, KindUnexpectedCbor)
}

func TestCursorIndefiniteRejected(t *testing.T) {
	if _, err := NewCursor(mustHex(t, "9f00ff")).ArrayHeader(); err == nil {
		t.Fatal("indefinite array accepted")
	} else {
		requireKind(t, err, KindUnexpectedIndefiniteLength)
	}
	if _, err := NewCursor(mustHex(t, "bf0000ff")).MapHeader(); err == nil {
		t.Fatal("indefinite map accepted")
	} else {
		requireKind(t, err, KindUnexpectedIndefiniteLength)
	}
	if _, err := NewCursor(mustHex(t, "5f4100ff")).Bytes(); err == nil {
		t.Fatal("indefinite byte string accepted")
	} else {
		requireKind(t, err, KindUnexpectedIndefiniteLength)
	}
}

func TestCursorTypeMismatchPosition(t *testing.T) {
	c := NewCursor(mustHex(t, "0141aa"))
	if _, err := c.Uint64(); err != nil {
		t.Fatalf("Uint64: %v", err)
	}
	_, err := c.Uint64()
	se := requireKind(t, err, KindUnexpectedCbor)
	if se.Pos != 1 {
		t.Fatalf("error position = %d, want 1", se.Pos)
	}
}

func TestCursorBytesBorrow(t *testing.T) {
	input := mustHex(t, "4401020304")
	c := NewCursor(input)
	b, err := c.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if len(b) != 4 || &b[0] != &input[1] {
		t.Fatal("byte string does not alias the input buffer")
	}
}

func TestCursorSkipNested(t *testing.T) {
	// [{"a": 1}, true] followed by a trailing 0
	c := NewCursor(mustHex(t, "82a1616101f500"))
	if err := c.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if c.Position() != 6 {
		t.Fatalf("position after skip = %d, want 6", c.Position())
	}
	v, err := c.Uint64()
	if err != nil || v != 0 {
		t.Fatalf("trailing item = %d, %v", v, err)
	}
}

func TestCursorSkipTag(t *testing.T) {
	// tag 107 wrapping a byte string, then a trailing 1
	c := NewCursor(mustHex(t, "d86b43aabbcc01"))
	if err := c.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	v, err := c.Uint64()
	if err != nil || v != 1 {
		t.Fatalf("trailing item = %d, %v", v, err)
	}
}

func TestCursorTruncation(t *testing.T) {
	cases := []string{"19", "43aabb", "82", "1b00000001"}
	for _, in := range cases {
		c := NewCursor(mustHex(t, in))
		err := c.Skip()
		if err == nil {
			t.Fatalf("Skip(%s) accepted truncated input", in)
		}
		requireKind(t, err, KindEndOfInput)
	}
}

func TestCursorTextValidation(t *testing.T) {
	s, err := NewCursor(mustHex(t, "6161")).Text()
	if err != nil || s != "a" {
		t.Fatalf("Text = %q, %v", s, err)
	}
	_, err = NewCursor(mustHex(t, "62c328")).Text()
	requireKind(t, err, KindUnexpectedCbor)
}

func TestCursorBool(t *testing.T) {
	if v, err := NewCursor(mustHex(t, "f5")).Bool(); err != nil || !v {
		t.Fatalf("Bool(f5) = %v, %v", v, err)
	}
	if v, err := NewCursor(mustHex(t, "f4")).Bool(); err != nil || v {
		t.Fatalf("Bool(f4) = %v, %v", v, err)
	}
	_, err := NewCursor(mustHex(t, "f6")).Bool()
	requireKind(t, err, KindUnexpectedCbor)
}

func FuzzCursorSkip(f *testing.F) {
	f.Add([]byte{0x82, 0xa1, 0x61, 0x61, 0x01, 0xf5})
	f.Add([]byte{0xd8, 0x6b, 0x43, 0xaa, 0xbb, 0xcc})
	f.Add([]byte{0x9f, 0x00, 0xff})
	f.Add([]byte{0x1b, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	f.Fuzz(func(t *testing.T, data []byte) {
		c := NewCursor(data)
		// Skip either consumes a well-formed item or fails; it must never
		// panic or report a position outside the input.
		if err := c.Skip(); err == nil {
			if c.Position() > len(data) {
				t.Fatalf("position %d beyond input length %d", c.Position(), len(data))
			}
		}
	})
}

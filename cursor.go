package suit

import (
	"encoding/binary"
	"unicode/utf8"
	"unsafe"
)

// Major is a CBOR major type (the top 3 bits of an initial byte).
type Major uint8

const (
	MajorUint   Major = 0
	MajorNegInt Major = 1
	MajorBytes  Major = 2
	MajorText   Major = 3
	MajorArray  Major = 4
	MajorMap    Major = 5
	MajorTag    Major = 6
	MajorSimple Major = 7
)

const (
	addInfoDirect     = 23
	addInfoUint8      = 24
	addInfoUint16     = 25
	addInfoUint32     = 26
	addInfoUint64     = 27
	addInfoIndefinite = 31
)

const (
	simpleFalse = 20
	simpleTrue  = 21
	simpleNull  = 22
)

func getMajorType(b byte) uint8 { return (b >> 5) & 0x07 }
func getAddInfo(b byte) uint8   { return b & 0x1f }

// UnsafeStringDecode controls whether Cursor.Text returns a string that
// aliases the backing buffer instead of copying it. Off by default: the
// cursor's buffer is caller-owned and callers decide its lifetime, so an
// aliased string would silently outlive the slice it came from unless a
// caller has already established the buffer is immutable for that long.
var UnsafeStringDecode = false

// Cursor is a zero-copy, position-tracked reader over a borrowed CBOR byte
// slice. Every item it returns (tags, byte strings, text strings, array and
// map headers) is a slice into the original input; nothing is copied except
// where UnsafeStringDecode is left at its default and Text must materialize
// a Go string.
//
// Cursor enforces this module's deterministic-CBOR profile: indefinite-length
// byte strings, text strings, arrays and maps are all rejected rather than
// accumulated, matching the "definite-length only" encoding this manifest
// format requires (RFC 8949 §4.2).
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a Cursor reading from the start of b.
func NewCursor(b []byte) *Cursor { return &Cursor{buf: b} }

// Position reports the number of bytes already consumed from the original
// input. It is the value a positional *Error produced while decoding from
// this cursor carries as its Pos; end-of-input errors carry no position.
func (c *Cursor) Position() int { return c.pos }

// Remaining returns the not-yet-consumed tail of the input.
func (c *Cursor) Remaining() []byte { return c.buf }

// Len returns the number of unconsumed bytes.
func (c *Cursor) Len() int { return len(c.buf) }

// Clone returns an independent cursor over the same remaining bytes and
// position, for speculative decodes (try-each candidate evaluation, lookahead
// that may be abandoned).
func (c *Cursor) Clone() *Cursor { return &Cursor{buf: c.buf, pos: c.pos} }

func (c *Cursor) advance(n int) {
	c.pos += n
	c.buf = c.buf[n:]
}

func (c *Cursor) errEndOfInput() error {
	return &Error{Kind: KindEndOfInput}
}

func (c *Cursor) errUnexpectedCbor() error {
	return &Error{Kind: KindUnexpectedCbor, Pos: c.pos}
}

// Datatype peeks the major type of the next item without consuming it.
func (c *Cursor) Datatype() (Major, error) {
	if len(c.buf) < 1 {
		return 0, c.errEndOfInput()
	}
	return Major(getMajorType(c.buf[0])), nil
}

// header decodes the argument of the item at the cursor, requiring its major
// type to equal want. It returns the decoded unsigned argument (the literal
// value for a uint/negint/tag, or the length for a bytes/text/array/map
// item) and advances the cursor past the initial byte(s) — but not past any
// following content, which callers slice off themselves.
func (c *Cursor) header(want uint8) (uint64, error) {
	if len(c.buf) < 1 {
		return 0, c.errEndOfInput()
	}
	b0 := c.buf[0]
	if getMajorType(b0) != want {
		return 0, c.errUnexpectedCbor()
	}
	add := getAddInfo(b0)
	switch add {
	case addInfoIndefinite:
		return 0, &Error{Kind: KindUnexpectedIndefiniteLength, Pos: c.pos}
	case addInfoUint8:
		if len(c.buf) < 2 {
			return 0, c.errEndOfInput()
		}
		v := uint64(c.buf[1])
		c.advance(2)
		return v, nil
	case addInfoUint16:
		if len(c.buf) < 3 {
			return 0, c.errEndOfInput()
		}
		v := uint64(binary.BigEndian.Uint16(c.buf[1:3]))
		c.advance(3)
		return v, nil
	case addInfoUint32:
		if len(c.buf) < 5 {
			return 0, c.errEndOfInput()
		}
		v := uint64(binary.BigEndian.Uint32(c.buf[1:5]))
		c.advance(5)
		return v, nil
	case addInfoUint64:
		if len(c.buf) < 9 {
			return 0, c.errEndOfInput()
		}
		v := binary.BigEndian.Uint64(c.buf[1:9])
		c.advance(9)
		return v, nil
	default:
		if add > addInfoDirect {
			return 0, c.errUnexpectedCbor()
		}
		c.advance(1)
		return uint64(add), nil
	}
}

// Tag reads a semantic tag number (major type 6).
func (c *Cursor) Tag() (uint64, error) { return c.header(uint8(MajorTag)) }

// Uint64 reads an unsigned integer (major type 0).
func (c *Cursor) Uint64() (uint64, error) { return c.header(uint8(MajorUint)) }

// Uint32 reads an unsigned integer that must fit in 32 bits.
func (c *Cursor) Uint32() (uint32, error) {
	v, err := c.Uint64()
	if err != nil {
		return 0, err
	}
	if v > 0xffffffff {
		return 0, c.errUnexpectedCbor()
	}
	return uint32(v), nil
}

// Uint8 reads an unsigned integer that must fit in 8 bits.
func (c *Cursor) Uint8() (uint8, error) {
	v, err := c.Uint64()
	if err != nil {
		return 0, err
	}
	if v > 0xff {
		return 0, c.errUnexpectedCbor()
	}
	return uint8(v), nil
}

// Int64 reads a signed integer encoded as either major type 0 (non-negative)
// or major type 1 (negative, value -1-n).
func (c *Cursor) Int64() (int64, error) {
	major, err := c.Datatype()
	if err != nil {
		return 0, err
	}
	switch major {
	case MajorUint:
		v, err := c.header(uint8(MajorUint))
		if err != nil {
			return 0, err
		}
		if v > 1<<63-1 {
			return 0, c.errUnexpectedCbor()
		}
		return int64(v), nil
	case MajorNegInt:
		v, err := c.header(uint8(MajorNegInt))
		if err != nil {
			return 0, err
		}
		if v > 1<<63-1 {
			return 0, c.errUnexpectedCbor()
		}
		return -1 - int64(v), nil
	default:
		return 0, c.errUnexpectedCbor()
	}
}

// Int32 reads a signed integer that must fit in 32 bits.
func (c *Cursor) Int32() (int32, error) {
	v, err := c.Int64()
	if err != nil {
		return 0, err
	}
	if v < -(1<<31) || v > 1<<31-1 {
		return 0, c.errUnexpectedCbor()
	}
	return int32(v), nil
}

// Bool reads a CBOR simple value true/false (major type 7).
func (c *Cursor) Bool() (bool, error) {
	if len(c.buf) < 1 {
		return false, c.errEndOfInput()
	}
	b0 := c.buf[0]
	if getMajorType(b0) != uint8(MajorSimple) {
		return false, c.errUnexpectedCbor()
	}
	switch getAddInfo(b0) {
	case simpleFalse:
		c.advance(1)
		return false, nil
	case simpleTrue:
		c.advance(1)
		return true, nil
	default:
		return false, c.errUnexpectedCbor()
	}
}

// Bytes reads a definite-length byte string (major type 2) and returns a
// slice aliasing the cursor's backing buffer.
func (c *Cursor) Bytes() ([]byte, error) {
	n, err := c.header(uint8(MajorBytes))
	if err != nil {
		return nil, err
	}
	if uint64(len(c.buf)) < n {
		return nil, c.errEndOfInput()
	}
	b := c.buf[:n]
	c.advance(int(n))
	return b, nil
}

// Text reads a definite-length text string (major type 3). By default this
// allocates a copy; set UnsafeStringDecode to alias the backing buffer
// instead.
func (c *Cursor) Text() (string, error) {
	n, err := c.header(uint8(MajorText))
	if err != nil {
		return "", err
	}
	if uint64(len(c.buf)) < n {
		return "", c.errEndOfInput()
	}
	b := c.buf[:n]
	if !utf8.Valid(b) {
		c.advance(int(n))
		return "", c.errUnexpectedCbor()
	}
	c.advance(int(n))
	if UnsafeStringDecode {
		return unsafeString(b), nil
	}
	return string(b), nil
}

func unsafeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return *(*string)(unsafe.Pointer(&b))
}

// ArrayHeader reads the count of a definite-length array (major type 4).
func (c *Cursor) ArrayHeader() (uint64, error) { return c.header(uint8(MajorArray)) }

// MapHeader reads the count of entries (not items — each entry is a
// key/value pair) of a definite-length map (major type 5).
func (c *Cursor) MapHeader() (uint64, error) { return c.header(uint8(MajorMap)) }

// Skip discards exactly one well-formed CBOR item, descending into
// containers as needed. It rejects indefinite-length containers, consistent
// with the rest of this cursor.
func (c *Cursor) Skip() error {
	if len(c.buf) < 1 {
		return c.errEndOfInput()
	}
	major := getMajorType(c.buf[0])
	switch major {
	case uint8(MajorUint), uint8(MajorNegInt), uint8(MajorTag):
		_, err := c.header(major)
		if major == uint8(MajorTag) {
			if err != nil {
				return err
			}
			return c.Skip()
		}
		return err
	case uint8(MajorBytes):
		_, err := c.Bytes()
		return err
	case uint8(MajorText):
		_, err := c.Text()
		return err
	case uint8(MajorArray):
		n, err := c.ArrayHeader()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := c.Skip(); err != nil {
				return err
			}
		}
		return nil
	case uint8(MajorMap):
		n, err := c.MapHeader()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := c.Skip(); err != nil {
				return err
			}
			if err := c.Skip(); err != nil {
				return err
			}
		}
		return nil
	case uint8(MajorSimple):
		return c.skipSimple()
	default:
		return c.errUnexpectedCbor()
	}
}

func (c *Cursor) skipSimple() error {
	b0 := c.buf[0]
	add := getAddInfo(b0)
	switch add {
	case 25: // float16
		if len(c.buf) < 3 {
			return c.errEndOfInput()
		}
		c.advance(3)
	case 26: // float32
		if len(c.buf) < 5 {
			return c.errEndOfInput()
		}
		c.advance(5)
	case 27: // float64
		if len(c.buf) < 9 {
			return c.errEndOfInput()
		}
		c.advance(9)
	case addInfoUint8:
		if len(c.buf) < 2 {
			return c.errEndOfInput()
		}
		c.advance(2)
	default:
		if add > addInfoDirect {
			return c.errUnexpectedCbor()
		}
		c.advance(1)
	}
	return nil
}

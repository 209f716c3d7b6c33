package suit

import (
	"strings"
	"unicode/utf8"
)

// Component is a borrowed SUIT component identifier: a CBOR array of byte
// string segments, decoded in place as the span of bytes it occupies in
// the manifest buffer.
type Component struct {
	cbor []byte
}

// DecodeComponent decodes one component identifier (an array of byte
// strings) from c, capturing its exact byte span for later re-decoding
// (iterating its segments) without retaining any allocation beyond the
// borrowed slice.
func DecodeComponent(c *Cursor) (Component, error) {
	before := c.buf
	if err := c.Skip(); err != nil {
		return Component{}, err
	}
	return Component{cbor: before[:len(before)-len(c.buf)]}, nil
}

// segments decodes the component's byte-string segments in order.
func (comp Component) segments() ([][]byte, error) {
	c := NewCursor(comp.cbor)
	n, err := c.ArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		seg, err := c.Bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, nil
}

// AsString renders the component identifier as its segments joined with
// separator, validating that every segment is UTF-8. maxLen caps the
// rendered length, the runtime stand-in for the fixed-capacity text
// buffers constrained targets use; a render that would exceed it fails
// with KindCapacity rather than truncating silently.
func (comp Component) AsString(separator string, maxLen int) (string, error) {
	segs, err := comp.segments()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, seg := range segs {
		if i > 0 {
			b.WriteString(separator)
		}
		if !utf8.Valid(seg) {
			return "", errAt(KindUtf8Error, 0)
		}
		b.Write(seg)
		if b.Len() > maxLen {
			return "", errBare(KindCapacity)
		}
	}
	return b.String(), nil
}

// ComponentInfo pairs a component with its index within the manifest's
// common component list, as used by apply-list matching and by the
// per-component interpreter loop.
type ComponentInfo struct {
	Component Component
	Index     uint32
}

// NewComponentInfo constructs a ComponentInfo.
func NewComponentInfo(component Component, index uint32) ComponentInfo {
	return ComponentInfo{Component: component, Index: index}
}

// InApplyList evaluates a directive's component applicability entry against
// this component's index: `true` applies unconditionally, a single integer
// must equal Index, and an array of integers must contain Index. Any other
// CBOR shape is a malformed manifest.
func (ci ComponentInfo) InApplyList(c *Cursor) (bool, error) {
	major, err := c.Datatype()
	if err != nil {
		return false, err
	}
	switch major {
	case MajorSimple:
		pos := c.Position()
		b, err := c.Bool()
		if err != nil {
			return false, err
		}
		// `true` means every component; a literal `false` has no meaning
		// here and marks a malformed manifest.
		if !b {
			return false, errAt(KindUnexpectedCbor, pos)
		}
		return true, nil
	case MajorUint:
		v, err := c.Uint32()
		if err != nil {
			return false, err
		}
		return v == ci.Index, nil
	case MajorArray:
		n, err := c.ArrayHeader()
		if err != nil {
			return false, err
		}
		found := false
		for i := uint64(0); i < n; i++ {
			v, err := c.Uint32()
			if err != nil {
				return false, err
			}
			if v == ci.Index {
				found = true
			}
		}
		return found, nil
	default:
		return false, errAt(KindUnexpectedCbor, c.Position())
	}
}

package suit

import "errors"

// SUIT command codes. Conditions consume a trailing reporting-policy
// argument; directives consume the argument noted per code.
const (
	cmdVendorIdentifier   int32 = 1
	cmdClassIdentifier    int32 = 2
	cmdImageMatch         int32 = 3
	cmdComponentSlot      int32 = 5
	cmdCheckContent       int32 = 6
	cmdSetComponentIndex  int32 = 12
	cmdAbort              int32 = 14
	cmdTryEach            int32 = 15
	cmdWriteContent       int32 = 18
	cmdOverrideParameters int32 = 20
	cmdFetch              int32 = 21
	cmdCopy               int32 = 22
	cmdInvoke             int32 = 23
	cmdDeviceIdentifier   int32 = 24
	cmdSwap               int32 = 31
	cmdRunSequence        int32 = 32
)

// interpreter executes command sequences against one set of hooks. The
// components slice is the manifest's full common component list, needed by
// the copy and swap directives to resolve a source-component index into
// another component's identity.
type interpreter struct {
	hooks      OperatingHooks
	components []ComponentInfo
}

// enterSequence reads the outer array header of a command sequence and
// returns the number of command/argument pairs it holds.
func enterSequence(c *Cursor) (uint64, error) {
	pos := c.Position()
	n, err := c.ArrayHeader()
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Kind == KindUnexpectedIndefiniteLength {
			return 0, errAt(KindInvalidCommandSequence, pos)
		}
		return 0, err
	}
	if n%2 == 1 {
		return 0, errAt(KindInvalidCommandSequence, pos)
	}
	return n / 2, nil
}

// processSequence runs one command sequence over component, starting from
// state, and returns the state the sequence ends with. The sequence is a
// CBOR array of alternating command/argument pairs.
//
// A set-component-index command whose apply-list excludes this component
// turns matching off: from then on every command other than another
// set-component-index has its argument consumed and discarded without
// executing, until a later apply-list re-matches.
func (ip *interpreter) processSequence(seq []byte, state ManifestState, component *ComponentInfo) (ManifestState, error) {
	c := NewCursor(seq)
	matchComponent := true
	pairs, err := enterSequence(c)
	if err != nil {
		return state, err
	}
	for i := uint64(0); i < pairs; i++ {
		cmd, err := c.Int32()
		if err != nil {
			return state, err
		}
		if !matchComponent {
			if cmd == cmdSetComponentIndex {
				matchComponent, err = component.InApplyList(c)
			} else {
				err = c.Skip()
			}
			if err != nil {
				return state, err
			}
			continue
		}
		switch cmd {
		case cmdVendorIdentifier:
			err = ip.condVendorIdentifier(&state, component, c)
		case cmdClassIdentifier:
			err = ip.condClassIdentifier(&state, component, c)
		case cmdImageMatch:
			err = ip.condImageMatch(&state, component, c)
		case cmdComponentSlot:
			err = ip.condComponentSlot(&state, component, c)
		case cmdCheckContent:
			err = ip.condCheckContent(&state, component, c)
		case cmdSetComponentIndex:
			matchComponent, err = component.InApplyList(c)
		case cmdAbort:
			return state, errAt(KindConditionMatchFail, c.Position())
		case cmdTryEach:
			err = ip.tryEach(&state, component, c)
		case cmdWriteContent:
			err = ip.directiveWrite(&state, component, c)
		case cmdOverrideParameters:
			err = state.UpdateParameters(c)
		case cmdFetch:
			err = ip.directiveFetch(&state, component, c)
		case cmdCopy:
			err = ip.directiveCopy(&state, component, c)
		case cmdInvoke:
			err = ip.directiveInvoke(&state, component, c)
		case cmdDeviceIdentifier:
			err = ip.condDeviceIdentifier(&state, component, c)
		case cmdSwap:
			err = ip.directiveSwap(&state, component, c)
		case cmdRunSequence:
			err = ip.directiveRunSequence(&state, component, c)
		default:
			return state, errCode(KindUnsupportedCommand, int64(cmd))
		}
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

// condResult turns a hook's (matched, error) answer into sequence flow:
// hook errors pass through, a mismatch fails the condition.
func condResult(ok bool, err error, c *Cursor) error {
	if err != nil {
		return err
	}
	if !ok {
		return errAt(KindConditionMatchFail, c.Position())
	}
	_, err = DecodeReportingPolicy(c)
	return err
}

func (ip *interpreter) condVendorIdentifier(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	if state.VendorID == nil {
		return errAt(KindParameterNotSet, c.Position())
	}
	ok, err := ip.hooks.MatchVendorID(*state.VendorID, component)
	return condResult(ok, err, c)
}

func (ip *interpreter) condClassIdentifier(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	if state.ClassID == nil {
		return errAt(KindParameterNotSet, c.Position())
	}
	ok, err := ip.hooks.MatchClassID(*state.ClassID, component)
	return condResult(ok, err, c)
}

func (ip *interpreter) condDeviceIdentifier(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	if state.DeviceID == nil {
		return errAt(KindParameterNotSet, c.Position())
	}
	ok, err := ip.hooks.MatchDeviceID(*state.DeviceID, component)
	return condResult(ok, err, c)
}

func (ip *interpreter) condComponentSlot(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	if state.ComponentSlot == nil {
		return errAt(KindParameterNotSet, c.Position())
	}
	ok, err := ip.hooks.MatchComponentSlot(component, *state.ComponentSlot)
	return condResult(ok, err, c)
}

// condImageMatch streams the component image through the hooks in
// ReadWriteBufferSize chunks, feeding a hasher for the digest algorithm the
// state declares, and compares the finalized hash against the expected
// digest bytes.
func (ip *interpreter) condImageMatch(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	if state.ImageDigest == nil {
		return errAt(KindParameterNotSet, c.Position())
	}
	size, err := ip.hooks.ComponentSize(component)
	if err != nil {
		return err
	}
	hasher, err := NewHasher(state.ImageDigest.Algo)
	if err != nil {
		return err
	}
	err = ip.streamComponent(component, state.ComponentSlot, size, func(_ int, chunk []byte) error {
		hasher.Write(chunk)
		return nil
	})
	if err != nil {
		return err
	}
	ok, err := hasher.MatchDigest(*state.ImageDigest)
	return condResult(ok, err, c)
}

// streamComponent reads the component image in ReadWriteBufferSize chunks
// and hands each chunk to fn at its offset.
func (ip *interpreter) streamComponent(component *ComponentInfo, slot *uint64, size int, fn func(offset int, chunk []byte) error) error {
	rb := getReadBuf(max(1, ip.hooks.ReadWriteBufferSize()))
	defer putReadBuf(rb)
	for offset := 0; offset < size; offset += len(rb.b) {
		chunk := rb.b
		if rest := size - offset; rest < len(chunk) {
			chunk = chunk[:rest]
		}
		if err := ip.hooks.ComponentRead(component, slot, offset, chunk); err != nil {
			return err
		}
		if err := fn(offset, chunk); err != nil {
			return err
		}
	}
	return nil
}

// condCheckContent compares the component image bytewise against the
// content parameter, streaming through the same chunked read loop as the
// digest check.
func (ip *interpreter) condCheckContent(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	if state.Content == nil {
		return errAt(KindParameterNotSet, c.Position())
	}
	size, err := ip.hooks.ComponentSize(component)
	if err != nil {
		return err
	}
	if size != len(state.Content) {
		return errAt(KindConditionMatchFail, c.Position())
	}
	err = ip.streamComponent(component, state.ComponentSlot, size, func(offset int, chunk []byte) error {
		for i, b := range chunk {
			if b != state.Content[offset+i] {
				return errAt(KindConditionMatchFail, c.Position())
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	_, err = DecodeReportingPolicy(c)
	return err
}

func (ip *interpreter) directiveWrite(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	if state.Content == nil {
		return errAt(KindParameterNotSet, c.Position())
	}
	if err := ip.hooks.ComponentWrite(component, state.ComponentSlot, 0, state.Content); err != nil {
		return err
	}
	_, err := DecodeReportingPolicy(c)
	return err
}

func (ip *interpreter) directiveFetch(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	if state.URI == nil {
		return errAt(KindParameterNotSet, c.Position())
	}
	if err := ip.hooks.ComponentFetch(component, state.ComponentSlot, *state.URI); err != nil {
		return err
	}
	_, err := DecodeReportingPolicy(c)
	return err
}

// sourceComponent resolves the source-component parameter against the
// manifest's component list.
func (ip *interpreter) sourceComponent(state *ManifestState, c *Cursor) (*ComponentInfo, error) {
	if state.SourceComponent == nil {
		return nil, errAt(KindParameterNotSet, c.Position())
	}
	idx := *state.SourceComponent
	if idx >= uint64(len(ip.components)) {
		return nil, errAt(KindUnexpectedCbor, c.Position())
	}
	return &ip.components[idx], nil
}

// directiveCopy streams the source component's image into the current
// component, chunk by chunk, through the read and write hooks.
func (ip *interpreter) directiveCopy(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	src, err := ip.sourceComponent(state, c)
	if err != nil {
		return err
	}
	size, err := ip.hooks.ComponentSize(src)
	if err != nil {
		return err
	}
	err = ip.streamComponent(src, state.ComponentSlot, size, func(offset int, chunk []byte) error {
		return ip.hooks.ComponentWrite(component, state.ComponentSlot, offset, chunk)
	})
	if err != nil {
		return err
	}
	_, err = DecodeReportingPolicy(c)
	return err
}

func (ip *interpreter) directiveSwap(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	src, err := ip.sourceComponent(state, c)
	if err != nil {
		return err
	}
	if err := ip.hooks.SwapComponents(component, src, state.ComponentSlot); err != nil {
		return err
	}
	_, err = DecodeReportingPolicy(c)
	return err
}

// directiveInvoke captures the raw span of the argument map and hands it to
// the invoke hook undecoded.
func (ip *interpreter) directiveInvoke(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	major, err := c.Datatype()
	if err != nil {
		return err
	}
	if major != MajorMap {
		return errAt(KindUnexpectedCbor, c.Position())
	}
	before := c.Remaining()
	if err := c.Skip(); err != nil {
		return err
	}
	args := before[:len(before)-c.Len()]
	return ip.hooks.Invoke(component, state.ComponentSlot, args)
}

// directiveRunSequence runs a nested command sequence with the caller's
// state. Unlike try-each the state is inherited, not cloned: a failure in
// the nested sequence propagates, and its parameter updates stick.
func (ip *interpreter) directiveRunSequence(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	seq, err := c.Bytes()
	if err != nil {
		return err
	}
	res, err := ip.processSequence(seq, *state, component)
	*state = res
	return err
}

// tryEach runs candidate sub-sequences in order against a clone of the
// current state until one succeeds, then adopts that candidate's resulting
// state. An empty candidate byte-string is an unconditional success. If
// every candidate fails, the whole directive fails with TryEachFail and the
// caller's state is left as it was.
//
// A candidate failure is only a retry trigger when it is this package's own
// error; an error minted by a hook propagates immediately, since a hook
// failure says something about the device, not about the candidate.
func (ip *interpreter) tryEach(state *ManifestState, component *ComponentInfo, c *Cursor) error {
	n, err := c.ArrayHeader()
	if err != nil {
		return err
	}
	// consume the candidates not tried so the cursor lands past the whole
	// argument before the next command
	succeed := func(tried uint64) error {
		for j := tried; j < n; j++ {
			if err := c.Skip(); err != nil {
				return err
			}
		}
		return nil
	}
	for i := uint64(0); i < n; i++ {
		seq, err := c.Bytes()
		if err != nil {
			return err
		}
		if len(seq) == 0 {
			return succeed(i + 1)
		}
		res, err := ip.processSequence(seq, *state, component)
		if err == nil {
			*state = res
			return succeed(i + 1)
		}
		var se *Error
		if !errors.As(err, &se) {
			return err
		}
	}
	return errAt(KindTryEachFail, c.Position())
}

package suit

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a decoding or interpretation failure.
type Kind int

const (
	KindCapacity Kind = iota
	KindConditionMatchFail
	KindTryEachFail
	KindEndOfInput
	KindInvalidCommandSequence
	KindInvalidCommonSection
	KindNoAuthObject
	KindNoCommonSection
	KindNoComponentList
	KindNoManifestObject
	KindNoSequenceNumber
	KindParameterNotSet
	KindUnexpectedCbor
	KindUnexpectedIndefiniteLength
	KindUnsupportedCommand
	KindUnsupportedComponentIdentifier
	KindUnsupportedDigestAlgo
	KindUnsupportedManifestVersion
	KindUnsupportedParameter
	KindUtf8Error
)

func (k Kind) String() string {
	switch k {
	case KindCapacity:
		return "capacity error"
	case KindConditionMatchFail:
		return "condition match failed"
	case KindTryEachFail:
		return "all try-each candidates failed"
	case KindEndOfInput:
		return "end of input"
	case KindInvalidCommandSequence:
		return "invalid command sequence"
	case KindInvalidCommonSection:
		return "invalid common section"
	case KindNoAuthObject:
		return "no authentication object"
	case KindNoCommonSection:
		return "no common section"
	case KindNoComponentList:
		return "no component list"
	case KindNoManifestObject:
		return "no manifest object"
	case KindNoSequenceNumber:
		return "no sequence number"
	case KindParameterNotSet:
		return "parameter not set"
	case KindUnexpectedCbor:
		return "unexpected cbor"
	case KindUnexpectedIndefiniteLength:
		return "unexpected indefinite length"
	case KindUnsupportedCommand:
		return "unsupported command"
	case KindUnsupportedComponentIdentifier:
		return "unsupported component identifier"
	case KindUnsupportedDigestAlgo:
		return "unsupported digest algorithm"
	case KindUnsupportedManifestVersion:
		return "unsupported manifest version"
	case KindUnsupportedParameter:
		return "unsupported parameter"
	case KindUtf8Error:
		return "utf-8 error"
	default:
		return "unknown error"
	}
}

// Error is the single error type returned from every decoding and
// interpretation operation in this package. Pos is a byte offset into the
// manifest buffer being decoded when the Kind is positional; Code carries
// the numeric command/parameter/algorithm/component-identifier value for
// the Kinds that are about an unsupported numeric tag rather than a
// position.
type Error struct {
	Kind Kind
	Pos  int
	Code int64
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConditionMatchFail, KindTryEachFail, KindInvalidCommandSequence,
		KindParameterNotSet, KindUnexpectedCbor, KindUnexpectedIndefiniteLength,
		KindUnsupportedComponentIdentifier, KindUtf8Error:
		return fmt.Sprintf("%s at position %d", e.Kind, e.Pos)
	case KindUnsupportedCommand, KindUnsupportedDigestAlgo, KindUnsupportedParameter:
		return fmt.Sprintf("%s: %d", e.Kind, e.Code)
	default:
		return e.Kind.String()
	}
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, &suit.Error{Kind: suit.KindNoCommonSection}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func errAt(kind Kind, pos int) *Error      { return &Error{Kind: kind, Pos: pos} }
func errCode(kind Kind, code int64) *Error { return &Error{Kind: kind, Code: code} }
func errBare(kind Kind) *Error             { return &Error{Kind: kind} }

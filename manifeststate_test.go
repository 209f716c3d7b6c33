package suit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testParamsHex = "a4" +
	"0150fa6b4a53d5ad5fdfbe9de663e4d41ffe" + // vendor-id
	"02501492af1425695e48bf429b2d51f2ab45" + // class-id
	"035824822f582000112233445566778899aabbccddeeff0123456789abcdeffedcba9876543210" + // digest
	"0e1987d0" // image-size 34768

func TestUpdateParametersEmpty(t *testing.T) {
	var state ManifestState
	require.NoError(t, state.UpdateParameters(NewCursor(mustHex(t, "a0"))))
	require.Equal(t, ManifestState{}, state)
}

func TestUpdateParametersUnsupported(t *testing.T) {
	var state ManifestState
	err := state.UpdateParameters(NewCursor(mustHex(t, "a10000")))
	se := requireKind(t, err, KindUnsupportedParameter)
	require.EqualValues(t, 0, se.Code)
}

func TestUpdateParametersCode4Rejected(t *testing.T) {
	// 4 is not a component-slot alias; only 5 is the slot parameter
	var state ManifestState
	err := state.UpdateParameters(NewCursor(mustHex(t, "a10400")))
	se := requireKind(t, err, KindUnsupportedParameter)
	require.EqualValues(t, 4, se.Code)
}

func TestUpdateParametersVendorID(t *testing.T) {
	var state ManifestState
	input := mustHex(t, "a10150e2fad035b7b9401fb37c030e0b95481f")
	require.NoError(t, state.UpdateParameters(NewCursor(input)))
	require.NotNil(t, state.VendorID)
	require.Equal(t, uuid.MustParse("e2fad035-b7b9-401f-b37c-030e0b95481f"), *state.VendorID)
	require.Nil(t, state.ClassID)
	require.Nil(t, state.DeviceID)
}

func TestUpdateParametersDeviceID(t *testing.T) {
	var state ManifestState
	input := mustHex(t, "a1181850e2fad035b7b9401fb37c030e0b95481f")
	require.NoError(t, state.UpdateParameters(NewCursor(input)))
	require.NotNil(t, state.DeviceID)
	require.Equal(t, uuid.MustParse("e2fad035-b7b9-401f-b37c-030e0b95481f"), *state.DeviceID)
	require.Nil(t, state.VendorID)
}

func TestUpdateParametersBadUUIDLength(t *testing.T) {
	var state ManifestState
	err := state.UpdateParameters(NewCursor(mustHex(t, "a10143aabbcc")))
	requireKind(t, err, KindUnexpectedCbor)
}

func TestUpdateParametersDigest(t *testing.T) {
	var state ManifestState
	input := mustHex(t, "a1035824822f5820"+
		"01ba4719c80b6fe911b091a7c05124b64eeece964e09c058ef8f9805daca546b")
	require.NoError(t, state.UpdateParameters(NewCursor(input)))
	require.NotNil(t, state.ImageDigest)
	require.Equal(t, AlgoSha256, state.ImageDigest.Algo)
	require.Equal(t, input[len(input)-32:], state.ImageDigest.Value)
}

func TestUpdateParametersUnknownDigestAlgo(t *testing.T) {
	// digest parameter declaring algorithm -99
	var state ManifestState
	err := state.UpdateParameters(NewCursor(mustHex(t, "a103488238624400112233")))
	se := requireKind(t, err, KindUnsupportedDigestAlgo)
	require.EqualValues(t, -99, se.Code)
}

func TestUpdateParametersURI(t *testing.T) {
	var state ManifestState
	input := mustHex(t, "a11572636f61703a2f2f6578616d706c652e636f6d")
	require.NoError(t, state.UpdateParameters(NewCursor(input)))
	require.NotNil(t, state.URI)
	require.Equal(t, "coap://example.com", *state.URI)
}

func TestUpdateParametersContentAndSource(t *testing.T) {
	var state ManifestState
	input := mustHex(t, "a21244010203041601")
	require.NoError(t, state.UpdateParameters(NewCursor(input)))
	require.Equal(t, []byte{1, 2, 3, 4}, state.Content)
	require.NotNil(t, state.SourceComponent)
	require.EqualValues(t, 1, *state.SourceComponent)
}

func TestUpdateParametersImageSizeOverflow(t *testing.T) {
	var state ManifestState
	err := state.UpdateParameters(NewCursor(mustHex(t, "a10e1bffffffffffffffff")))
	requireKind(t, err, KindUnexpectedCbor)
}

func TestUpdateParametersMultiple(t *testing.T) {
	var state ManifestState
	require.NoError(t, state.UpdateParameters(NewCursor(mustHex(t, testParamsHex))))
	require.NotNil(t, state.VendorID)
	require.Equal(t, uuid.MustParse("fa6b4a53-d5ad-5fdf-be9d-e663e4d41ffe"), *state.VendorID)
	require.NotNil(t, state.ClassID)
	require.Equal(t, uuid.MustParse("1492af14-2569-5e48-bf42-9b2d51f2ab45"), *state.ClassID)
	require.NotNil(t, state.ImageDigest)
	require.Equal(t, AlgoSha256, state.ImageDigest.Algo)
	require.NotNil(t, state.ImageSize)
	require.Equal(t, 34768, *state.ImageSize)
}

// Applying the same parameter map twice yields the same state as applying it
// once: later sets override earlier sets field by field.
func TestUpdateParametersIdempotent(t *testing.T) {
	var once, twice ManifestState
	require.NoError(t, once.UpdateParameters(NewCursor(mustHex(t, testParamsHex))))
	require.NoError(t, twice.UpdateParameters(NewCursor(mustHex(t, testParamsHex))))
	require.NoError(t, twice.UpdateParameters(NewCursor(mustHex(t, testParamsHex))))
	require.Equal(t, once, twice)
}

package suit

import (
	"math"

	"github.com/google/uuid"
)

// SUIT parameter codes handled by ManifestState.UpdateParameters. Codes the
// interpreter has no storage for (strict-order, soft-failure, invoke-args)
// are rejected as unsupported rather than silently skipped: a manifest that
// sets a parameter expects it to take effect.
const (
	paramVendorID        int32 = 1
	paramClassID         int32 = 2
	paramImageDigest     int32 = 3
	paramComponentSlot   int32 = 5
	paramImageSize       int32 = 14
	paramContent         int32 = 18
	paramURI             int32 = 21
	paramSourceComponent int32 = 22
	paramDeviceID        int32 = 24
)

// ManifestState accumulates the typed parameters a command sequence sets via
// override-parameters. Every field is optional; nil means "never set". All
// byte-slice fields borrow from the manifest buffer.
//
// ManifestState has value semantics: parameter updates replace field values
// wholesale, never mutate through them, so a plain struct copy is a valid
// snapshot. The interpreter relies on this to clone state before each
// try-each candidate and discard the clone on failure.
type ManifestState struct {
	Content         []byte
	VendorID        *uuid.UUID
	ClassID         *uuid.UUID
	DeviceID        *uuid.UUID
	ImageDigest     *Digest
	ComponentSlot   *uint64
	ImageSize       *int
	URI             *string
	SourceComponent *uint64
}

func uuidFromCbor(c *Cursor) (*uuid.UUID, error) {
	pos := c.Position()
	raw, err := c.Bytes()
	if err != nil {
		return nil, err
	}
	if len(raw) != 16 {
		return nil, errAt(KindUnexpectedCbor, pos)
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return nil, errAt(KindUnexpectedCbor, pos)
	}
	return &id, nil
}

func (s *ManifestState) imageDigestFromCbor(c *Cursor) error {
	// The digest parameter wraps the [algorithm, hash] array in a byte
	// string of its own.
	raw, err := c.Bytes()
	if err != nil {
		return err
	}
	digest, err := DecodeDigest(NewCursor(raw))
	if err != nil {
		return err
	}
	s.ImageDigest = &digest
	return nil
}

func (s *ManifestState) imageSizeFromCbor(c *Cursor) error {
	pos := c.Position()
	v, err := c.Uint64()
	if err != nil {
		return err
	}
	if v > uint64(math.MaxInt) {
		return errAt(KindUnexpectedCbor, pos)
	}
	size := int(v)
	s.ImageSize = &size
	return nil
}

// UpdateParameters reads a definite-length map of {parameter-code: value}
// from c and applies each entry to the state in order. Later entries win.
// An unknown parameter code aborts the enclosing sequence with
// UnsupportedParameter.
func (s *ManifestState) UpdateParameters(c *Cursor) error {
	n, err := c.MapHeader()
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		key, err := c.Int32()
		if err != nil {
			return err
		}
		switch key {
		case paramVendorID:
			s.VendorID, err = uuidFromCbor(c)
		case paramClassID:
			s.ClassID, err = uuidFromCbor(c)
		case paramImageDigest:
			err = s.imageDigestFromCbor(c)
		case paramComponentSlot:
			var slot uint64
			if slot, err = c.Uint64(); err == nil {
				s.ComponentSlot = &slot
			}
		case paramImageSize:
			err = s.imageSizeFromCbor(c)
		case paramContent:
			var content []byte
			if content, err = c.Bytes(); err == nil {
				s.Content = content
			}
		case paramURI:
			var uri string
			if uri, err = c.Text(); err == nil {
				s.URI = &uri
			}
		case paramSourceComponent:
			var src uint64
			if src, err = c.Uint64(); err == nil {
				s.SourceComponent = &src
			}
		case paramDeviceID:
			s.DeviceID, err = uuidFromCbor(c)
		default:
			return errCode(KindUnsupportedParameter, int64(key))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

package suit

// suitTagEnvelope is the CBOR tag number marking a SUIT envelope.
const suitTagEnvelope = 107

// Envelope map keys.
const (
	envKeyAuthentication      int64 = 2
	envKeyManifest            int64 = 3
	envKeyPayloadFetch        int64 = 16
	envKeyPayloadInstallation int64 = 20
	envKeyPayloadText         int64 = 23
)

// envelopeCore holds the envelope map bytes, shared between the
// pre-authentication and authenticated envelope views.
type envelopeCore struct {
	body []byte
}

func decodeEnvelope(buf []byte) (envelopeCore, error) {
	c := NewCursor(buf)
	pos := c.Position()
	tag, err := c.Tag()
	if err != nil {
		return envelopeCore{}, err
	}
	if tag != suitTagEnvelope {
		return envelopeCore{}, errAt(KindUnexpectedCbor, pos)
	}
	return envelopeCore{body: c.Remaining()}, nil
}

// getObject looks up an integer key in the envelope map and returns the byte
// string stored under it, or nil when the key is absent. Entries under other
// keys are skipped, not rejected.
func (e envelopeCore) getObject(key int64) ([]byte, error) {
	c := NewCursor(e.body)
	n, err := c.MapHeader()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		k, err := c.Int64()
		if err != nil {
			return nil, err
		}
		if k == key {
			return c.Bytes()
		}
		if err := c.Skip(); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (e envelopeCore) authObject() ([]byte, error) {
	auth, err := e.getObject(envKeyAuthentication)
	if err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, errBare(KindNoAuthObject)
	}
	return auth, nil
}

func (e envelopeCore) manifestBytes() ([]byte, error) {
	manifest, err := e.getObject(envKeyManifest)
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, errBare(KindNoManifestObject)
	}
	return manifest, nil
}

// Envelope is the decoded view of a not-yet-authenticated SUIT envelope: the
// tag-107 wrapper around the authentication object, the manifest, and any
// severable payload sections. It exposes the bytes an external COSE verifier
// needs but none of the execution surface.
type Envelope struct {
	core envelopeCore
}

// AuthObject returns the raw authentication wrapper bytes for the external
// signature verifier.
func (e *Envelope) AuthObject() ([]byte, error) { return e.core.authObject() }

// ManifestBytes returns the raw manifest bytes the authentication object
// covers.
func (e *Envelope) ManifestBytes() ([]byte, error) { return e.core.manifestBytes() }

// Manifest returns the decoded, not-yet-authenticated manifest view.
func (e *Envelope) Manifest() (*Manifest, error) {
	b, err := e.core.manifestBytes()
	if err != nil {
		return nil, err
	}
	return &Manifest{core: manifestCore{buf: b}}, nil
}

// PayloadFetch returns the severed payload-fetch section, or nil when the
// envelope carries none.
func (e *Envelope) PayloadFetch() ([]byte, error) { return e.core.getObject(envKeyPayloadFetch) }

// PayloadInstallation returns the severed payload-installation section, or
// nil when the envelope carries none.
func (e *Envelope) PayloadInstallation() ([]byte, error) {
	return e.core.getObject(envKeyPayloadInstallation)
}

// PayloadText returns the severed text section, or nil when the envelope
// carries none.
func (e *Envelope) PayloadText() ([]byte, error) { return e.core.getObject(envKeyPayloadText) }

// AuthenticatedEnvelope is the envelope view reached only through
// AuthenticatedSuitManifest: identical byte access, but its Manifest method
// yields the executable manifest type.
type AuthenticatedEnvelope struct {
	core envelopeCore
}

// AuthObject returns the raw authentication wrapper bytes.
func (e *AuthenticatedEnvelope) AuthObject() ([]byte, error) { return e.core.authObject() }

// ManifestBytes returns the raw manifest bytes.
func (e *AuthenticatedEnvelope) ManifestBytes() ([]byte, error) { return e.core.manifestBytes() }

// Manifest returns the executable manifest view.
func (e *AuthenticatedEnvelope) Manifest() (*AuthenticatedManifest, error) {
	b, err := e.core.manifestBytes()
	if err != nil {
		return nil, err
	}
	return &AuthenticatedManifest{core: manifestCore{buf: b}}, nil
}

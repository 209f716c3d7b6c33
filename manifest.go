package suit

// Manifest map keys.
const (
	manKeyEncodingVersion     int64 = 1
	manKeySequenceNumber      int64 = 2
	manKeyCommonData          int64 = 3
	manKeyReferenceURI        int64 = 4
	manKeyImageValidation     int64 = 7
	manKeyImageLoading        int64 = 8
	manKeyImageInvocation     int64 = 9
	manKeyPayloadFetch        int64 = 16
	manKeyPayloadInstallation int64 = 20
	manKeyTextDescription     int64 = 23
)

// Common section map keys.
const (
	commonKeyComponents      int64 = 2
	commonKeyCommandSequence int64 = 4
)

// suitSupportedVersion is the only encoding version this module accepts.
const suitSupportedVersion = 1

// manifestCore carries the raw manifest map bytes shared by both manifest
// views.
type manifestCore struct {
	buf []byte
}

// lookup positions a fresh cursor at the value stored under key, or returns
// nil when the map has no such entry.
func (m manifestCore) lookup(key int64) (*Cursor, error) {
	c := NewCursor(m.buf)
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
			return c, nil
		}
		if err := c.Skip(); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (m manifestCore) version() (uint8, error) {
	c, err := m.lookup(manKeyEncodingVersion)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, errBare(KindUnsupportedManifestVersion)
	}
	v, err := c.Uint64()
	if err != nil {
		return 0, err
	}
	if v != suitSupportedVersion {
		return 0, errBare(KindUnsupportedManifestVersion)
	}
	return uint8(v), nil
}

func (m manifestCore) sequenceNumber() (uint64, error) {
	c, err := m.lookup(manKeySequenceNumber)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, errBare(KindNoSequenceNumber)
	}
	return c.Uint64()
}

func (m manifestCore) referenceURI() (string, error) {
	c, err := m.lookup(manKeyReferenceURI)
	if err != nil || c == nil {
		return "", err
	}
	return c.Text()
}

// Manifest is the header-only view of a manifest that has not been
// authenticated: version and sequence number are enough for a device to
// decide whether verifying the signature is even worth it (replay
// protection), so they are readable before authentication. Nothing that
// executes commands is.
type Manifest struct {
	core manifestCore
}

// Version returns the manifest encoding version, which must be 1.
func (m *Manifest) Version() (uint8, error) { return m.core.version() }

// SequenceNumber returns the manifest's anti-rollback sequence number.
func (m *Manifest) SequenceNumber() (uint64, error) { return m.core.sequenceNumber() }

// ReferenceURI returns the manifest's reference URI, or "" when absent.
func (m *Manifest) ReferenceURI() (string, error) { return m.core.referenceURI() }

// AuthenticatedManifest is the executable manifest view, reachable only
// through AuthenticatedSuitManifest after the caller has verified the
// envelope's authentication object out of band.
type AuthenticatedManifest struct {
	core manifestCore
}

// Version returns the manifest encoding version, which must be 1.
func (m *AuthenticatedManifest) Version() (uint8, error) { return m.core.version() }

// SequenceNumber returns the manifest's anti-rollback sequence number.
func (m *AuthenticatedManifest) SequenceNumber() (uint64, error) { return m.core.sequenceNumber() }

// ReferenceURI returns the manifest's reference URI, or "" when absent.
func (m *AuthenticatedManifest) ReferenceURI() (string, error) { return m.core.referenceURI() }

// getCommon returns the embedded common-section CBOR document (key 3).
func (m *AuthenticatedManifest) getCommon() ([]byte, error) {
	c, err := m.core.lookup(manKeyCommonData)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errBare(KindNoCommonSection)
	}
	return c.Bytes()
}

// decodeCommon splits the common section into its two required byte
// strings: the component identifier list and the common command sequence.
func decodeCommon(common []byte) (components, commands []byte, err error) {
	c := NewCursor(common)
	n, err := c.MapHeader()
	if err != nil {
		return nil, nil, err
	}
	for i := uint64(0); i < n; i++ {
		k, err := c.Int64()
		if err != nil {
			return nil, nil, err
		}
		switch k {
		case commonKeyComponents:
			if components, err = c.Bytes(); err != nil {
				return nil, nil, err
			}
		case commonKeyCommandSequence:
			if commands, err = c.Bytes(); err != nil {
				return nil, nil, err
			}
		default:
			if err := c.Skip(); err != nil {
				return nil, nil, err
			}
		}
	}
	if components == nil || commands == nil {
		return nil, nil, errBare(KindInvalidCommonSection)
	}
	return components, commands, nil
}

// decodeComponents decodes the common component list into ComponentInfo
// values carrying their declaration-order indices.
func decodeComponents(buf []byte) ([]ComponentInfo, error) {
	c := NewCursor(buf)
	n, err := c.ArrayHeader()
	if err != nil {
		return nil, err
	}
	infos := make([]ComponentInfo, 0, n)
	for i := uint64(0); i < n; i++ {
		comp, err := DecodeComponent(c)
		if err != nil {
			return nil, err
		}
		infos = append(infos, NewComponentInfo(comp, uint32(i)))
	}
	return infos, nil
}

// sequenceBytes returns the raw command-sequence byte string under key, or
// nil when the manifest carries none.
func (m *AuthenticatedManifest) sequenceBytes(key int64) ([]byte, error) {
	c, err := m.core.lookup(key)
	if err != nil || c == nil {
		return nil, err
	}
	return c.Bytes()
}

// ValidationSequence returns the image-validation command sequence, or nil
// when absent.
func (m *AuthenticatedManifest) ValidationSequence() ([]byte, error) {
	return m.sequenceBytes(manKeyImageValidation)
}

// LoadSequence returns the image-loading command sequence, or nil when
// absent.
func (m *AuthenticatedManifest) LoadSequence() ([]byte, error) {
	return m.sequenceBytes(manKeyImageLoading)
}

// InvocationSequence returns the image-invocation command sequence, or nil
// when absent.
func (m *AuthenticatedManifest) InvocationSequence() ([]byte, error) {
	return m.sequenceBytes(manKeyImageInvocation)
}

// ProcessValidate decodes the common section and runs the common command
// sequence once per declared component, in declaration order, each run
// starting from a fresh empty parameter state. It returns the first error
// any run produces; writes already performed by earlier commands are not
// rolled back.
func (m *AuthenticatedManifest) ProcessValidate(hooks OperatingHooks) error {
	common, err := m.getCommon()
	if err != nil {
		return err
	}
	componentBytes, commands, err := decodeCommon(common)
	if err != nil {
		return err
	}
	components, err := decodeComponents(componentBytes)
	if err != nil {
		return err
	}
	ip := &interpreter{hooks: hooks, components: components}
	for i := range components {
		if _, err := ip.processSequence(commands, ManifestState{}, &components[i]); err != nil {
			return err
		}
	}
	return nil
}

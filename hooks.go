package suit

import "github.com/google/uuid"

// OperatingHooks is the capability interface a device integrator supplies to
// ProcessValidate. Every storage, identity, and transfer operation the
// interpreter performs goes through it; the interpreter itself never touches
// flash, network, or device identity directly.
//
// All methods are synchronous. An error returned from a hook aborts the
// enclosing command sequence as-is; the interpreter never retries a hook.
type OperatingHooks interface {
	// ReadWriteBufferSize is the chunk size, in bytes, used when streaming a
	// component image through ComponentRead for digesting and content
	// checks. Typical embedded integrations use 64.
	ReadWriteBufferSize() int

	// MatchVendorID reports whether id is an acceptable vendor for component.
	MatchVendorID(id uuid.UUID, component *ComponentInfo) (bool, error)
	// MatchClassID reports whether id is an acceptable device class for
	// component.
	MatchClassID(id uuid.UUID, component *ComponentInfo) (bool, error)
	// MatchDeviceID reports whether id identifies this exact device.
	MatchDeviceID(id uuid.UUID, component *ComponentInfo) (bool, error)
	// MatchComponentSlot reports whether slot is the active slot for
	// component.
	MatchComponentSlot(component *ComponentInfo, slot uint64) (bool, error)

	// ComponentRead fills buf with exactly len(buf) bytes of the component
	// image starting at offset. A nil slot means no slot parameter was set.
	ComponentRead(component *ComponentInfo, slot *uint64, offset int, buf []byte) error
	// ComponentWrite stores data into the component image at offset.
	ComponentWrite(component *ComponentInfo, slot *uint64, offset int, data []byte) error
	// ComponentSize returns the current image size of component in bytes.
	ComponentSize(component *ComponentInfo) (int, error)
	// ComponentCapacity returns the maximum image size component can hold.
	ComponentCapacity(component *ComponentInfo) (int, error)

	// ComponentFetch retrieves the payload at uri into component.
	ComponentFetch(component *ComponentInfo, slot *uint64, uri string) error
	// Invoke transfers control to component. args is the raw CBOR map the
	// invoke directive carried, passed through undecoded.
	Invoke(component *ComponentInfo, slot *uint64, args []byte) error
	// SwapComponents atomically exchanges the images of a and b.
	SwapComponents(a, b *ComponentInfo, slot *uint64) error
}

// DefaultHooks provides rejecting implementations of the OperatingHooks
// methods a minimal integration can get away without: MatchDeviceID,
// MatchComponentSlot, ComponentFetch, Invoke and SwapComponents, each failing
// as UnsupportedCommand. It has no defaults for ReadWriteBufferSize, the
// vendor and class matchers, or component read/write/size/capacity; an
// embedding hook type must implement those itself.
type DefaultHooks struct{}

func (DefaultHooks) MatchDeviceID(uuid.UUID, *ComponentInfo) (bool, error) {
	return false, errCode(KindUnsupportedCommand, int64(cmdDeviceIdentifier))
}

func (DefaultHooks) MatchComponentSlot(*ComponentInfo, uint64) (bool, error) {
	return false, errCode(KindUnsupportedCommand, int64(cmdComponentSlot))
}

func (DefaultHooks) ComponentFetch(*ComponentInfo, *uint64, string) error {
	return errCode(KindUnsupportedCommand, int64(cmdFetch))
}

func (DefaultHooks) Invoke(*ComponentInfo, *uint64, []byte) error {
	return errCode(KindUnsupportedCommand, int64(cmdInvoke))
}

func (DefaultHooks) SwapComponents(*ComponentInfo, *ComponentInfo, *uint64) error {
	return errCode(KindUnsupportedCommand, int64(cmdSwap))
}

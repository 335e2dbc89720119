package layer

import "sync"

// Class names a discriminator namespace. Each nested-layer dispatch point
// reads a numeric discriminator out of its header and resolves the next
// decoder within one class.
type Class string

// Discriminator classes used by the bundled protocol packages. New protocol
// modules may introduce their own classes; the registry does not enumerate
// them.
const (
	ClassEtherType    Class = "ether-type"
	ClassIPProtocol   Class = "ip-protocol"
	ClassICMPv6Type   Class = "icmpv6-type"
	ClassNDOptionType Class = "nd-option-type"
	ClassSSH2Message  Class = "ssh2-message-number"
)

// DecodeFunc parses raw bytes into a Layer. The bytes passed in must not be
// retained; implementations copy what they keep.
type DecodeFunc func(raw []byte) (Layer, error)

type registryKey struct {
	class Class
	value uint32
}

var (
	registryMu sync.RWMutex
	decoders   = map[registryKey]DecodeFunc{}
)

// Register installs fn as the decoder for the given discriminator value
// within class. Protocol packages call this from init; a later call for the
// same pair replaces the earlier decoder. Registration is safe against
// concurrent lookups.
func Register(class Class, value uint32, fn DecodeFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	decoders[registryKey{class, value}] = fn
}

// Lookup returns the decoder for the discriminator value within class. It
// never fails: an unregistered pair resolves to an opaque-raw decoder that
// wraps the bytes as a terminal layer.
func Lookup(class Class, value uint32) DecodeFunc {
	registryMu.RLock()
	fn, ok := decoders[registryKey{class, value}]
	registryMu.RUnlock()
	if !ok {
		return decodeRaw
	}
	return fn
}

// Decode resolves the decoder for (class, value) and applies it to raw. It
// never fails and never loses bytes: a decoder error is contained as a
// Malformed sentinel holding the exact undecoded range, so the enclosing
// decode completes normally.
func Decode(class Class, value uint32, raw []byte) Layer {
	l, err := Lookup(class, value)(raw)
	if err != nil {
		return NewMalformed(raw, err)
	}
	return l
}

func decodeRaw(raw []byte) (Layer, error) {
	return NewRaw(raw), nil
}

package layer

import (
	"bytes"
	"hash/fnv"
)

// Layer is the immutable decoded representation of one protocol layer.
// Implementations are produced by a decode operation or by a Builder and are
// never mutated afterwards.
type Layer interface {
	// Serialize renders the layer into a freshly allocated buffer: header
	// fields at their fixed offsets, then the nested payload. The result is
	// deterministic and never aliases internal state.
	Serialize() []byte

	// Length reports the serialized size in bytes. It always equals
	// len(Serialize()).
	Length() int

	// Payload returns the nested layer, or nil for a terminal layer.
	Payload() Layer

	// Builder snapshots the layer's fields into a fresh Builder. Mutating
	// the returned builder never affects the layer.
	Builder() Builder

	// Malformed reports whether this layer is a containment sentinel
	// wrapping bytes that failed to decode.
	Malformed() bool

	String() string
}

// Builder stages mutable field values for one layer. Builders are
// single-owner objects; the Layer produced by Build owns copies of all
// mutable buffers and never aliases the builder's backing arrays.
type Builder interface {
	// Build produces an immutable Layer from the staged fields.
	Build() (Layer, error)

	// PayloadBuilder returns the staged nested payload builder, or nil.
	PayloadBuilder() Builder

	// SetPayload replaces the staged nested payload builder. Terminal
	// layers' builders ignore the call.
	SetPayload(Builder)

	// Policy returns the builder's correction flags, or nil when the layer
	// has no derived fields.
	Policy() *CorrectionPolicy
}

// CorrectionPolicy holds the correction-at-build capabilities a builder opts
// into. A corrected field is derived from the already-built payload instead
// of the staged value.
type CorrectionPolicy struct {
	CorrectLength   bool
	CorrectChecksum bool
}

// Equal reports whether two layers serialize to the same bytes. Layers have
// value semantics: identity and field representation are irrelevant.
func Equal(a, b Layer) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return bytes.Equal(a.Serialize(), b.Serialize())
}

// Sum64 returns a hash of the layer derived from its serialized bytes,
// consistent with Equal.
func Sum64(l Layer) uint64 {
	h := fnv.New64a()
	h.Write(l.Serialize())
	return h.Sum64()
}

// ContainsMalformed reports whether any layer in the nested chain starting at
// l is a containment sentinel.
func ContainsMalformed(l Layer) bool {
	for cur := l; cur != nil; cur = cur.Payload() {
		if cur.Malformed() {
			return true
		}
	}
	return false
}

// DisableCorrections walks the builder chain rooted at b and clears every
// correction flag it finds, including builders nested inside other builders.
func DisableCorrections(b Builder) {
	for cur := b; cur != nil; cur = cur.PayloadBuilder() {
		if p := cur.Policy(); p != nil {
			p.CorrectLength = false
			p.CorrectChecksum = false
		}
	}
}

// SanitizedBuilder prepares l for rebuilding when its chain contains a
// Malformed sentinel: the sentinel is replaced by an opaque Raw payload
// holding its exact bytes, and every correction flag in the chain is cleared.
// Rebuilding the result reproduces l's bytes without ever re-deriving fields
// from data already flagged as unparseable.
func SanitizedBuilder(l Layer) Builder {
	root := l.Builder()
	cur, curLayer := root, l
	for curLayer.Payload() != nil {
		if curLayer.Payload().Malformed() {
			cur.SetPayload(NewRaw(curLayer.Payload().Serialize()).Builder())
			break
		}
		cur, curLayer = cur.PayloadBuilder(), curLayer.Payload()
	}
	DisableCorrections(root)
	return root
}

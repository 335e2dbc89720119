package layer

import (
	"fmt"

	"github.com/muurk/stratum/internal/bytesutil"
)

// Malformed is the containment sentinel: a layer holding exactly the raw
// bytes that failed structural decoding, plus the decode error. It satisfies
// the Layer contract (serializing back to its original bytes unchanged) but
// flags the subtree so no builder ever auto-corrects fields derived from it.
type Malformed struct {
	data []byte
	err  error
}

// NewMalformed wraps the undecodable bytes and the error that rejected them.
// The bytes are copied.
func NewMalformed(data []byte, err error) *Malformed {
	return &Malformed{data: bytesutil.Clone(data), err: err}
}

// Cause returns the decode error that produced this sentinel.
func (m *Malformed) Cause() error {
	return m.err
}

func (m *Malformed) Serialize() []byte {
	return bytesutil.Clone(m.data)
}

func (m *Malformed) Length() int {
	return len(m.data)
}

func (m *Malformed) Payload() Layer {
	return nil
}

func (m *Malformed) Malformed() bool {
	return true
}

func (m *Malformed) Builder() Builder {
	return &malformedBuilder{data: bytesutil.Clone(m.data), err: m.err}
}

func (m *Malformed) String() string {
	return fmt.Sprintf("Malformed{len=%d, cause=%v, data=%s}",
		len(m.data), m.err, bytesutil.HexString(m.data, " "))
}

// malformedBuilder rebuilds the sentinel verbatim. It exists so builder
// chains over a decoded stack stay walkable before SanitizedBuilder swaps the
// sentinel for an opaque Raw payload.
type malformedBuilder struct {
	data []byte
	err  error
}

func (b *malformedBuilder) Build() (Layer, error) {
	return NewMalformed(b.data, b.err), nil
}

func (b *malformedBuilder) PayloadBuilder() Builder {
	return nil
}

func (b *malformedBuilder) SetPayload(Builder) {}

func (b *malformedBuilder) Policy() *CorrectionPolicy {
	return nil
}

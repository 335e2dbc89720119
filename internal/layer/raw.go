package layer

import (
	"fmt"

	"github.com/muurk/stratum/internal/bytesutil"
)

// Raw is an opaque terminal layer: bytes the codec carries without
// interpreting. It is the fallback target for unregistered discriminators.
type Raw struct {
	data []byte
}

// NewRaw wraps data as an opaque terminal layer. The bytes are copied.
func NewRaw(data []byte) *Raw {
	return &Raw{data: bytesutil.Clone(data)}
}

// Bytes returns a copy of the wrapped bytes.
func (r *Raw) Bytes() []byte {
	return bytesutil.Clone(r.data)
}

func (r *Raw) Serialize() []byte {
	return bytesutil.Clone(r.data)
}

func (r *Raw) Length() int {
	return len(r.data)
}

func (r *Raw) Payload() Layer {
	return nil
}

func (r *Raw) Malformed() bool {
	return false
}

func (r *Raw) Builder() Builder {
	return &RawBuilder{data: bytesutil.Clone(r.data)}
}

func (r *Raw) String() string {
	return fmt.Sprintf("Raw{len=%d, data=%s}", len(r.data), bytesutil.HexString(r.data, " "))
}

// RawBuilder stages bytes for an opaque terminal layer.
type RawBuilder struct {
	data []byte
}

// NewRawBuilder returns an empty raw builder.
func NewRawBuilder() *RawBuilder {
	return &RawBuilder{}
}

// Data stages the wrapped bytes and returns the builder for chaining.
func (b *RawBuilder) Data(data []byte) *RawBuilder {
	b.data = data
	return b
}

func (b *RawBuilder) Build() (Layer, error) {
	if b.data == nil {
		return nil, NewError(KindInvalidBuilderState, "raw data is required", nil)
	}
	return NewRaw(b.data), nil
}

// PayloadBuilder returns nil: a raw layer is terminal.
func (b *RawBuilder) PayloadBuilder() Builder {
	return nil
}

// SetPayload is ignored: a raw layer is terminal.
func (b *RawBuilder) SetPayload(Builder) {}

// Policy returns nil: a raw layer has no derived fields.
func (b *RawBuilder) Policy() *CorrectionPolicy {
	return nil
}

// Package ndp implements neighbor discovery options, currently the
// redirected-header option: a fixed 8-byte prefix followed by a complete
// embedded IPv6 packet whose length field counts in 8-byte units.
package ndp

import (
	"fmt"

	"github.com/muurk/stratum/internal/bytesutil"
	"github.com/muurk/stratum/internal/ipv6"
	"github.com/muurk/stratum/internal/layer"
)

// OptionTypeRedirectedHeader is the discriminator value within
// layer.ClassNDOptionType.
const OptionTypeRedirectedHeader = 4

const (
	fixedPrefixSize = 8 // type + length + 6 reserved bytes
	reservedSize    = 6
	minOptionSize   = fixedPrefixSize + ipv6.HeaderSize

	offsetLength   = 1
	offsetReserved = 2
	offsetPacket   = fixedPrefixSize

	lengthUnit = 8
)

func init() {
	layer.Register(layer.ClassNDOptionType, OptionTypeRedirectedHeader, func(raw []byte) (layer.Layer, error) {
		return DecodeRedirectedHeaderOption(raw)
	})
}

// RedirectedHeaderOption is an immutable decoded redirected-header option.
// Its nested payload is the embedded IPv6 packet.
type RedirectedHeaderOption struct {
	length   uint8
	reserved []byte
	packet   layer.Layer
}

// DecodeRedirectedHeaderOption parses raw as a redirected-header option. The
// embedded packet is decoded via the registry; a malformed sub-layer inside
// an otherwise decodable packet is contained and the packet is rebuilt with
// every correction capability disabled, so flagged bytes are carried through
// untouched.
func DecodeRedirectedHeaderOption(raw []byte) (*RedirectedHeaderOption, error) {
	if len(raw) < minOptionSize {
		return nil, layer.NewError(layer.KindMalformedInput,
			fmt.Sprintf("buffer too short for a redirected-header option (%d bytes needed)", minOptionSize), raw)
	}
	if raw[0] != OptionTypeRedirectedHeader {
		return nil, layer.NewError(layer.KindTypeMismatch,
			fmt.Sprintf("option type must be %d, got %d", OptionTypeRedirectedHeader, raw[0]), raw)
	}

	length := raw[offsetLength]
	if int(length)*lengthUnit > len(raw) {
		return nil, layer.NewError(layer.KindInconsistentLength,
			fmt.Sprintf("declared length %d (%d bytes) exceeds the %d-byte buffer",
				length, int(length)*lengthUnit, len(raw)), raw)
	}

	reserved, _ := bytesutil.Sub(raw, offsetReserved, reservedSize)

	pkt := layer.Decode(layer.ClassEtherType, ipv6.EtherType, raw[offsetPacket:])
	if !pkt.Malformed() && layer.ContainsMalformed(pkt) {
		if rebuilt, err := layer.SanitizedBuilder(pkt).Build(); err == nil {
			pkt = rebuilt
		}
	}

	return &RedirectedHeaderOption{
		length:   length,
		reserved: reserved,
		packet:   pkt,
	}, nil
}

// OptionLength returns the length field in 8-byte units, as decoded or
// built.
func (o *RedirectedHeaderOption) OptionLength() uint8 { return o.length }

// Reserved returns a copy of the 6 reserved bytes.
func (o *RedirectedHeaderOption) Reserved() []byte { return bytesutil.Clone(o.reserved) }

// Packet returns the embedded IP packet.
func (o *RedirectedHeaderOption) Packet() layer.Layer { return o.packet }

func (o *RedirectedHeaderOption) Payload() layer.Layer { return o.packet }

func (o *RedirectedHeaderOption) Length() int {
	return fixedPrefixSize + o.packet.Length()
}

func (o *RedirectedHeaderOption) Serialize() []byte {
	out := make([]byte, o.Length())
	out[0] = OptionTypeRedirectedHeader
	out[offsetLength] = o.length
	copy(out[offsetReserved:], o.reserved)
	copy(out[offsetPacket:], o.packet.Serialize())
	return out
}

func (o *RedirectedHeaderOption) Malformed() bool { return false }

func (o *RedirectedHeaderOption) Builder() layer.Builder {
	return &RedirectedHeaderOptionBuilder{
		length:   o.length,
		reserved: bytesutil.Clone(o.reserved),
		packet:   o.packet.Builder(),
	}
}

func (o *RedirectedHeaderOption) String() string {
	return fmt.Sprintf("RedirectedHeaderOption{length=%d (%d bytes), reserved=%s}",
		o.length, int(o.length)*lengthUnit, bytesutil.HexString(o.reserved, " "))
}

// RedirectedHeaderOptionBuilder stages a redirected-header option. The
// embedded packet builder and a 6-byte reserved field are required at build.
type RedirectedHeaderOptionBuilder struct {
	length   uint8
	reserved []byte
	packet   layer.Builder
	policy   layer.CorrectionPolicy
}

// NewRedirectedHeaderOptionBuilder returns a builder with the reserved field
// zeroed.
func NewRedirectedHeaderOptionBuilder() *RedirectedHeaderOptionBuilder {
	return &RedirectedHeaderOptionBuilder{reserved: make([]byte, reservedSize)}
}

// OptionLength stages an explicit length field in 8-byte units. The value is
// ignored when length correction is enabled.
func (b *RedirectedHeaderOptionBuilder) OptionLength(l uint8) *RedirectedHeaderOptionBuilder {
	b.length = l
	return b
}

// Reserved stages the reserved field; it must be exactly 6 bytes at build.
func (b *RedirectedHeaderOptionBuilder) Reserved(r []byte) *RedirectedHeaderOptionBuilder {
	b.reserved = r
	return b
}

// Packet stages the embedded packet builder.
func (b *RedirectedHeaderOptionBuilder) Packet(p layer.Builder) *RedirectedHeaderOptionBuilder {
	b.packet = p
	return b
}

// CorrectLengthAtBuild enables or disables deriving the length field from
// the built packet.
func (b *RedirectedHeaderOptionBuilder) CorrectLengthAtBuild(on bool) *RedirectedHeaderOptionBuilder {
	b.policy.CorrectLength = on
	return b
}

func (b *RedirectedHeaderOptionBuilder) PayloadBuilder() layer.Builder { return b.packet }

func (b *RedirectedHeaderOptionBuilder) SetPayload(p layer.Builder) { b.packet = p }

func (b *RedirectedHeaderOptionBuilder) Policy() *layer.CorrectionPolicy { return &b.policy }

func (b *RedirectedHeaderOptionBuilder) Build() (layer.Layer, error) {
	if b.packet == nil {
		return nil, layer.NewError(layer.KindInvalidBuilderState, "embedded packet is required", nil)
	}
	if len(b.reserved) != reservedSize {
		return nil, layer.NewError(layer.KindInvalidBuilderState,
			fmt.Sprintf("reserved must be %d bytes, got %d", reservedSize, len(b.reserved)), b.reserved)
	}

	built, err := b.packet.Build()
	if err != nil {
		return nil, err
	}

	o := &RedirectedHeaderOption{
		reserved: bytesutil.Clone(b.reserved),
		packet:   built,
	}

	if b.policy.CorrectLength {
		total := fixedPrefixSize + built.Length()
		if total%lengthUnit != 0 {
			return nil, layer.NewError(layer.KindInconsistentLength,
				fmt.Sprintf("total option length %d is not a multiple of %d", total, lengthUnit),
				built.Serialize())
		}
		if total/lengthUnit > 0xFF {
			return nil, layer.NewError(layer.KindInconsistentLength,
				fmt.Sprintf("total option length %d does not fit the 8-bit length field", total), nil)
		}
		o.length = uint8(total / lengthUnit)
	} else {
		o.length = b.length
	}
	return o, nil
}

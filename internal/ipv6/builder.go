package ipv6

import (
	"fmt"
	"math"
	"net"

	"github.com/muurk/stratum/internal/bytesutil"
	"github.com/muurk/stratum/internal/layer"
)

// Builder stages an IPv6 packet. Zero value defaults: version 6, hop limit
// 64, no payload.
type Builder struct {
	version       uint8
	trafficClass  uint8
	flowLabel     uint32
	payloadLength uint16
	nextHeader    uint8
	hopLimit      uint8
	src           net.IP
	dst           net.IP
	payload       layer.Builder
	policy        layer.CorrectionPolicy
}

// NewBuilder returns a builder with version 6 and hop limit 64 staged.
func NewBuilder() *Builder {
	return &Builder{version: Version, hopLimit: 64}
}

// TrafficClass stages the traffic class field.
func (b *Builder) TrafficClass(tc uint8) *Builder {
	b.trafficClass = tc
	return b
}

// FlowLabel stages the 20-bit flow label. High bits are masked off at build.
func (b *Builder) FlowLabel(fl uint32) *Builder {
	b.flowLabel = fl
	return b
}

// PayloadLength stages an explicit payload length. The value is ignored when
// length correction is enabled.
func (b *Builder) PayloadLength(l uint16) *Builder {
	b.payloadLength = l
	return b
}

// NextHeader stages the next-header protocol number.
func (b *Builder) NextHeader(nh uint8) *Builder {
	b.nextHeader = nh
	return b
}

// HopLimit stages the hop limit field.
func (b *Builder) HopLimit(hl uint8) *Builder {
	b.hopLimit = hl
	return b
}

// SrcAddr stages the source address (16 bytes).
func (b *Builder) SrcAddr(ip net.IP) *Builder {
	b.src = ip
	return b
}

// DstAddr stages the destination address (16 bytes).
func (b *Builder) DstAddr(ip net.IP) *Builder {
	b.dst = ip
	return b
}

// Payload stages the nested payload builder.
func (b *Builder) Payload(p layer.Builder) *Builder {
	b.payload = p
	return b
}

// CorrectLengthAtBuild enables or disables deriving the payload length field
// from the built payload.
func (b *Builder) CorrectLengthAtBuild(on bool) *Builder {
	b.policy.CorrectLength = on
	return b
}

func (b *Builder) PayloadBuilder() layer.Builder { return b.payload }

func (b *Builder) SetPayload(p layer.Builder) { b.payload = p }

func (b *Builder) Policy() *layer.CorrectionPolicy { return &b.policy }

func (b *Builder) Build() (layer.Layer, error) {
	if len(b.src) != net.IPv6len {
		return nil, layer.NewError(layer.KindInvalidBuilderState,
			fmt.Sprintf("src must be %d bytes, got %d", net.IPv6len, len(b.src)), b.src)
	}
	if len(b.dst) != net.IPv6len {
		return nil, layer.NewError(layer.KindInvalidBuilderState,
			fmt.Sprintf("dst must be %d bytes, got %d", net.IPv6len, len(b.dst)), b.dst)
	}

	p := &Packet{
		version:       b.version,
		trafficClass:  b.trafficClass,
		flowLabel:     b.flowLabel & 0x000FFFFF,
		nextHeader:    b.nextHeader,
		hopLimit:      b.hopLimit,
		src:           net.IP(bytesutil.Clone(b.src)),
		dst:           net.IP(bytesutil.Clone(b.dst)),
	}
	if p.version == 0 {
		p.version = Version
	}

	if b.payload != nil {
		built, err := b.payload.Build()
		if err != nil {
			return nil, err
		}
		p.payload = built
	}

	if b.policy.CorrectLength {
		l := 0
		if p.payload != nil {
			l = p.payload.Length()
		}
		if l > math.MaxUint16 {
			return nil, layer.NewError(layer.KindInconsistentLength,
				fmt.Sprintf("payload length %d does not fit the 16-bit length field", l), nil)
		}
		p.payloadLength = uint16(l)
	} else {
		p.payloadLength = b.payloadLength
	}
	return p, nil
}

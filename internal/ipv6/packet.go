// Package ipv6 implements the IPv6 packet codec: a fixed 40-byte header
// followed by a payload dispatched on the next-header protocol number.
package ipv6

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/muurk/stratum/internal/bytesutil"
	"github.com/muurk/stratum/internal/layer"
)

// EtherType is the discriminator value for IPv6 within layer.ClassEtherType.
const EtherType = 0x86DD

// Version is the IP version carried in the header's top nibble.
const Version = 6

// Header layout constants.
const (
	HeaderSize = 40

	offsetPayloadLength = 4
	offsetNextHeader    = 6
	offsetHopLimit      = 7
	offsetSrcAddress    = 8
	offsetDstAddress    = 24
)

func init() {
	layer.Register(layer.ClassEtherType, EtherType, func(raw []byte) (layer.Layer, error) {
		return Decode(raw)
	})
}

// Packet is an immutable decoded IPv6 packet.
type Packet struct {
	version       uint8
	trafficClass  uint8
	flowLabel     uint32
	payloadLength uint16
	nextHeader    uint8
	hopLimit      uint8
	src           net.IP
	dst           net.IP
	payload       layer.Layer
}

// Decode parses raw as an IPv6 packet. The payload is decoded via the
// registry using the next-header field as discriminator; a payload that fails
// to decode is contained as a Malformed sentinel, not surfaced here.
func Decode(raw []byte) (*Packet, error) {
	if len(raw) < HeaderSize {
		return nil, layer.NewError(layer.KindMalformedInput,
			fmt.Sprintf("buffer too short for an IPv6 header (%d bytes needed)", HeaderSize), raw)
	}

	vcf := binary.BigEndian.Uint32(raw[0:4])
	version := uint8(vcf >> 28)
	if version != Version {
		return nil, layer.NewError(layer.KindTypeMismatch,
			fmt.Sprintf("version must be %d, got %d", Version, version), raw)
	}

	p := &Packet{
		version:       version,
		trafficClass:  uint8(vcf >> 20),
		flowLabel:     vcf & 0x000FFFFF,
		payloadLength: binary.BigEndian.Uint16(raw[offsetPayloadLength:]),
		nextHeader:    raw[offsetNextHeader],
		hopLimit:      raw[offsetHopLimit],
	}

	if int(p.payloadLength) > len(raw)-HeaderSize {
		return nil, layer.NewError(layer.KindInconsistentLength,
			fmt.Sprintf("declared payload length %d exceeds remaining %d bytes",
				p.payloadLength, len(raw)-HeaderSize), raw)
	}

	src, _ := bytesutil.Sub(raw, offsetSrcAddress, net.IPv6len)
	dst, _ := bytesutil.Sub(raw, offsetDstAddress, net.IPv6len)
	p.src = net.IP(src)
	p.dst = net.IP(dst)

	if rest := raw[HeaderSize:]; len(rest) > 0 {
		p.payload = layer.Decode(layer.ClassIPProtocol, uint32(p.nextHeader), rest)
	}
	return p, nil
}

// TrafficClass returns the 8-bit traffic class field.
func (p *Packet) TrafficClass() uint8 { return p.trafficClass }

// FlowLabel returns the 20-bit flow label field.
func (p *Packet) FlowLabel() uint32 { return p.flowLabel }

// PayloadLength returns the declared payload length field. It may disagree
// with Payload().Length() for packets built without length correction.
func (p *Packet) PayloadLength() uint16 { return p.payloadLength }

// NextHeader returns the next-header protocol number.
func (p *Packet) NextHeader() uint8 { return p.nextHeader }

// HopLimit returns the hop limit field.
func (p *Packet) HopLimit() uint8 { return p.hopLimit }

// SrcAddr returns a copy of the source address.
func (p *Packet) SrcAddr() net.IP { return net.IP(bytesutil.Clone(p.src)) }

// DstAddr returns a copy of the destination address.
func (p *Packet) DstAddr() net.IP { return net.IP(bytesutil.Clone(p.dst)) }

func (p *Packet) Payload() layer.Layer { return p.payload }

func (p *Packet) Length() int {
	if p.payload == nil {
		return HeaderSize
	}
	return HeaderSize + p.payload.Length()
}

func (p *Packet) Serialize() []byte {
	out := make([]byte, p.Length())
	vcf := uint32(p.version)<<28 | uint32(p.trafficClass)<<20 | p.flowLabel&0x000FFFFF
	binary.BigEndian.PutUint32(out[0:4], vcf)
	binary.BigEndian.PutUint16(out[offsetPayloadLength:], p.payloadLength)
	out[offsetNextHeader] = p.nextHeader
	out[offsetHopLimit] = p.hopLimit
	copy(out[offsetSrcAddress:], p.src)
	copy(out[offsetDstAddress:], p.dst)
	if p.payload != nil {
		copy(out[HeaderSize:], p.payload.Serialize())
	}
	return out
}

func (p *Packet) Malformed() bool { return false }

func (p *Packet) Builder() layer.Builder {
	b := &Builder{
		version:       p.version,
		trafficClass:  p.trafficClass,
		flowLabel:     p.flowLabel,
		payloadLength: p.payloadLength,
		nextHeader:    p.nextHeader,
		hopLimit:      p.hopLimit,
		src:           net.IP(bytesutil.Clone(p.src)),
		dst:           net.IP(bytesutil.Clone(p.dst)),
	}
	if p.payload != nil {
		b.payload = p.payload.Builder()
	}
	return b
}

func (p *Packet) String() string {
	return fmt.Sprintf("IPv6{src=%s, dst=%s, next=%d, hop=%d, payload_len=%d}",
		p.src, p.dst, p.nextHeader, p.hopLimit, p.payloadLength)
}

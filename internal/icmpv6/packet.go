// Package icmpv6 implements the ICMPv6 common packet codec and the neighbor
// discovery redirect message. The common packet carries the checksum
// correction capability: with correction enabled, the builder computes the
// RFC 1071 sum over the IPv6 pseudo-header and the serialized message.
package icmpv6

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/muurk/stratum/internal/layer"
)

// IPProtocolNumber is the discriminator value for ICMPv6 within
// layer.ClassIPProtocol.
const IPProtocolNumber = 58

// HeaderSize is the fixed common header size: type, code, checksum.
const HeaderSize = 4

// Message type discriminator values within layer.ClassICMPv6Type.
const (
	TypeRedirect = 137
)

const offsetChecksum = 2

func init() {
	layer.Register(layer.ClassIPProtocol, IPProtocolNumber, func(raw []byte) (layer.Layer, error) {
		return Decode(raw)
	})
	layer.Register(layer.ClassICMPv6Type, TypeRedirect, func(raw []byte) (layer.Layer, error) {
		return DecodeRedirect(raw)
	})
}

// Packet is an immutable decoded ICMPv6 common packet: type, code, checksum,
// then a message body dispatched on the type value.
type Packet struct {
	typ      uint8
	code     uint8
	checksum uint16
	body     layer.Layer
}

// Decode parses raw as an ICMPv6 common packet. The body is decoded via the
// registry using the type field as discriminator.
func Decode(raw []byte) (*Packet, error) {
	if len(raw) < HeaderSize {
		return nil, layer.NewError(layer.KindMalformedInput,
			fmt.Sprintf("buffer too short for an ICMPv6 header (%d bytes needed)", HeaderSize), raw)
	}
	p := &Packet{
		typ:      raw[0],
		code:     raw[1],
		checksum: binary.BigEndian.Uint16(raw[offsetChecksum:]),
	}
	if rest := raw[HeaderSize:]; len(rest) > 0 {
		p.body = layer.Decode(layer.ClassICMPv6Type, uint32(p.typ), rest)
	}
	return p, nil
}

// Type returns the ICMPv6 message type.
func (p *Packet) Type() uint8 { return p.typ }

// Code returns the message code.
func (p *Packet) Code() uint8 { return p.code }

// Checksum returns the checksum field as decoded or built.
func (p *Packet) Checksum() uint16 { return p.checksum }

func (p *Packet) Payload() layer.Layer { return p.body }

func (p *Packet) Length() int {
	if p.body == nil {
		return HeaderSize
	}
	return HeaderSize + p.body.Length()
}

func (p *Packet) Serialize() []byte {
	out := make([]byte, p.Length())
	out[0] = p.typ
	out[1] = p.code
	binary.BigEndian.PutUint16(out[offsetChecksum:], p.checksum)
	if p.body != nil {
		copy(out[HeaderSize:], p.body.Serialize())
	}
	return out
}

func (p *Packet) Malformed() bool { return false }

func (p *Packet) Builder() layer.Builder {
	b := &Builder{
		typ:      p.typ,
		code:     p.code,
		checksum: p.checksum,
	}
	if p.body != nil {
		b.body = p.body.Builder()
	}
	return b
}

func (p *Packet) String() string {
	return fmt.Sprintf("ICMPv6{type=%d, code=%d, checksum=0x%04x}", p.typ, p.code, p.checksum)
}

// Builder stages an ICMPv6 common packet. Checksum correction requires the
// source and destination addresses for the pseudo-header.
type Builder struct {
	typ      uint8
	code     uint8
	checksum uint16
	body     layer.Builder
	src      net.IP
	dst      net.IP
	policy   layer.CorrectionPolicy
}

// NewBuilder returns an empty ICMPv6 builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Type stages the message type.
func (b *Builder) Type(t uint8) *Builder {
	b.typ = t
	return b
}

// Code stages the message code.
func (b *Builder) Code(c uint8) *Builder {
	b.code = c
	return b
}

// Checksum stages an explicit checksum. The value is ignored when checksum
// correction is enabled.
func (b *Builder) Checksum(c uint16) *Builder {
	b.checksum = c
	return b
}

// Body stages the message body builder.
func (b *Builder) Body(body layer.Builder) *Builder {
	b.body = body
	return b
}

// PseudoHeader stages the addresses used for checksum computation.
func (b *Builder) PseudoHeader(src, dst net.IP) *Builder {
	b.src = src
	b.dst = dst
	return b
}

// CorrectChecksumAtBuild enables or disables deriving the checksum from the
// serialized message.
func (b *Builder) CorrectChecksumAtBuild(on bool) *Builder {
	b.policy.CorrectChecksum = on
	return b
}

func (b *Builder) PayloadBuilder() layer.Builder { return b.body }

func (b *Builder) SetPayload(p layer.Builder) { b.body = p }

func (b *Builder) Policy() *layer.CorrectionPolicy { return &b.policy }

func (b *Builder) Build() (layer.Layer, error) {
	p := &Packet{typ: b.typ, code: b.code}

	if b.body != nil {
		built, err := b.body.Build()
		if err != nil {
			return nil, err
		}
		p.body = built
	}

	if b.policy.CorrectChecksum {
		if len(b.src) != net.IPv6len || len(b.dst) != net.IPv6len {
			return nil, layer.NewError(layer.KindInvalidBuilderState,
				"checksum correction needs 16-byte src and dst addresses", nil)
		}
		message := p.Serialize()
		binary.BigEndian.PutUint16(message[offsetChecksum:], 0)
		p.checksum = checksum(b.src, b.dst, message)
	} else {
		p.checksum = b.checksum
	}
	return p, nil
}

// Package ssh2 implements the SSH2 binary frame codec (RFC 4253 section 6):
// a 4-byte packet length covering padding-length byte, payload and padding
// (excluding itself and the trailing MAC), a 1-byte padding length, the
// payload, random padding, and whatever remains as the MAC.
//
// Padding-at-build derives exactly payloadLength mod blockSize padding bytes.
// That mirrors the behavior this codec round-trips against; it does not
// enforce the RFC's minimum of 4 or maximum of 255 padding bytes.
package ssh2

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/muurk/stratum/internal/bytesutil"
	"github.com/muurk/stratum/internal/layer"
)

// HeaderSize is the fixed header size: packet length plus padding length.
const HeaderSize = 5

const (
	offsetPacketLength  = 0
	offsetPaddingLength = 4
	offsetPayload       = HeaderSize

	// Packet lengths past the int32 range are rejected on decode and build.
	maxPacketLength = math.MaxInt32

	minBlockSize = 8
)

// BinaryPacket is an immutable decoded SSH2 binary frame. Its nested payload
// is the message dispatched on the leading message-number byte; padding and
// MAC trail the payload.
type BinaryPacket struct {
	packetLength  uint32
	paddingLength uint8
	payload       layer.Layer
	padding       []byte
	mac           []byte
}

// Decode parses raw as an SSH2 binary frame. The MAC is everything past the
// padding; its length is otherwise negotiated out of band.
func Decode(raw []byte) (*BinaryPacket, error) {
	if len(raw) < HeaderSize {
		return nil, layer.NewError(layer.KindMalformedInput,
			fmt.Sprintf("buffer too short for an SSH2 binary header (%d bytes needed)", HeaderSize), raw)
	}

	packetLength := binary.BigEndian.Uint32(raw[offsetPacketLength:])
	if packetLength > maxPacketLength {
		return nil, layer.NewError(layer.KindInconsistentLength,
			fmt.Sprintf("packet length %d is longer than %d, which is not supported", packetLength, maxPacketLength), raw)
	}
	paddingLength := raw[offsetPaddingLength]

	payloadLen := int(packetLength) - int(paddingLength) - 1
	if payloadLen < 0 {
		return nil, layer.NewError(layer.KindInconsistentLength,
			fmt.Sprintf("padding length %d exceeds packet length %d", paddingLength, packetLength), raw)
	}
	if payloadLen == 0 {
		return nil, layer.NewError(layer.KindMalformedInput, "payload is required", raw)
	}
	if offsetPayload+payloadLen+int(paddingLength) > len(raw) {
		return nil, layer.NewError(layer.KindInconsistentLength,
			fmt.Sprintf("declared packet length %d exceeds the %d-byte buffer", packetLength, len(raw)), raw)
	}

	rawPayload := raw[offsetPayload : offsetPayload+payloadLen]
	padding, _ := bytesutil.Sub(raw, offsetPayload+payloadLen, int(paddingLength))
	mac := bytesutil.Clone(raw[offsetPayload+payloadLen+int(paddingLength):])

	return &BinaryPacket{
		packetLength:  packetLength,
		paddingLength: paddingLength,
		payload:       layer.Decode(layer.ClassSSH2Message, uint32(rawPayload[0]), rawPayload),
		padding:       padding,
		mac:           mac,
	}, nil
}

// PacketLength returns the packet length field: padding-length byte plus
// payload plus padding, excluding the field itself and the MAC.
func (p *BinaryPacket) PacketLength() uint32 { return p.packetLength }

// PaddingLength returns the padding length field.
func (p *BinaryPacket) PaddingLength() uint8 { return p.paddingLength }

// Padding returns a copy of the random padding bytes.
func (p *BinaryPacket) Padding() []byte { return bytesutil.Clone(p.padding) }

// MAC returns a copy of the trailing MAC bytes.
func (p *BinaryPacket) MAC() []byte { return bytesutil.Clone(p.mac) }

func (p *BinaryPacket) Payload() layer.Layer { return p.payload }

func (p *BinaryPacket) Length() int {
	return HeaderSize + p.payload.Length() + len(p.padding) + len(p.mac)
}

func (p *BinaryPacket) Serialize() []byte {
	out := make([]byte, p.Length())
	binary.BigEndian.PutUint32(out[offsetPacketLength:], p.packetLength)
	out[offsetPaddingLength] = p.paddingLength
	payload := p.payload.Serialize()
	copy(out[offsetPayload:], payload)
	copy(out[offsetPayload+len(payload):], p.padding)
	copy(out[offsetPayload+len(payload)+len(p.padding):], p.mac)
	return out
}

func (p *BinaryPacket) Malformed() bool { return false }

func (p *BinaryPacket) Builder() layer.Builder {
	return &Builder{
		packetLength:  p.packetLength,
		paddingLength: p.paddingLength,
		payload:       p.payload.Builder(),
		padding:       bytesutil.Clone(p.padding),
		mac:           bytesutil.Clone(p.mac),
	}
}

func (p *BinaryPacket) String() string {
	return fmt.Sprintf("SSH2Binary{packet_len=%d, padding_len=%d, mac_len=%d}",
		p.packetLength, p.paddingLength, len(p.mac))
}

// Builder stages an SSH2 binary frame. The payload builder and the MAC are
// required; explicit padding is required unless padding-at-build is enabled.
type Builder struct {
	packetLength    uint32
	paddingLength   uint8
	payload         layer.Builder
	padding         []byte
	mac             []byte
	cipherBlockSize int
	padAtBuild      bool
	policy          layer.CorrectionPolicy
}

// NewBuilder returns an empty SSH2 binary frame builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// PacketLength stages an explicit packet length. The value is ignored when
// length correction is enabled.
func (b *Builder) PacketLength(l uint32) *Builder {
	b.packetLength = l
	return b
}

// PaddingLength stages an explicit padding length field. The value is
// ignored when length correction is enabled, which derives it from the
// actual padding.
func (b *Builder) PaddingLength(l uint8) *Builder {
	b.paddingLength = l
	return b
}

// Payload stages the message payload builder.
func (b *Builder) Payload(p layer.Builder) *Builder {
	b.payload = p
	return b
}

// Padding stages explicit random padding bytes.
func (b *Builder) Padding(p []byte) *Builder {
	b.padding = p
	return b
}

// MAC stages the trailing MAC bytes; pass an empty slice for "none".
func (b *Builder) MAC(m []byte) *Builder {
	b.mac = m
	return b
}

// CipherBlockSize stages the negotiated cipher block size used by
// padding-at-build. Values below 8 fall back to 8.
func (b *Builder) CipherBlockSize(s int) *Builder {
	b.cipherBlockSize = s
	return b
}

// PadAtBuild enables or disables deriving the padding from the built
// payload's length.
func (b *Builder) PadAtBuild(on bool) *Builder {
	b.padAtBuild = on
	return b
}

// CorrectLengthAtBuild enables or disables deriving the packet length and
// padding length fields from the built payload and padding.
func (b *Builder) CorrectLengthAtBuild(on bool) *Builder {
	b.policy.CorrectLength = on
	return b
}

func (b *Builder) PayloadBuilder() layer.Builder { return b.payload }

func (b *Builder) SetPayload(p layer.Builder) { b.payload = p }

func (b *Builder) Policy() *layer.CorrectionPolicy { return &b.policy }

func (b *Builder) Build() (layer.Layer, error) {
	if b.payload == nil {
		return nil, layer.NewError(layer.KindInvalidBuilderState, "payload builder is required", nil)
	}
	if b.mac == nil {
		return nil, layer.NewError(layer.KindInvalidBuilderState, "mac is required (may be empty)", nil)
	}
	if !b.padAtBuild && b.padding == nil {
		return nil, layer.NewError(layer.KindInvalidBuilderState,
			"padding is required when padding-at-build is disabled", nil)
	}

	built, err := b.payload.Build()
	if err != nil {
		return nil, err
	}

	p := &BinaryPacket{
		payload: built,
		mac:     bytesutil.Clone(b.mac),
	}

	if b.padAtBuild {
		blockSize := b.cipherBlockSize
		if blockSize < minBlockSize {
			blockSize = minBlockSize
		}
		p.padding = make([]byte, built.Length()%blockSize)
	} else {
		p.padding = bytesutil.Clone(b.padding)
	}

	if b.policy.CorrectLength {
		if len(p.padding) > 0xFF {
			return nil, layer.NewError(layer.KindInconsistentLength,
				fmt.Sprintf("derived padding length %d does not fit the 8-bit field", len(p.padding)), nil)
		}
		packetLength := 1 + built.Length() + len(p.padding)
		if packetLength > maxPacketLength {
			return nil, layer.NewError(layer.KindInconsistentLength,
				fmt.Sprintf("derived packet length %d is longer than %d, which is not supported",
					packetLength, maxPacketLength), nil)
		}
		p.packetLength = uint32(packetLength)
		p.paddingLength = uint8(len(p.padding))
	} else {
		if b.packetLength > maxPacketLength {
			return nil, layer.NewError(layer.KindInconsistentLength,
				fmt.Sprintf("packet length %d is longer than %d, which is not supported",
					b.packetLength, maxPacketLength), nil)
		}
		p.packetLength = b.packetLength
		p.paddingLength = b.paddingLength
	}
	return p, nil
}

package icmpv6

import (
	"fmt"
	"net"

	"github.com/muurk/stratum/internal/bytesutil"
	"github.com/muurk/stratum/internal/layer"
)

// Redirect message layout: 4 reserved bytes, 16-byte target address, 16-byte
// destination address, then the option area.
const (
	RedirectFixedSize = 36

	offsetTarget      = 4
	offsetDestination = 20
	offsetOptions     = RedirectFixedSize
)

// Redirect is an immutable decoded neighbor discovery redirect message. The
// option area, when present, is dispatched on its leading option-type byte.
type Redirect struct {
	reserved []byte
	target   net.IP
	dest     net.IP
	option   layer.Layer
}

// DecodeRedirect parses raw as a redirect message body (the bytes following
// the ICMPv6 common header).
func DecodeRedirect(raw []byte) (*Redirect, error) {
	if len(raw) < RedirectFixedSize {
		return nil, layer.NewError(layer.KindMalformedInput,
			fmt.Sprintf("buffer too short for a redirect message (%d bytes needed)", RedirectFixedSize), raw)
	}
	reserved, _ := bytesutil.Sub(raw, 0, offsetTarget)
	target, _ := bytesutil.Sub(raw, offsetTarget, net.IPv6len)
	dest, _ := bytesutil.Sub(raw, offsetDestination, net.IPv6len)

	r := &Redirect{
		reserved: reserved,
		target:   net.IP(target),
		dest:     net.IP(dest),
	}
	if rest := raw[offsetOptions:]; len(rest) > 0 {
		r.option = layer.Decode(layer.ClassNDOptionType, uint32(rest[0]), rest)
	}
	return r, nil
}

// TargetAddr returns a copy of the target address.
func (r *Redirect) TargetAddr() net.IP { return net.IP(bytesutil.Clone(r.target)) }

// DestinationAddr returns a copy of the destination address.
func (r *Redirect) DestinationAddr() net.IP { return net.IP(bytesutil.Clone(r.dest)) }

func (r *Redirect) Payload() layer.Layer { return r.option }

func (r *Redirect) Length() int {
	if r.option == nil {
		return RedirectFixedSize
	}
	return RedirectFixedSize + r.option.Length()
}

func (r *Redirect) Serialize() []byte {
	out := make([]byte, r.Length())
	copy(out[0:], r.reserved)
	copy(out[offsetTarget:], r.target)
	copy(out[offsetDestination:], r.dest)
	if r.option != nil {
		copy(out[offsetOptions:], r.option.Serialize())
	}
	return out
}

func (r *Redirect) Malformed() bool { return false }

func (r *Redirect) Builder() layer.Builder {
	b := &RedirectBuilder{
		reserved: bytesutil.Clone(r.reserved),
		target:   net.IP(bytesutil.Clone(r.target)),
		dest:     net.IP(bytesutil.Clone(r.dest)),
	}
	if r.option != nil {
		b.option = r.option.Builder()
	}
	return b
}

func (r *Redirect) String() string {
	return fmt.Sprintf("Redirect{target=%s, dest=%s}", r.target, r.dest)
}

// RedirectBuilder stages a redirect message. It has no derived fields, so
// Policy returns nil.
type RedirectBuilder struct {
	reserved []byte
	target   net.IP
	dest     net.IP
	option   layer.Builder
}

// NewRedirectBuilder returns a builder with the reserved field zeroed.
func NewRedirectBuilder() *RedirectBuilder {
	return &RedirectBuilder{reserved: make([]byte, offsetTarget)}
}

// TargetAddr stages the target address (16 bytes).
func (b *RedirectBuilder) TargetAddr(ip net.IP) *RedirectBuilder {
	b.target = ip
	return b
}

// DestinationAddr stages the destination address (16 bytes).
func (b *RedirectBuilder) DestinationAddr(ip net.IP) *RedirectBuilder {
	b.dest = ip
	return b
}

// Option stages the option-area builder.
func (b *RedirectBuilder) Option(o layer.Builder) *RedirectBuilder {
	b.option = o
	return b
}

func (b *RedirectBuilder) PayloadBuilder() layer.Builder { return b.option }

func (b *RedirectBuilder) SetPayload(p layer.Builder) { b.option = p }

func (b *RedirectBuilder) Policy() *layer.CorrectionPolicy { return nil }

func (b *RedirectBuilder) Build() (layer.Layer, error) {
	if len(b.reserved) != offsetTarget {
		return nil, layer.NewError(layer.KindInvalidBuilderState,
			fmt.Sprintf("reserved must be %d bytes, got %d", offsetTarget, len(b.reserved)), b.reserved)
	}
	if len(b.target) != net.IPv6len {
		return nil, layer.NewError(layer.KindInvalidBuilderState,
			fmt.Sprintf("target must be %d bytes, got %d", net.IPv6len, len(b.target)), b.target)
	}
	if len(b.dest) != net.IPv6len {
		return nil, layer.NewError(layer.KindInvalidBuilderState,
			fmt.Sprintf("destination must be %d bytes, got %d", net.IPv6len, len(b.dest)), b.dest)
	}

	r := &Redirect{
		reserved: bytesutil.Clone(b.reserved),
		target:   net.IP(bytesutil.Clone(b.target)),
		dest:     net.IP(bytesutil.Clone(b.dest)),
	}
	if b.option != nil {
		built, err := b.option.Build()
		if err != nil {
			return nil, err
		}
		r.option = built
	}
	return r, nil
}

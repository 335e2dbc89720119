package icmpv6

import (
	"bytes"
	"net"
	"testing"

	"github.com/muurk/stratum/internal/layer"
)

var (
	testSrc = net.IP{0xfe, 0x80, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x01}
	testDst = net.IP{0xfe, 0x80, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x02}
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		wantErr  bool
		wantKind layer.ErrorKind
		verify   func(t *testing.T, p *Packet)
	}{
		{
			name: "header only",
			raw:  []byte{128, 0, 0x12, 0x34},
			verify: func(t *testing.T, p *Packet) {
				if p.Type() != 128 || p.Code() != 0 || p.Checksum() != 0x1234 {
					t.Errorf("fields = %d/%d/0x%04x", p.Type(), p.Code(), p.Checksum())
				}
				if p.Payload() != nil {
					t.Error("header-only packet must have a nil body")
				}
			},
		},
		{
			name: "unknown type body falls back to raw",
			raw:  []byte{200, 0, 0, 0, 0xaa, 0xbb},
			verify: func(t *testing.T, p *Packet) {
				if _, ok := p.Payload().(*layer.Raw); !ok {
					t.Fatalf("body = %T, want *layer.Raw", p.Payload())
				}
			},
		},
		{
			name:     "short buffer",
			raw:      []byte{128, 0, 0},
			wantErr:  true,
			wantKind: layer.KindMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode(tt.raw)
			if tt.wantErr {
				if !layer.IsKind(err, tt.wantKind) {
					t.Fatalf("Decode() err = %v, want kind %v", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if tt.verify != nil {
				tt.verify(t, p)
			}
		})
	}
}

func TestBuildChecksumCorrection(t *testing.T) {
	l, err := NewBuilder().
		Type(128).
		Code(0).
		Body(layer.NewRawBuilder().Data([]byte{0xab, 0xcd, 0xef, 0x01})).
		PseudoHeader(testSrc, testDst).
		CorrectChecksumAtBuild(true).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// The built message must validate against the same pseudo-header.
	if got := checksum(testSrc, testDst, l.Serialize()); got != 0 {
		t.Errorf("built message does not validate: residual 0x%04X", got)
	}
}

func TestBuildChecksumCorrectionNeedsAddresses(t *testing.T) {
	_, err := NewBuilder().
		Type(128).
		CorrectChecksumAtBuild(true).
		Build()
	if !layer.IsKind(err, layer.KindInvalidBuilderState) {
		t.Errorf("Build() err = %v, want invalid builder state", err)
	}
}

func TestBuildExplicitChecksumKept(t *testing.T) {
	l, err := NewBuilder().Type(128).Checksum(0xbeef).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := l.(*Packet).Checksum(); got != 0xbeef {
		t.Errorf("Checksum() = 0x%04x, want the staged 0xbeef", got)
	}
}

func TestDecodeBuildRoundTrip(t *testing.T) {
	raw := []byte{128, 0, 0x55, 0xaa, 1, 2, 3}
	p, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	// Rebuilding without correction must reproduce the input verbatim,
	// checksum included.
	rebuilt, err := p.Builder().Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !bytes.Equal(rebuilt.Serialize(), raw) {
		t.Errorf("rebuild = %x, want %x", rebuilt.Serialize(), raw)
	}
}

func redirectBody() []byte {
	body := make([]byte, RedirectFixedSize)
	copy(body[offsetTarget:], testSrc)
	copy(body[offsetDestination:], testDst)
	return body
}

func TestDecodeRedirect(t *testing.T) {
	r, err := DecodeRedirect(redirectBody())
	if err != nil {
		t.Fatalf("DecodeRedirect() error = %v", err)
	}
	if !r.TargetAddr().Equal(testSrc) || !r.DestinationAddr().Equal(testDst) {
		t.Errorf("addresses = %s / %s", r.TargetAddr(), r.DestinationAddr())
	}
	if r.Payload() != nil {
		t.Error("redirect without options must have a nil payload")
	}
	if r.Length() != RedirectFixedSize {
		t.Errorf("Length() = %d, want %d", r.Length(), RedirectFixedSize)
	}
}

func TestDecodeRedirectShort(t *testing.T) {
	_, err := DecodeRedirect(make([]byte, RedirectFixedSize-1))
	if !layer.IsKind(err, layer.KindMalformedInput) {
		t.Errorf("DecodeRedirect() err = %v, want malformed input", err)
	}
}

func TestDecodeRedirectUnknownOption(t *testing.T) {
	// Option type 1 has no registered decoder; the option area must be
	// carried as an opaque raw layer.
	raw := append(redirectBody(), 0x01, 0x01, 0, 0, 0, 0, 0, 0)
	r, err := DecodeRedirect(raw)
	if err != nil {
		t.Fatalf("DecodeRedirect() error = %v", err)
	}
	if _, ok := r.Payload().(*layer.Raw); !ok {
		t.Fatalf("option area = %T, want *layer.Raw", r.Payload())
	}
	if !bytes.Equal(r.Serialize(), raw) {
		t.Errorf("Serialize() = %x, want %x", r.Serialize(), raw)
	}
}

func TestRedirectViaCommonHeader(t *testing.T) {
	raw := append([]byte{TypeRedirect, 0, 0, 0}, redirectBody()...)
	p, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, ok := p.Payload().(*Redirect); !ok {
		t.Fatalf("body = %T, want *Redirect", p.Payload())
	}
	if !bytes.Equal(p.Serialize(), raw) {
		t.Error("redirect round trip through the common header changed bytes")
	}
}

func TestRedirectBuilder(t *testing.T) {
	l, err := NewRedirectBuilder().
		TargetAddr(testSrc).
		DestinationAddr(testDst).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !bytes.Equal(l.Serialize(), redirectBody()) {
		t.Errorf("Serialize() = %x, want %x", l.Serialize(), redirectBody())
	}

	_, err = NewRedirectBuilder().TargetAddr(testSrc).Build()
	if !layer.IsKind(err, layer.KindInvalidBuilderState) {
		t.Errorf("Build() without destination: err = %v, want invalid builder state", err)
	}
}

package layer

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// fakeLayer is a minimal two-field layer used to exercise chain traversal
// without pulling in a real protocol package.
type fakeLayer struct {
	header  []byte
	payload Layer
	policy  CorrectionPolicy
}

func (f *fakeLayer) Serialize() []byte {
	out := append([]byte(nil), f.header...)
	if f.payload != nil {
		out = append(out, f.payload.Serialize()...)
	}
	return out
}

func (f *fakeLayer) Length() int { return len(f.Serialize()) }

func (f *fakeLayer) Payload() Layer { return f.payload }

func (f *fakeLayer) Malformed() bool { return false }

func (f *fakeLayer) Builder() Builder {
	b := &fakeBuilder{header: append([]byte(nil), f.header...), policy: f.policy}
	if f.payload != nil {
		b.payload = f.payload.Builder()
	}
	return b
}

func (f *fakeLayer) String() string { return fmt.Sprintf("fake{%x}", f.header) }

type fakeBuilder struct {
	header  []byte
	payload Builder
	policy  CorrectionPolicy
}

func (b *fakeBuilder) Build() (Layer, error) {
	l := &fakeLayer{header: append([]byte(nil), b.header...), policy: b.policy}
	if b.payload != nil {
		p, err := b.payload.Build()
		if err != nil {
			return nil, err
		}
		l.payload = p
	}
	return l, nil
}

func (b *fakeBuilder) PayloadBuilder() Builder { return b.payload }

func (b *fakeBuilder) SetPayload(p Builder) { b.payload = p }

func (b *fakeBuilder) Policy() *CorrectionPolicy { return &b.policy }

func TestEqual(t *testing.T) {
	a := NewRaw([]byte{1, 2, 3})
	b := NewRaw([]byte{1, 2, 3})
	c := NewRaw([]byte{1, 2, 4})

	tests := []struct {
		name string
		x, y Layer
		want bool
	}{
		{name: "same bytes", x: a, y: b, want: true},
		{name: "different bytes", x: a, y: c, want: false},
		{name: "both nil", x: nil, y: nil, want: true},
		{name: "one nil", x: a, y: nil, want: false},
		{name: "raw vs malformed same bytes", x: a, y: NewMalformed([]byte{1, 2, 3}, errors.New("x")), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.x, tt.y); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSum64ConsistentWithEqual(t *testing.T) {
	a := NewRaw([]byte{1, 2, 3})
	b := NewMalformed([]byte{1, 2, 3}, errors.New("boom"))
	if Sum64(a) != Sum64(b) {
		t.Error("layers with equal bytes must hash identically")
	}
	if Sum64(a) == Sum64(NewRaw([]byte{3, 2, 1})) {
		t.Error("layers with different bytes should hash differently")
	}
}

func TestContainsMalformed(t *testing.T) {
	clean := &fakeLayer{header: []byte{1}, payload: NewRaw([]byte{2})}
	dirty := &fakeLayer{header: []byte{1}, payload: &fakeLayer{
		header:  []byte{2},
		payload: NewMalformed([]byte{3}, errors.New("bad")),
	}}

	if ContainsMalformed(clean) {
		t.Error("clean chain reported as containing a sentinel")
	}
	if !ContainsMalformed(dirty) {
		t.Error("sentinel two levels deep was not found")
	}
	if ContainsMalformed(nil) {
		t.Error("nil chain reported as containing a sentinel")
	}
	if !ContainsMalformed(NewMalformed([]byte{1}, errors.New("bad"))) {
		t.Error("the sentinel itself must report true")
	}
}

func TestDisableCorrections(t *testing.T) {
	inner := &fakeBuilder{header: []byte{2}, policy: CorrectionPolicy{CorrectChecksum: true}}
	outer := &fakeBuilder{header: []byte{1}, payload: inner, policy: CorrectionPolicy{CorrectLength: true}}

	DisableCorrections(outer)

	if outer.policy.CorrectLength || outer.policy.CorrectChecksum {
		t.Error("outer policy still has corrections enabled")
	}
	if inner.policy.CorrectLength || inner.policy.CorrectChecksum {
		t.Error("inner policy still has corrections enabled")
	}
}

func TestSanitizedBuilder(t *testing.T) {
	cause := errors.New("truncated")
	l := &fakeLayer{
		header: []byte{0xaa},
		policy: CorrectionPolicy{CorrectLength: true},
		payload: &fakeLayer{
			header:  []byte{0xbb},
			payload: NewMalformed([]byte{0xcc, 0xdd}, cause),
		},
	}

	b := SanitizedBuilder(l)
	rebuilt, err := b.Build()
	if err != nil {
		t.Fatalf("Build() after sanitize error = %v", err)
	}

	if !bytes.Equal(rebuilt.Serialize(), l.Serialize()) {
		t.Errorf("sanitized rebuild changed bytes: got %x, want %x",
			rebuilt.Serialize(), l.Serialize())
	}
	if ContainsMalformed(rebuilt) {
		t.Error("sanitized rebuild still contains a sentinel")
	}

	// The sentinel position must now hold an opaque raw layer.
	terminal := rebuilt.Payload().Payload()
	if _, ok := terminal.(*Raw); !ok {
		t.Errorf("terminal layer = %T, want *Raw", terminal)
	}

	// Corrections must be cleared on the whole chain.
	if p := b.Policy(); p != nil && (p.CorrectLength || p.CorrectChecksum) {
		t.Error("sanitize left corrections enabled on the root builder")
	}
}

func TestSanitizedBuilderCleanChain(t *testing.T) {
	l := &fakeLayer{header: []byte{1}, payload: NewRaw([]byte{2, 3})}
	rebuilt, err := SanitizedBuilder(l).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !Equal(rebuilt, l) {
		t.Error("sanitizing a clean chain must be a lossless rebuild")
	}
}

func TestRawBuilder(t *testing.T) {
	l, err := NewRawBuilder().Data([]byte{1, 2}).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !bytes.Equal(l.Serialize(), []byte{1, 2}) {
		t.Errorf("Serialize() = %x, want 0102", l.Serialize())
	}

	_, err = NewRawBuilder().Build()
	if !IsKind(err, KindInvalidBuilderState) {
		t.Errorf("Build() without data: err = %v, want invalid builder state", err)
	}
}

func TestMalformedRoundTrip(t *testing.T) {
	cause := errors.New("no good")
	m := NewMalformed([]byte{9, 9, 9}, cause)

	if !m.Malformed() {
		t.Fatal("sentinel must report Malformed")
	}
	if m.Cause() != cause {
		t.Errorf("Cause() = %v, want %v", m.Cause(), cause)
	}

	rebuilt, err := m.Builder().Build()
	if err != nil {
		t.Fatalf("sentinel Build() error = %v", err)
	}
	if !rebuilt.Malformed() || !bytes.Equal(rebuilt.Serialize(), m.Serialize()) {
		t.Error("sentinel rebuild must reproduce the sentinel verbatim")
	}
}

func TestSerializeNeverAliases(t *testing.T) {
	src := []byte{1, 2, 3}
	r := NewRaw(src)
	src[0] = 0xff
	if r.Serialize()[0] != 1 {
		t.Error("NewRaw retained the caller's buffer")
	}

	out := r.Serialize()
	out[1] = 0xff
	if r.Serialize()[1] != 2 {
		t.Error("Serialize returned an alias of internal state")
	}
}

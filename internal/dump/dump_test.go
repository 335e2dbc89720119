package dump

import (
	"errors"
	"strings"
	"testing"

	"github.com/muurk/stratum/internal/layer"
)

func TestRenderPlain(t *testing.T) {
	l := layer.NewRaw([]byte{1, 2, 3})

	out := NewRenderer("never").Render(l)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Render() produced %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "Raw{") {
		t.Errorf("first line = %q, want the layer summary", lines[0])
	}
	if lines[1] != "3 bytes total" {
		t.Errorf("total line = %q, want %q", lines[1], "3 bytes total")
	}
}

func TestRenderMalformed(t *testing.T) {
	m := layer.NewMalformed([]byte{9}, errors.New("bad"))

	out := NewRenderer("never").Render(m)
	if !strings.Contains(out, "Malformed{") {
		t.Errorf("Render() = %q, missing the sentinel summary", out)
	}
}

func TestRenderStyledDiffersFromPlain(t *testing.T) {
	l := layer.NewRaw([]byte{1})

	plain := NewRenderer("never").Render(l)
	styled := NewRenderer("always").Render(l)
	if styled == plain {
		t.Skip("styling inactive in this environment")
	}
	if !strings.Contains(stripAnsi(styled), "Raw{") {
		t.Errorf("styled output lost the layer summary: %q", styled)
	}
}

func stripAnsi(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

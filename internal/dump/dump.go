// Package dump renders decoded layer chains for terminal output. Styling
// follows the terminal: colors are applied only when stdout is a tty, unless
// forced on or off.
package dump

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/muurk/stratum/internal/layer"
)

// Color palette for layer dumps
var (
	layerColor     = lipgloss.Color("#7D56F4") // Purple - layer headings
	malformedColor = lipgloss.Color("#FF5555") // Red - contained sentinels
	mutedColor     = lipgloss.Color("#626262") // Gray - byte counts, hex
)

var (
	layerStyle     = lipgloss.NewStyle().Foreground(layerColor).Bold(true)
	malformedStyle = lipgloss.NewStyle().Foreground(malformedColor)
	mutedStyle     = lipgloss.NewStyle().Foreground(mutedColor)
)

const indentStep = "  "

// Renderer renders layer chains as indented text trees.
type Renderer struct {
	styled bool
}

// NewRenderer returns a renderer for the given color mode: "always",
// "never", or anything else for tty auto-detection.
func NewRenderer(colorMode string) *Renderer {
	switch colorMode {
	case "always":
		return &Renderer{styled: true}
	case "never":
		return &Renderer{styled: false}
	default:
		return &Renderer{styled: term.IsTerminal(int(os.Stdout.Fd()))}
	}
}

// Render walks the nested chain starting at l and returns one indented line
// per layer, with a trailing total byte count.
func (r *Renderer) Render(l layer.Layer) string {
	var sb strings.Builder
	depth := 0
	for cur := l; cur != nil; cur = cur.Payload() {
		line := cur.String()
		if r.styled {
			if cur.Malformed() {
				line = malformedStyle.Render(line)
			} else {
				line = layerStyle.Render(line)
			}
		}
		sb.WriteString(strings.Repeat(indentStep, depth))
		sb.WriteString(line)
		sb.WriteString("\n")
		depth++
	}

	total := fmt.Sprintf("%d bytes total", l.Length())
	if r.styled {
		total = mutedStyle.Render(total)
	}
	sb.WriteString(total)
	sb.WriteString("\n")
	return sb.String()
}

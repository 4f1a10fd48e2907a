package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorMode selects when changed values are highlighted.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts auto, always or never (case-insensitive).
func ParseColorMode(s string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
	}
}

// Highlighter marks a changed value pair: the value being replaced in red and
// the value being written in green.
type Highlighter struct {
	removed lipgloss.Style
	added   lipgloss.Style
	enabled bool
}

// NewHighlighter builds styles for output written to w.
func NewHighlighter(w io.Writer, mode ColorMode) *Highlighter {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case ColorAlways:
		r.SetColorProfile(termenv.ANSI)
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	}
	return &Highlighter{
		removed: r.NewStyle().Foreground(lipgloss.Color("1")),
		added:   r.NewStyle().Foreground(lipgloss.Color("2")),
		enabled: r.ColorProfile() != termenv.Ascii,
	}
}

// Plain returns a highlighter that never adds escape sequences.
func Plain() *Highlighter {
	return &Highlighter{}
}

// Enabled reports whether Pair emits escape sequences.
func (h *Highlighter) Enabled() bool {
	return h != nil && h.enabled
}

// Pair styles existing and desired when they differ.
func (h *Highlighter) Pair(existing, desired string) (string, string) {
	if !h.Enabled() || existing == desired {
		return existing, desired
	}
	return h.removed.Render(existing), h.added.Render(desired)
}

package ui

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var stylesContent []byte

// ColorDef represents an adaptive color definition in YAML
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef represents a style definition in YAML
type StyleDef struct {
	Bold       bool   `yaml:"bold,omitempty"`
	Italic     bool   `yaml:"italic,omitempty"`
	Underline  bool   `yaml:"underline,omitempty"`
	Foreground string `yaml:"foreground,omitempty"`
	Background string `yaml:"background,omitempty"`
}

// StyleSheet maps semantic names to lipgloss styles
type StyleSheet struct {
	styles map[string]lipgloss.Style
}

// ParseStyles builds a StyleSheet from YAML with colors and styles sections.
// Styles referencing an unknown color keep the terminal default.
func ParseStyles(data []byte) (*StyleSheet, error) {
	var raw struct {
		Colors map[string]ColorDef `yaml:"colors"`
		Styles map[string]StyleDef `yaml:"styles"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse styles: %w", err)
	}

	colors := make(map[string]lipgloss.AdaptiveColor, len(raw.Colors))
	for name, def := range raw.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	sheet := &StyleSheet{styles: make(map[string]lipgloss.Style, len(raw.Styles))}
	for name, def := range raw.Styles {
		sheet.styles[name] = buildStyle(def, colors)
	}
	return sheet, nil
}

// DefaultStyles returns the built-in style sheet
func DefaultStyles() *StyleSheet {
	sheet, err := ParseStyles(stylesContent)
	if err != nil {
		panic(fmt.Sprintf("failed to load styles: %v", err))
	}
	return sheet
}

func buildStyle(def StyleDef, colors map[string]lipgloss.AdaptiveColor) lipgloss.Style {
	style := lipgloss.NewStyle()
	if def.Bold {
		style = style.Bold(true)
	}
	if def.Italic {
		style = style.Italic(true)
	}
	if def.Underline {
		style = style.Underline(true)
	}
	if color, ok := colors[def.Foreground]; ok {
		style = style.Foreground(color)
	}
	if color, ok := colors[def.Background]; ok {
		style = style.Background(color)
	}
	return style
}

// Get returns the named style, or a plain style when it is not defined
func (s *StyleSheet) Get(name string) lipgloss.Style {
	if style, ok := s.styles[name]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// Render applies the named style to text
func (s *StyleSheet) Render(name, text string) string {
	return s.Get(name).Render(text)
}

// Has reports whether the style is defined
func (s *StyleSheet) Has(name string) bool {
	_, ok := s.styles[name]
	return ok
}

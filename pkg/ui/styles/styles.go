// Package styles maps semantic style names used by configsync's terminal
// output to lipgloss styles. The palette lives in an embedded YAML file and
// uses adaptive colors so output reads on light and dark terminals alike.
package styles

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

// Semantic style names
const (
	Header   = "Header"
	Success  = "Success"
	Warning  = "Warning"
	Error    = "Error"
	Info     = "Info"
	Muted    = "Muted"
	FilePath = "FilePath"
	Hash     = "Hash"
	Label    = "Label"
)

// ColorDef is an adaptive color as written in YAML
type ColorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// StyleDef is a style as written in YAML
type StyleDef struct {
	Bold       bool   `yaml:"bold,omitempty"`
	Italic     bool   `yaml:"italic,omitempty"`
	Underline  bool   `yaml:"underline,omitempty"`
	Foreground string `yaml:"foreground,omitempty"`
	Background string `yaml:"background,omitempty"`
	Width      int    `yaml:"width,omitempty"`
}

// Config is the complete styles document
type Config struct {
	Colors map[string]ColorDef `yaml:"colors"`
	Styles map[string]StyleDef `yaml:"styles"`
}

//go:embed styles.yaml
var embeddedStyles []byte

var registry map[string]lipgloss.Style

func init() {
	if err := Load(embeddedStyles); err != nil {
		registry = map[string]lipgloss.Style{}
	}
}

// Load replaces the registry with the styles described by data
func Load(data []byte) error {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse styles: %w", err)
	}

	colors := make(map[string]lipgloss.AdaptiveColor, len(cfg.Colors))
	for name, def := range cfg.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	reg := make(map[string]lipgloss.Style, len(cfg.Styles))
	for name, def := range cfg.Styles {
		style, err := build(def, colors)
		if err != nil {
			return fmt.Errorf("style %s: %w", name, err)
		}
		reg[name] = style
	}
	registry = reg
	return nil
}

func build(def StyleDef, colors map[string]lipgloss.AdaptiveColor) (lipgloss.Style, error) {
	style := lipgloss.NewStyle().
		Bold(def.Bold).
		Italic(def.Italic).
		Underline(def.Underline)

	if def.Foreground != "" {
		color, ok := colors[def.Foreground]
		if !ok {
			return style, fmt.Errorf("unknown color %q", def.Foreground)
		}
		style = style.Foreground(color)
	}
	if def.Background != "" {
		color, ok := colors[def.Background]
		if !ok {
			return style, fmt.Errorf("unknown color %q", def.Background)
		}
		style = style.Background(color)
	}
	if def.Width > 0 {
		style = style.Width(def.Width)
	}
	return style, nil
}

// Get returns the named style, or a plain one if the name is unknown
func Get(name string) lipgloss.Style {
	if style, ok := registry[name]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// Render applies the named style to text
func Render(name, text string) string {
	return Get(name).Render(text)
}

// SetNoColor forces plain output when disabled is true and restores
// terminal detection otherwise
func SetNoColor(disabled bool) {
	if disabled {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

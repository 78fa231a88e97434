// Package styles holds the colour palette and shared render helpers.
package styles

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// ColorToken names a themable colour.
type ColorToken string

const (
	TokenTextPrimary      ColorToken = "text.primary"
	TokenTextSecondary    ColorToken = "text.secondary"
	TokenTextMuted        ColorToken = "text.muted"
	TokenBorderDefault    ColorToken = "border.default"
	TokenBorderFocus      ColorToken = "border.focus"
	TokenStatusError      ColorToken = "status.error"
	TokenStatusWarning    ColorToken = "status.warning"
	TokenStatusInfo       ColorToken = "status.info"
	TokenOverlayTitle     ColorToken = "overlay.title"
	TokenOverlayBorder    ColorToken = "overlay.border"
	TokenStateSuccess     ColorToken = "state.success"
	TokenStateValidation  ColorToken = "state.validation"
	TokenStateServerError ColorToken = "state.server_error"
	TokenStateForeground  ColorToken = "state.foreground"
)

// Palette colours. ApplyTheme rewrites them in place.
var (
	TextPrimaryColor          = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#EEEEEE"}
	TextSecondaryColor        = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor            = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#696969"}
	BorderDefaultColor        = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#696969"}
	BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	StatusErrorColor          = lipgloss.AdaptiveColor{Light: "#D63031", Dark: "#FF8787"}
	StatusWarningColor        = lipgloss.AdaptiveColor{Light: "#E67E22", Dark: "#FECA57"}
	StatusInfoColor           = lipgloss.AdaptiveColor{Light: "#0984E3", Dark: "#54A0FF"}
	OverlayTitleColor         = lipgloss.AdaptiveColor{Light: "#6C5CE7", Dark: "#C9C9C9"}
	OverlayBorderColor        = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#8C8C8C"}

	// Field background colours per submission outcome.
	StateSuccessColor     = lipgloss.AdaptiveColor{Light: "#90EE90", Dark: "#90EE90"}
	StateValidationColor  = lipgloss.AdaptiveColor{Light: "#F08080", Dark: "#F08080"}
	StateServerErrorColor = lipgloss.AdaptiveColor{Light: "#FFFFE0", Dark: "#FFFFE0"}
	StateForegroundColor  = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#1A1A1A"}
)

func tokenTargets() map[ColorToken]*lipgloss.AdaptiveColor {
	return map[ColorToken]*lipgloss.AdaptiveColor{
		TokenTextPrimary:      &TextPrimaryColor,
		TokenTextSecondary:    &TextSecondaryColor,
		TokenTextMuted:        &TextMutedColor,
		TokenBorderDefault:    &BorderDefaultColor,
		TokenBorderFocus:      &BorderHighlightFocusColor,
		TokenStatusError:      &StatusErrorColor,
		TokenStatusWarning:    &StatusWarningColor,
		TokenStatusInfo:       &StatusInfoColor,
		TokenOverlayTitle:     &OverlayTitleColor,
		TokenOverlayBorder:    &OverlayBorderColor,
		TokenStateSuccess:     &StateSuccessColor,
		TokenStateValidation:  &StateValidationColor,
		TokenStateServerError: &StateServerErrorColor,
		TokenStateForeground:  &StateForegroundColor,
	}
}

// Preset is a named set of token colours.
type Preset struct {
	Name        string
	Description string
	Colors      map[ColorToken]string
}

// DefaultPreset matches the built-in palette.
var DefaultPreset = Preset{
	Name:        "default",
	Description: "Dark terminal palette",
	Colors: map[ColorToken]string{
		TokenTextPrimary:      "#EEEEEE",
		TokenTextSecondary:    "#BBBBBB",
		TokenTextMuted:        "#696969",
		TokenBorderDefault:    "#696969",
		TokenBorderFocus:      "#54A0FF",
		TokenStatusError:      "#FF8787",
		TokenStatusWarning:    "#FECA57",
		TokenStatusInfo:       "#54A0FF",
		TokenOverlayTitle:     "#C9C9C9",
		TokenOverlayBorder:    "#8C8C8C",
		TokenStateSuccess:     "#90EE90",
		TokenStateValidation:  "#F08080",
		TokenStateServerError: "#FFFFE0",
		TokenStateForeground:  "#1A1A1A",
	},
}

// Presets lists the selectable presets by name.
var Presets = map[string]Preset{
	"default": DefaultPreset,
	"light": {
		Name:        "light",
		Description: "Light terminal palette",
		Colors: map[ColorToken]string{
			TokenTextPrimary:   "#1A1A1A",
			TokenTextSecondary: "#555555",
			TokenTextMuted:     "#8A8A8A",
			TokenBorderDefault: "#AAAAAA",
			TokenOverlayTitle:  "#6C5CE7",
			TokenOverlayBorder: "#AAAAAA",
		},
	},
}

// ThemeConfig selects a preset and per-token overrides ("state.success": "#00FF00").
type ThemeConfig struct {
	Preset string            `mapstructure:"preset" yaml:"preset,omitempty"`
	Colors map[string]string `mapstructure:"colors" yaml:"colors,omitempty"`
}

var hexColorRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func isValidHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

func isValidToken(t ColorToken) bool {
	_, ok := tokenTargets()[t]
	return ok
}

// ApplyTheme resets the palette to DefaultPreset, then applies the chosen
// preset and overrides on top.
func ApplyTheme(cfg ThemeConfig) error {
	resolved := make(map[ColorToken]string, len(DefaultPreset.Colors))
	for tok, c := range DefaultPreset.Colors {
		resolved[tok] = c
	}

	if cfg.Preset != "" {
		preset, ok := Presets[cfg.Preset]
		if !ok {
			return fmt.Errorf("unknown theme preset %q", cfg.Preset)
		}
		for tok, c := range preset.Colors {
			resolved[tok] = c
		}
	}

	// Sorted for deterministic error reporting
	keys := make([]string, 0, len(cfg.Colors))
	for k := range cfg.Colors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tok := ColorToken(k)
		if !isValidToken(tok) {
			return fmt.Errorf("unknown color token %q", k)
		}
		c := cfg.Colors[k]
		if !isValidHexColor(c) {
			return fmt.Errorf("invalid hex color %q for %s", c, k)
		}
		resolved[tok] = c
	}

	for tok, target := range tokenTargets() {
		if c, ok := resolved[tok]; ok {
			target.Light = c
			target.Dark = c
		}
	}
	return nil
}

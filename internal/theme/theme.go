// Package theme derives the full storefront UI palette from the two or three
// seed colors stored on a business profile. Every function is total: bad
// input falls back to a usable value with a warning, never an error, because
// derivation runs on every page render.
package theme

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nightglass/storefront/pkg/logging"
)

// Per-field defaults applied when a business has not picked a color.
const (
	DefaultBackground = "#FFFFFF"
	DefaultText       = "#000000"
	DefaultButton     = "#000000"
)

// Seed is the resolved set of theme colors for one business. Fields are
// always well-formed "#RRGGBB" strings after ResolveSeed.
type Seed struct {
	Background string
	Text       string
	Button     string
}

// ResolveSeed fills in defaults for missing or malformed upstream values so
// the rest of the pipeline never sees an optional field.
func ResolveSeed(background, text, button string) Seed {
	return Seed{
		Background: normalizeOr(background, DefaultBackground),
		Text:       normalizeOr(text, DefaultText),
		Button:     normalizeOr(button, DefaultButton),
	}
}

func normalizeOr(hex, fallback string) string {
	if !validHex(hex) {
		return fallback
	}
	return strings.ToUpper(hex)
}

// Palette is the derived, immutable UI color set. It is recomputed wholesale
// whenever the seed changes; nothing mutates it afterward.
type Palette struct {
	Background          string
	BackgroundSecondary string
	BackgroundCard      string
	PillBackground      string
	Text                string
	TextRGB             string
	Button              string
	ButtonContentColor  string
	Border              string
	CardShadow          string
	IsDarkBackground    bool
}

// Deriver performs palette derivation with a logger for fail-closed warnings.
type Deriver struct {
	logger *logging.Logger
}

// NewDeriver constructs a palette deriver.
func NewDeriver(logger *logging.Logger) *Deriver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Deriver{logger: logger.Component("theme")}
}

// Derive maps a seed to the full palette. Calling it twice with the same
// seed yields identical output.
func (d *Deriver) Derive(seed Seed) Palette {
	bg := normalizeOr(seed.Background, DefaultBackground)
	text := normalizeOr(seed.Text, DefaultText)
	button := normalizeOr(seed.Button, DefaultButton)

	isDark := IsDarkHex(bg)

	r, g, b, _ := HexToRGB(text)
	textRGB := fmt.Sprintf("%d,%d,%d", r, g, b)

	shadow := "rgba(0,0,0,0.10)"
	if isDark {
		shadow = "rgba(0,0,0,0.45)"
	}

	return Palette{
		Background:          bg,
		BackgroundSecondary: d.Adjust(bg, isDark, 0.08, 0.05),
		BackgroundCard:      d.Adjust(bg, isDark, 0.12, 0.03),
		PillBackground:      d.Adjust(bg, isDark, 0.18, 0.08),
		Text:                text,
		TextRGB:             textRGB,
		Button:              button,
		ButtonContentColor:  ButtonContentColor(button),
		Border:              fmt.Sprintf("rgba(%s,0.15)", textRGB),
		CardShadow:          shadow,
		IsDarkBackground:    isDark,
	}
}

// CSSVariables renders the palette as the custom properties the storefront
// templates consume.
func (p Palette) CSSVariables() map[string]string {
	return map[string]string{
		"--background":           p.Background,
		"--background-secondary": p.BackgroundSecondary,
		"--background-card":      p.BackgroundCard,
		"--pill-background":      p.PillBackground,
		"--text":                 p.Text,
		"--text-rgb":             p.TextRGB,
		"--button":               p.Button,
		"--button-content":       p.ButtonContentColor,
		"--border":               p.Border,
		"--card-shadow":          p.CardShadow,
	}
}

// IsDarkHex reports whether a background color counts as "dark". It parses
// the hex as a 24-bit integer and compares against the midpoint of the full
// range. This is a crude brightness approximation, not perceptual luminance;
// kept as-is because the light/dark split of existing storefronts depends on
// exactly this boundary.
func IsDarkHex(hex string) bool {
	if !validHex(hex) {
		return false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return false
	}
	return float64(v) < float64(0xFFFFFF)/2
}

// ButtonContentColor picks black or white text for a button background using
// perceptual luminance. Deliberately a different formula than IsDarkHex.
func ButtonContentColor(buttonHex string) string {
	r, g, b, ok := HexToRGB(buttonHex)
	if !ok {
		return "white"
	}
	luminance := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
	if luminance > 0.5 {
		return "black"
	}
	return "white"
}

// Lighten interpolates each channel toward white by percent (0..1). Invalid
// input is returned unchanged with a warning.
func (d *Deriver) Lighten(hex string, percent float64) string {
	r, g, b, ok := HexToRGB(hex)
	if !ok {
		d.logger.Warn("lighten called with invalid hex color", "hex", hex)
		return hex
	}
	return rgbToHex(blendChannel(r, 255, percent), blendChannel(g, 255, percent), blendChannel(b, 255, percent))
}

// Darken interpolates each channel toward black by percent (0..1). Invalid
// input is returned unchanged with a warning.
func (d *Deriver) Darken(hex string, percent float64) string {
	r, g, b, ok := HexToRGB(hex)
	if !ok {
		d.logger.Warn("darken called with invalid hex color", "hex", hex)
		return hex
	}
	return rgbToHex(blendChannel(r, 0, percent), blendChannel(g, 0, percent), blendChannel(b, 0, percent))
}

// Adjust derives a secondary tone that stays legible against the primary
// background: on dark backgrounds blend toward white, on light backgrounds
// toward black.
func (d *Deriver) Adjust(hex string, isDark bool, darkAdjust, lightAdjust float64) string {
	if isDark {
		return d.Lighten(hex, darkAdjust)
	}
	return d.Darken(hex, lightAdjust)
}

// HexToRGB strictly parses a "#RRGGBB" string into its channels.
func HexToRGB(hex string) (r, g, b int, ok bool) {
	if !validHex(hex) {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF), true
}

func validHex(hex string) bool {
	if len(hex) != 7 || hex[0] != '#' {
		return false
	}
	for _, c := range hex[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func blendChannel(from, to int, percent float64) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	v := int(float64(from) + (float64(to)-float64(from))*percent + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func rgbToHex(r, g, b int) string {
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// Package theme derives a stable colour pair for a diary date key.
//
// The same key always maps to the same colours, and the text colour meets a
// WCAG contrast ratio of at least 4.5 against the background for every key
// the generator can produce.
package theme

import (
	"fmt"
	"hash/fnv"
	"math"
)

// Theme is a background/text colour pair in #rrggbb form.
type Theme struct {
	Background string `json:"backgroundColor"`
	Text       string `json:"textColor"`
}

const (
	saturation     = 0.62
	baseLightness  = 0.42
	lightnessStep  = 0.03
	maxAdjustments = 30
	targetContrast = 4.5

	white = "#ffffff"
	black = "#000000"
)

type rgb struct {
	r, g, b uint8
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

// ForKey returns the theme for key.
func ForKey(key string) Theme {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	seed := h.Sum32()

	hue := float64(seed % 360)
	lightness := baseLightness + float64((seed>>8)%20)/100

	bg := hslToRGB(hue, saturation, lightness)
	text := bestText(bg)

	for range maxAdjustments {
		if Contrast(textLuminance(text), luminance(bg)) >= targetContrast {
			break
		}

		if text == white {
			lightness = math.Max(0, lightness-lightnessStep)
		} else {
			lightness = math.Min(1, lightness+lightnessStep)
		}

		bg = hslToRGB(hue, saturation, lightness)
		text = bestText(bg)
	}

	return Theme{Background: bg.hex(), Text: text}
}

// Contrast returns the WCAG contrast ratio between two relative luminances.
func Contrast(l1, l2 float64) float64 {
	if l1 < l2 {
		l1, l2 = l2, l1
	}

	return (l1 + 0.05) / (l2 + 0.05)
}

// Luminance returns the WCAG relative luminance of a #rrggbb colour.
// Malformed input is treated as black.
func Luminance(hex string) float64 {
	var c rgb

	_, err := fmt.Sscanf(hex, "#%02x%02x%02x", &c.r, &c.g, &c.b)
	if err != nil || len(hex) != 7 {
		return 0
	}

	return luminance(c)
}

func textLuminance(text string) float64 {
	if text == white {
		return 1
	}

	return 0
}

func bestText(bg rgb) string {
	l := luminance(bg)
	if Contrast(1, l) >= Contrast(0, l) {
		return white
	}

	return black
}

func luminance(c rgb) float64 {
	return 0.2126*linear(c.r) + 0.7152*linear(c.g) + 0.0722*linear(c.b)
}

func linear(v uint8) float64 {
	f := float64(v) / 255
	if f <= 0.04045 {
		return f / 12.92
	}

	return math.Pow((f+0.055)/1.055, 2.4)
}

func hslToRGB(h, s, l float64) rgb {
	c := (1 - math.Abs(2*l-1)) * s
	hp := math.Mod(h, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64

	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	m := l - c/2

	return rgb{
		r: uint8(math.Round((r + m) * 255)),
		g: uint8(math.Round((g + m) * 255)),
		b: uint8(math.Round((b + m) * 255)),
	}
}

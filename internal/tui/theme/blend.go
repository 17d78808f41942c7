package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Blend mixes from toward to by t, where 0 is from and 1 is to. The light
// and dark variants are blended separately in Lab space. A variant that is
// not a hex color is returned from from unchanged.
func Blend(from, to lipgloss.AdaptiveColor, t float64) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{
		Light: blendHex(from.Light, to.Light, t),
		Dark:  blendHex(from.Dark, to.Dark, t),
	}
}

func blendHex(from, to string, t float64) string {
	c1, err := colorful.Hex(from)
	if err != nil {
		return from
	}
	c2, err := colorful.Hex(to)
	if err != nil {
		return from
	}
	return c1.BlendLab(c2, t).Clamped().Hex()
}

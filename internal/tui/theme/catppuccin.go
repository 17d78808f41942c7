package theme

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// DefaultTheme is the flavor used when the configuration names none.
const DefaultTheme = "mocha"

func init() {
	for _, flavor := range []catppuccin.Flavor{
		catppuccin.Mocha,
		catppuccin.Macchiato,
		catppuccin.Frappe,
		catppuccin.Latte,
	} {
		RegisterTheme(flavor.Name(), NewCatppuccinTheme(flavor))
	}
	_ = SetTheme(DefaultTheme)
}

// NewCatppuccinTheme pairs dark with Latte for light terminals.
func NewCatppuccinTheme(dark catppuccin.Flavor) *BaseTheme {
	light := catppuccin.Latte
	pick := func(c func(catppuccin.Flavor) catppuccin.Color) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: c(light).Hex, Dark: c(dark).Hex}
	}

	return &BaseTheme{
		name: dark.Name(),

		BackgroundColor:        pick(catppuccin.Flavor.Base),
		BackgroundPanelColor:   pick(catppuccin.Flavor.Mantle),
		BackgroundElementColor: pick(catppuccin.Flavor.Surface0),

		BorderSubtleColor: pick(catppuccin.Flavor.Surface1),
		BorderColor:       pick(catppuccin.Flavor.Overlay0),
		BorderActiveColor: pick(catppuccin.Flavor.Lavender),

		PrimaryColor:   pick(catppuccin.Flavor.Mauve),
		SecondaryColor: pick(catppuccin.Flavor.Blue),
		AccentColor:    pick(catppuccin.Flavor.Peach),

		TextMutedColor: pick(catppuccin.Flavor.Subtext0),
		TextColor:      pick(catppuccin.Flavor.Text),

		ErrorColor:   pick(catppuccin.Flavor.Red),
		WarningColor: pick(catppuccin.Flavor.Yellow),
		SuccessColor: pick(catppuccin.Flavor.Green),
		InfoColor:    pick(catppuccin.Flavor.Sky),
	}
}

package theme

import (
	"testing"

	catppuccin "github.com/catppuccin/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatppuccinThemesRegistered(t *testing.T) {
	assert.Equal(t, []string{"frappe", "latte", "macchiato", "mocha"}, AvailableThemes())

	mocha := GetTheme("mocha")
	require.NotNil(t, mocha)
	assert.Equal(t, "mocha", mocha.Name())
	assert.Equal(t, catppuccin.Mocha.Mauve().Hex, mocha.Primary().Dark)
	assert.Equal(t, catppuccin.Latte.Mauve().Hex, mocha.Primary().Light)
}

func TestSetTheme(t *testing.T) {
	t.Cleanup(func() { _ = SetTheme(DefaultTheme) })

	require.NoError(t, SetTheme("frappe"))
	assert.Equal(t, "frappe", CurrentThemeName())
	assert.Equal(t, catppuccin.Frappe.Text().Hex, CurrentTheme().Text().Dark)

	assert.Error(t, SetTheme("solarized"))
	assert.Equal(t, "frappe", CurrentThemeName())
}

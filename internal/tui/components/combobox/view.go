package combobox

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sst/modforge/internal/tui/styles"
	"github.com/sst/modforge/internal/tui/util"
)

const (
	chipRegion  = "chip"
	clearRegion = "clear"
)

// View renders the field on one line: selected chips in multi mode, the
// text input, then the clear control and a caret. Chip and clear regions
// are recorded relative to the field's top-left cell.
func (c *comboboxComponent) View() string {
	c.fieldHits.Clear()

	var b strings.Builder
	pos := 0

	if c.sel.Multi() {
		for _, o := range c.sel.Selected() {
			chip := c.renderChip(o)
			w := lipgloss.Width(chip)
			if pos+w >= c.width/2 && pos > 0 {
				more := styles.Muted().Render("… ")
				b.WriteString(more)
				pos += lipgloss.Width(more)
				break
			}
			b.WriteString(chip)
			if !c.disabled {
				c.fieldHits.AddRect(chipRegion, pos, 0, w, 1, o.ID)
			}
			pos += w
			b.WriteString(" ")
			pos++
		}
	}

	trailer := " " + styles.CaretIcon
	showClear := c.clearable && !c.disabled && len(c.sel.Selected()) > 0
	if showClear {
		trailer = " " + styles.ClearIcon + trailer
	}
	trailerWidth := lipgloss.Width(trailer)

	inputWidth := max(c.width-pos-trailerWidth-1, 1)
	c.input.Width = inputWidth
	text := c.input.View()
	if c.disabled {
		text = styles.Disabled().Render(util.Ellipsize(c.input.Value(), inputWidth))
	}
	text = lipgloss.NewStyle().Width(inputWidth + 1).Render(text)
	b.WriteString(text)
	pos += lipgloss.Width(text)

	if showClear {
		c.fieldHits.AddRect(clearRegion, pos+1, 0, lipgloss.Width(styles.ClearIcon), 1, nil)
	}
	b.WriteString(styles.Muted().Render(trailer))

	return c.anchor.Mark(b.String())
}

func (c *comboboxComponent) renderChip(o Option) string {
	label := util.Ellipsize(c.label(o), max(c.width/4, 4))
	if c.disabled {
		return styles.Disabled().Render(label)
	}
	return styles.Chip().Render(label + " " + styles.RemoveIcon)
}

package combobox

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sst/modforge/internal/tui/layout"
	"github.com/sst/modforge/internal/tui/mouse"
	"github.com/sst/modforge/internal/tui/styles"
	"github.com/sst/modforge/internal/tui/util"
)

// Anchor measures where the input field was last drawn on screen.
type Anchor interface {
	// Mark wraps the rendered field so it can be measured.
	Mark(view string) string
	// Bounds returns the field rectangle, or false before it was measured.
	Bounds() (mouse.Rect, bool)
}

// zoneAnchor measures the field through the global bubblezone manager. The
// root model has to pass its final view through zone.Scan.
type zoneAnchor struct {
	id string
}

func newZoneAnchor(id string) *zoneAnchor {
	zone.NewGlobal()
	return &zoneAnchor{id: id}
}

func (a *zoneAnchor) Mark(view string) string {
	return zone.Mark(a.id, view)
}

func (a *zoneAnchor) Bounds() (mouse.Rect, bool) {
	z := zone.Get(a.id)
	if z == nil || z.IsZero() {
		return mouse.Rect{}, false
	}
	return mouse.Rect{
		X: z.StartX,
		Y: z.StartY,
		W: z.EndX - z.StartX + 1,
		H: z.EndY - z.StartY + 1,
	}, true
}

func (a *zoneAnchor) Release() {
	zone.Clear(a.id)
}

// placement computes the dropdown rectangle from the anchor: same left edge
// and width as the field, top edge on the field's bottom edge, shifted by
// the host's scroll offset. Height is filled in at render time.
func placement(anchor mouse.Rect, scrollX, scrollY int) mouse.Rect {
	return mouse.Rect{
		X: anchor.X + scrollX,
		Y: anchor.Y + anchor.H + scrollY,
		W: anchor.W,
	}
}

const (
	rowRegion = "row"

	noOptionsText = "No options"
)

// reposition recomputes the dropdown placement from the live anchor.
func (c *comboboxComponent) reposition() {
	bounds, ok := c.anchor.Bounds()
	if !ok {
		c.placed = false
		return
	}
	c.place = placement(bounds, c.scrollX, c.scrollY)
	c.placed = true
}

// visibleWindow returns the half-open range of rows to draw so that the
// highlighted row stays in view.
func (c *comboboxComponent) visibleWindow() (int, int) {
	rows := c.result.Rows
	if len(rows) <= c.maxVisible {
		c.offset = 0
		return 0, len(rows)
	}

	target := -1
	for i, row := range rows {
		if row.Kind != RowGroupHeader && row.Index == c.highlight {
			target = i
			break
		}
	}
	// keep a header visible above the first option of its group
	if target > 0 && rows[target-1].Kind == RowGroupHeader && target-1 < c.offset {
		c.offset = target - 1
	}
	if target >= 0 {
		if target < c.offset {
			c.offset = target
		}
		if target >= c.offset+c.maxVisible {
			c.offset = target - c.maxVisible + 1
		}
	}
	c.offset = util.Clamp(c.offset, 0, len(rows)-c.maxVisible)
	return c.offset, c.offset + c.maxVisible
}

// renderPopup draws the visible rows and records their hit regions in
// placement coordinates.
func (c *comboboxComponent) renderPopup(width int) string {
	c.popupMouse.Clear()

	if len(c.result.Rows) == 0 {
		return styles.Panel().Width(width).Render(styles.Muted().Render(" " + noOptionsText))
	}

	start, end := c.visibleWindow()
	selected := c.sel.Selected()

	lines := make([]string, 0, end-start)
	for i, row := range c.result.Rows[start:end] {
		lines = append(lines, c.renderRow(row, width, containsID(selected, row.Option.ID)))
		if row.Kind != RowGroupHeader {
			c.popupMouse.HitMap.AddRect(rowRegion, c.place.X, c.place.Y+i, width, 1, row.Index)
		}
	}
	return strings.Join(lines, "\n")
}

func (c *comboboxComponent) renderRow(row Row, width int, selected bool) string {
	switch row.Kind {
	case RowGroupHeader:
		label := row.Group
		if label == "" {
			label = "Other"
		}
		return styles.GroupHeader().Width(width).Render(util.Ellipsize(" "+label, width))
	case RowFreeSolo:
		text := fmt.Sprintf(" %s Add %q", styles.AddIcon, row.Option.Name)
		style := styles.Panel()
		if row.Index == c.highlight {
			style = styles.Highlighted()
		}
		return style.Width(width).Render(util.Ellipsize(text, width))
	}

	marker := "  "
	if selected {
		marker = styles.CheckIcon + " "
	}
	label := marker + c.label(row.Option)

	style := styles.Panel()
	switch {
	case row.Index == c.highlight:
		style = styles.Highlighted()
	case selected:
		style = styles.SelectedRow()
	}

	desc := ""
	if c.describe != nil {
		desc = c.describe(row.Option)
	}
	if desc == "" {
		return style.Width(width).Render(util.Ellipsize(" "+label, width))
	}

	left := util.Ellipsize(" "+label, width)
	room := width - lipgloss.Width(left) - 2
	if room <= 0 {
		return style.Width(width).Render(left)
	}
	right := util.Ellipsize(desc, room)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	return style.Width(width).Render(
		left + strings.Repeat(" ", max(gap, 1)) + styles.Muted().Inherit(style).Render(right),
	)
}

// Overlay composites the open dropdown over bg, the host's fully rendered
// view. Hosts call it last so the dropdown sits above everything else.
func (c *comboboxComponent) Overlay(bg string) string {
	if !c.open || c.disabled {
		return bg
	}
	if !c.placed {
		c.reposition()
		if !c.placed {
			return bg
		}
	}

	width := c.place.W
	if width <= 0 {
		width = c.width
	}
	popup := c.renderPopup(width)
	c.place.H = lipgloss.Height(popup)
	return layout.PlaceOverlay(c.place.X, c.place.Y, popup, bg)
}

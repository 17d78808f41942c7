// Package combobox implements a typeahead selection field for bubbletea.
//
// The field filters a caller supplied option list as the user types, can
// group rows under headers, accepts hand typed values when free solo is on,
// and selects either one option or an ordered set of them. It is controlled:
// a commit never changes the held value, it emits a SingleChangedMsg or
// MultiChangedMsg and the caller writes the value back with ApplyChange,
// SetValue or SetValues.
//
// The dropdown is not part of View. Hosts render their whole screen first
// and then pass it through Overlay, which draws the dropdown under the
// field's last measured position.
package combobox

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/sst/modforge/internal/tui/mouse"
	"github.com/sst/modforge/internal/tui/util"
)

type Combobox interface {
	tea.Model
	ID() string
	Focus() tea.Cmd
	Blur() tea.Cmd
	Focused() bool
	IsOpen() bool
	Multi() bool
	SetOptions(options []Option)
	Options() []Option
	SetValue(value *Option)
	SetValues(values []Option)
	Value() *Option
	Values() []Option
	ApplyChange(msg tea.Msg) bool
	Query() string
	Highlighted() int
	Rows() []RowState
	SetWidth(width int)
	SetScrollOffset(x, y int)
	Placement() (mouse.Rect, bool)
	Bounds() (mouse.Rect, bool)
	Overlay(bg string) string
	Clear() tea.Cmd
	Remove(id string) tea.Cmd
	SetDisabled(disabled bool)
	Disabled() bool
	Dispose()
}

// RowState describes one dropdown row for assistive output and tests.
type RowState struct {
	Kind        RowKind
	Label       string
	Description string
	Highlighted bool
	Selected    bool
}

type comboboxComponent struct {
	id     string
	input  textinput.Model
	sel    selection
	filter Filter

	options []Option
	result  Result

	open      bool
	highlight int
	// pristine is set while the text mirrors the selection rather than
	// something the user typed; filtering then ignores it.
	pristine bool

	disabled      bool
	clearable     bool
	clearOnSelect bool
	maxVisible    int
	width         int

	labelFunc func(Option) string
	describe  func(Option) string

	anchor           Anchor
	place            mouse.Rect
	placed           bool
	scrollX, scrollY int
	offset           int

	closer     *closeTimer
	popupMouse *mouse.Handler
	fieldHits  *mouse.HitMap
}

type settings struct {
	multi         bool
	freeSolo      bool
	disabled      bool
	clearable     bool
	clearOnSelect bool
	searchFields  []string
	groupBy       string
	match         MatchMode
	labelFunc     func(Option) string
	describe      func(Option) string
	options       []Option
	placeholder   string
	maxVisible    int
	blurDelay     time.Duration
	anchor        Anchor
	width         int
}

// ComboOption configures a combobox at construction.
type ComboOption func(*settings)

func WithMultiselect() ComboOption {
	return func(s *settings) { s.multi = true }
}

// WithFreeSolo lets the user commit text that matches no option.
func WithFreeSolo() ComboOption {
	return func(s *settings) { s.freeSolo = true }
}

func WithDisabled() ComboOption {
	return func(s *settings) { s.disabled = true }
}

// WithClearable shows a clear control while something is selected.
func WithClearable() ComboOption {
	return func(s *settings) { s.clearable = true }
}

// WithClearOnSelect blanks the text after every commit.
func WithClearOnSelect() ComboOption {
	return func(s *settings) { s.clearOnSelect = true }
}

// WithSearchFields sets the option fields the query is matched against.
func WithSearchFields(fields ...string) ComboOption {
	return func(s *settings) { s.searchFields = fields }
}

// WithGroupBy inserts a header whenever field changes between adjacent rows.
func WithGroupBy(field string) ComboOption {
	return func(s *settings) { s.groupBy = field }
}

func WithMatchMode(mode MatchMode) ComboOption {
	return func(s *settings) { s.match = mode }
}

// WithLabelFunc overrides the text shown for an option. It is presentation
// only: filtering and free solo matching still use the option fields.
func WithLabelFunc(fn func(Option) string) ComboOption {
	return func(s *settings) { s.labelFunc = fn }
}

// WithDescriptionFunc adds dimmed secondary text to each option row.
func WithDescriptionFunc(fn func(Option) string) ComboOption {
	return func(s *settings) { s.describe = fn }
}

func WithOptions(options []Option) ComboOption {
	return func(s *settings) { s.options = options }
}

func WithPlaceholder(text string) ComboOption {
	return func(s *settings) { s.placeholder = text }
}

// WithMaxVisible caps the dropdown height in rows.
func WithMaxVisible(n int) ComboOption {
	return func(s *settings) { s.maxVisible = n }
}

// WithBlurDelay sets how long the dropdown stays open after focus is lost.
func WithBlurDelay(d time.Duration) ComboOption {
	return func(s *settings) { s.blurDelay = d }
}

// WithAnchor replaces the bubblezone based field measurement.
func WithAnchor(anchor Anchor) ComboOption {
	return func(s *settings) { s.anchor = anchor }
}

func WithWidth(width int) ComboOption {
	return func(s *settings) { s.width = width }
}

func New(opts ...ComboOption) Combobox {
	s := settings{
		maxVisible: 8,
		blurDelay:  DefaultBlurDelay,
		width:      40,
	}
	for _, opt := range opts {
		opt(&s)
	}

	id := uuid.NewString()

	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = s.placeholder
	input.ShowSuggestions = false

	var sel selection = &singleSelection{id: id}
	if s.multi {
		sel = &multiSelection{id: id}
	}

	anchor := s.anchor
	if anchor == nil {
		anchor = newZoneAnchor("combobox-" + id)
	}

	c := &comboboxComponent{
		id:    id,
		input: input,
		sel:   sel,
		filter: Filter{
			SearchFields: s.searchFields,
			GroupBy:      s.groupBy,
			FreeSolo:     s.freeSolo,
			Mode:         s.match,
		},
		disabled:      s.disabled,
		clearable:     s.clearable,
		clearOnSelect: s.clearOnSelect,
		maxVisible:    max(s.maxVisible, 1),
		width:         s.width,
		labelFunc:     s.labelFunc,
		describe:      s.describe,
		anchor:        anchor,
		closer:        newCloseTimer(id, s.blurDelay),
		popupMouse:    mouse.NewHandler(),
		fieldHits:     mouse.NewHitMap(),
	}
	c.SetOptions(s.options)
	return c
}

// Keys returns the bindings the field responds to while focused.
func Keys() help.KeyMap {
	return comboboxKeys
}

func (c *comboboxComponent) Init() tea.Cmd {
	return nil
}

func (c *comboboxComponent) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case blurCloseMsg:
		if c.closer.Fire(msg) {
			c.close()
		}
		return c, nil
	case SingleChangedMsg, MultiChangedMsg:
		c.ApplyChange(msg)
		return c, nil
	case tea.MouseMsg:
		if c.disabled {
			return c, nil
		}
		return c, c.handleMouse(msg)
	case tea.KeyMsg:
		if c.disabled || !c.input.Focused() {
			return c, nil
		}
		return c, c.handleKey(msg)
	}

	if c.input.Focused() {
		before := c.input.Value()
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		if c.input.Value() != before {
			c.textChanged()
		}
		return c, cmd
	}
	return c, nil
}

func (c *comboboxComponent) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, comboboxKeys.Down):
		if !c.open {
			c.openDropdown()
			return nil
		}
		c.moveHighlight(1)
		return nil
	case key.Matches(msg, comboboxKeys.Up):
		if c.open {
			c.moveHighlight(-1)
		}
		return nil
	case key.Matches(msg, comboboxKeys.Select):
		if !c.open {
			c.openDropdown()
			return nil
		}
		return c.commitHighlighted()
	case key.Matches(msg, comboboxKeys.Close):
		c.close()
		return nil
	case key.Matches(msg, comboboxKeys.RemoveLast) && c.sel.Multi() && c.input.Value() == "":
		selected := c.sel.Proposed()
		if len(selected) == 0 {
			return nil
		}
		return c.Remove(selected[len(selected)-1].ID)
	}

	before := c.input.Value()
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	if c.input.Value() != before {
		c.textChanged()
	}
	return cmd
}

func (c *comboboxComponent) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if c.open && c.placed {
		shifted := msg
		shifted.X += c.scrollX
		shifted.Y += c.scrollY
		action := c.popupMouse.HandleMouse(shifted)
		if action.Region != nil {
			index, _ := action.Region.Data.(int)
			switch action.Type {
			case mouse.ActionHover:
				c.highlight = index
			case mouse.ActionClick:
				c.highlight = index
				return c.commitHighlighted()
			case mouse.ActionScrollUp:
				c.moveHighlight(-1)
			case mouse.ActionScrollDown:
				c.moveHighlight(1)
			}
			return nil
		}
	}

	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	bounds, ok := c.anchor.Bounds()
	if !ok {
		return nil
	}
	region := c.fieldHits.Test(msg.X-bounds.X, msg.Y-bounds.Y)
	if region == nil {
		return nil
	}
	switch region.ID {
	case clearRegion:
		return c.Clear()
	case chipRegion:
		id, _ := region.Data.(string)
		return c.Remove(id)
	}
	return nil
}

func (c *comboboxComponent) moveHighlight(delta int) {
	c.highlight = util.Clamp(c.highlight+delta, 0, max(c.result.Selectable()-1, 0))
}

func (c *comboboxComponent) textChanged() {
	c.pristine = false
	c.highlight = 0
	c.recompute()
	if !c.open {
		c.open = true
	}
	c.reposition()
}

func (c *comboboxComponent) openDropdown() {
	c.open = true
	c.recompute()
	c.highlightSelected()
	c.reposition()
}

// highlightSelected moves a single-select highlight onto the chosen option
// while the text still shows that option.
func (c *comboboxComponent) highlightSelected() {
	if c.sel.Multi() || !c.pristine {
		return
	}
	selected := c.sel.Proposed()
	if len(selected) == 0 {
		return
	}
	for _, row := range c.result.Rows {
		if row.Kind == RowOption && row.Option.ID == selected[0].ID {
			c.highlight = row.Index
			return
		}
	}
}

func (c *comboboxComponent) close() {
	c.open = false
	c.offset = 0
	c.popupMouse.Clear()
}

// filterQuery is the text the option list is filtered by.
func (c *comboboxComponent) filterQuery() string {
	if c.pristine {
		return ""
	}
	return c.input.Value()
}

func (c *comboboxComponent) recompute() {
	c.result = c.filter.Apply(c.options, c.filterQuery(), c.sel.Proposed(), c.sel.Multi())
	c.highlight = util.Clamp(c.highlight, 0, max(c.result.Selectable()-1, 0))
}

func (c *comboboxComponent) setText(text string, pristine bool) {
	c.input.SetValue(text)
	c.input.CursorEnd()
	c.pristine = pristine
}

func (c *comboboxComponent) commitHighlighted() tea.Cmd {
	row, ok := c.result.At(c.highlight)
	if ok && row.Kind == RowOption {
		return c.commit(row.Option)
	}
	return c.commitFreeSolo()
}

// commitFreeSolo commits the typed text. Text that names an existing option
// selects that option instead of a synthetic one.
func (c *comboboxComponent) commitFreeSolo() tea.Cmd {
	if !c.filter.FreeSolo {
		return nil
	}
	text := strings.TrimSpace(c.input.Value())
	if text == "" {
		return nil
	}
	if existing, ok := findByName(c.options, text); ok {
		return c.commit(existing)
	}
	if c.sel.Multi() {
		if existing, ok := findByName(c.sel.Proposed(), text); ok {
			return c.commit(existing)
		}
	}
	return c.commit(FreeSoloOption(text))
}

func (c *comboboxComponent) commit(o Option) tea.Cmd {
	change := c.sel.Add(o)
	slog.Debug("combobox commit", "combobox", c.id, "option", o.ID, "multi", c.sel.Multi())

	if c.sel.Multi() {
		c.setText("", false)
		if c.clearOnSelect {
			c.close()
		} else {
			c.recompute()
			c.reposition()
		}
	} else {
		if c.clearOnSelect {
			c.setText("", false)
			c.highlight = 0
			c.openDropdown()
		} else {
			c.setText(o.Name, true)
			c.close()
		}
	}

	if change == nil {
		return nil
	}
	return util.CmdHandler(change)
}

// Clear proposes an empty value and blanks the text. Focus and the open
// state are left alone.
func (c *comboboxComponent) Clear() tea.Cmd {
	change := c.sel.Clear()
	if change == nil {
		return nil
	}
	c.setText("", false)
	c.recompute()
	if c.open {
		c.reposition()
	}
	return util.CmdHandler(change)
}

// Remove proposes the value without the option identified by id.
func (c *comboboxComponent) Remove(id string) tea.Cmd {
	change := c.sel.Remove(id)
	if change == nil {
		return nil
	}
	slog.Debug("combobox remove", "combobox", c.id, "option", id)
	return util.CmdHandler(change)
}

func (c *comboboxComponent) ID() string {
	return c.id
}

func (c *comboboxComponent) Focus() tea.Cmd {
	if c.disabled {
		return nil
	}
	c.closer.Cancel()
	cmd := c.input.Focus()
	c.openDropdown()
	return cmd
}

// Blur defers the close so a pointer press that caused the blur can still
// commit the row it landed on.
func (c *comboboxComponent) Blur() tea.Cmd {
	c.input.Blur()
	if !c.open {
		return nil
	}
	return c.closer.Schedule()
}

func (c *comboboxComponent) Focused() bool {
	return c.input.Focused()
}

func (c *comboboxComponent) IsOpen() bool {
	return c.open
}

func (c *comboboxComponent) Multi() bool {
	return c.sel.Multi()
}

// SetOptions replaces the option list. Query, open state and the clamped
// highlight are kept.
func (c *comboboxComponent) SetOptions(options []Option) {
	c.options = slices.Clone(options)
	warnDuplicateIDs(c.id, c.options)
	c.recompute()
}

func (c *comboboxComponent) Options() []Option {
	return c.options
}

// SetValue writes the caller's value for a single-select field. While the
// field is not focused the text follows the value.
func (c *comboboxComponent) SetValue(value *Option) {
	if value == nil {
		c.sel.Set(nil)
	} else {
		c.sel.Set([]Option{*value})
	}
	if !c.sel.Multi() && !c.input.Focused() {
		name := ""
		if value != nil {
			name = value.Name
		}
		c.setText(name, true)
	}
	c.recompute()
}

// SetValues writes the caller's value for a multi-select field.
func (c *comboboxComponent) SetValues(values []Option) {
	if !c.sel.Multi() {
		if len(values) == 0 {
			c.SetValue(nil)
			return
		}
		c.SetValue(&values[0])
		return
	}
	c.sel.Set(values)
	c.recompute()
}

func (c *comboboxComponent) Value() *Option {
	selected := c.sel.Selected()
	if len(selected) == 0 {
		return nil
	}
	v := selected[0]
	return &v
}

func (c *comboboxComponent) Values() []Option {
	return slices.Clone(c.sel.Selected())
}

// ApplyChange writes back a change message this field emitted. It reports
// false for messages that belong to another field. The text is not touched,
// it was already updated when the change was proposed. Changes emitted after
// msg stay pending until they are applied too.
func (c *comboboxComponent) ApplyChange(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case SingleChangedMsg:
		if msg.ID != c.id {
			return false
		}
		if msg.Value == nil {
			c.sel.Apply(nil)
		} else {
			c.sel.Apply([]Option{*msg.Value})
		}
	case MultiChangedMsg:
		if msg.ID != c.id {
			return false
		}
		c.sel.Apply(msg.Value)
	default:
		return false
	}
	c.recompute()
	return true
}

func (c *comboboxComponent) Query() string {
	return c.input.Value()
}

func (c *comboboxComponent) Highlighted() int {
	return c.highlight
}

func (c *comboboxComponent) Rows() []RowState {
	selected := c.sel.Selected()
	rows := make([]RowState, 0, len(c.result.Rows))
	for _, row := range c.result.Rows {
		state := RowState{Kind: row.Kind}
		switch row.Kind {
		case RowGroupHeader:
			state.Label = row.Group
		case RowFreeSolo:
			state.Label = row.Option.Name
			state.Highlighted = c.open && row.Index == c.highlight
		default:
			state.Label = c.label(row.Option)
			if c.describe != nil {
				state.Description = c.describe(row.Option)
			}
			state.Highlighted = c.open && row.Index == c.highlight
			state.Selected = containsID(selected, row.Option.ID)
		}
		rows = append(rows, state)
	}
	return rows
}

func (c *comboboxComponent) label(o Option) string {
	if c.labelFunc != nil {
		return c.labelFunc(o)
	}
	if o.Name != "" {
		return o.Name
	}
	return o.ID
}

func (c *comboboxComponent) SetWidth(width int) {
	c.width = width
}

// SetScrollOffset tells the field how far the host's content is scrolled.
// The next placement adds the offset.
func (c *comboboxComponent) SetScrollOffset(x, y int) {
	c.scrollX, c.scrollY = x, y
}

// Placement returns the last computed dropdown rectangle.
func (c *comboboxComponent) Placement() (mouse.Rect, bool) {
	return c.place, c.placed
}

// Bounds returns where the field itself was last drawn.
func (c *comboboxComponent) Bounds() (mouse.Rect, bool) {
	return c.anchor.Bounds()
}

func (c *comboboxComponent) SetDisabled(disabled bool) {
	c.disabled = disabled
	if disabled {
		c.closer.Cancel()
		c.input.Blur()
		c.close()
	}
}

func (c *comboboxComponent) Disabled() bool {
	return c.disabled
}

// Dispose cancels the pending close and releases the field's zone.
func (c *comboboxComponent) Dispose() {
	c.closer.Cancel()
	c.close()
	c.fieldHits.Clear()
	if r, ok := c.anchor.(interface{ Release() }); ok {
		r.Release()
	}
}

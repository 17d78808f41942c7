package page

import (
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sst/modforge/internal/catalog"
	"github.com/sst/modforge/internal/config"
	"github.com/sst/modforge/internal/format"
	"github.com/sst/modforge/internal/pubsub"
	"github.com/sst/modforge/internal/tui/components/combobox"
	"github.com/sst/modforge/internal/tui/styles"
	"github.com/sst/modforge/internal/tui/util"
)

type PageID string

var EditorPage PageID = "editor"

// SubmitMsg asks the host to finish with the current values.
type SubmitMsg struct{}

type Editor interface {
	tea.Model
	SetSize(width, height int) tea.Cmd
	Values() []format.FieldValue
	Focused() int
	Field(name string) (combobox.Combobox, bool)
	BindingKeys() help.KeyMap
	// Focus and Blur act on the field that currently holds focus.
	Focus() tea.Cmd
	Blur() tea.Cmd
	Dispose()
}

type editorField struct {
	conf config.Field
	box  combobox.Combobox
}

type editorPage struct {
	title          string
	fields         []editorField
	focused        int
	width, height  int
	submitOnSelect bool
	help           help.Model
}

type editorKeyMap struct {
	Next key.Binding
	Prev key.Binding
}

var editorKeys = editorKeyMap{
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
}

// formHelp joins the page bindings with the field bindings.
type formHelp struct{}

func (formHelp) ShortHelp() []key.Binding {
	return append([]key.Binding{editorKeys.Next, editorKeys.Prev}, combobox.Keys().ShortHelp()...)
}

func (formHelp) FullHelp() [][]key.Binding {
	return append([][]key.Binding{{editorKeys.Next, editorKeys.Prev}}, combobox.Keys().FullHelp()...)
}

type editorSettings struct {
	title          string
	blurDelay      time.Duration
	maxVisible     int
	submitOnSelect bool
	anchors        func(name string) combobox.Anchor
}

type EditorOption func(*editorSettings)

func WithTitle(title string) EditorOption {
	return func(s *editorSettings) { s.title = title }
}

func WithBlurDelay(d time.Duration) EditorOption {
	return func(s *editorSettings) { s.blurDelay = d }
}

func WithMaxVisible(n int) EditorOption {
	return func(s *editorSettings) { s.maxVisible = n }
}

// WithSubmitOnSelect submits the form as soon as a single-value field
// commits a value. Used by the one-shot picker.
func WithSubmitOnSelect() EditorOption {
	return func(s *editorSettings) { s.submitOnSelect = true }
}

// WithAnchors overrides how field positions are measured.
func WithAnchors(fn func(name string) combobox.Anchor) EditorOption {
	return func(s *editorSettings) { s.anchors = fn }
}

// NewEditorPage builds one combobox per field, fed from the named catalogs.
// The first field starts focused once Init runs.
func NewEditorPage(fields []config.Field, catalogs map[string]catalog.Catalog, opts ...EditorOption) Editor {
	s := editorSettings{
		title:      "modforge",
		blurDelay:  combobox.DefaultBlurDelay,
		maxVisible: 8,
	}
	for _, opt := range opts {
		opt(&s)
	}

	p := &editorPage{
		title:          s.title,
		submitOnSelect: s.submitOnSelect,
		help:           help.New(),
	}
	for _, f := range fields {
		comboOpts := []combobox.ComboOption{
			combobox.WithOptions(catalogs[f.Catalog].Options),
			combobox.WithBlurDelay(s.blurDelay),
			combobox.WithMaxVisible(s.maxVisible),
			combobox.WithPlaceholder(f.Placeholder),
			combobox.WithDescriptionFunc(describe),
		}
		if f.Multiselect {
			comboOpts = append(comboOpts, combobox.WithMultiselect())
		}
		if f.FreeSolo {
			comboOpts = append(comboOpts, combobox.WithFreeSolo())
		}
		if f.Clearable {
			comboOpts = append(comboOpts, combobox.WithClearable())
		}
		if f.ClearOnSelect {
			comboOpts = append(comboOpts, combobox.WithClearOnSelect())
		}
		if f.GroupBy != "" {
			comboOpts = append(comboOpts, combobox.WithGroupBy(f.GroupBy))
		}
		if len(f.SearchFields) > 0 {
			comboOpts = append(comboOpts, combobox.WithSearchFields(f.SearchFields...))
		}
		if mode, err := combobox.ParseMatchMode(f.Match); err == nil {
			comboOpts = append(comboOpts, combobox.WithMatchMode(mode))
		} else {
			slog.Warn("ignoring match mode", "field", f.Name, "error", err)
		}
		if s.anchors != nil {
			comboOpts = append(comboOpts, combobox.WithAnchor(s.anchors(f.Name)))
		}
		p.fields = append(p.fields, editorField{conf: f, box: combobox.New(comboOpts...)})
	}
	return p
}

// describe shows a catalog entry's description field when it has one.
func describe(o combobox.Option) string {
	return o.Field("description")
}

func (p *editorPage) Init() tea.Cmd {
	return p.Focus()
}

func (p *editorPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return p, p.SetSize(msg.Width, msg.Height)
	case combobox.SingleChangedMsg, combobox.MultiChangedMsg:
		return p, p.applyChange(msg)
	case pubsub.Event[catalog.Catalog]:
		p.updateCatalog(msg)
		return p, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, editorKeys.Next):
			return p, p.focus(p.focused + 1)
		case key.Matches(msg, editorKeys.Prev):
			return p, p.focus(p.focused - 1)
		}
		if len(p.fields) == 0 {
			return p, nil
		}
		return p, p.updateField(p.focused, msg)
	case tea.MouseMsg:
		return p, p.handleMouse(msg)
	}

	var cmds []tea.Cmd
	for i := range p.fields {
		cmds = append(cmds, p.updateField(i, msg))
	}
	return p, tea.Batch(cmds...)
}

func (p *editorPage) updateField(i int, msg tea.Msg) tea.Cmd {
	m, cmd := p.fields[i].box.Update(msg)
	p.fields[i].box = m.(combobox.Combobox)
	return cmd
}

func (p *editorPage) applyChange(msg tea.Msg) tea.Cmd {
	for _, f := range p.fields {
		if !f.box.ApplyChange(msg) {
			continue
		}
		slog.Debug("field changed", "field", f.conf.Name, "values", len(f.box.Values()))
		if single, ok := msg.(combobox.SingleChangedMsg); ok && p.submitOnSelect && single.Value != nil {
			return util.CmdHandler(SubmitMsg{})
		}
		return nil
	}
	return nil
}

func (p *editorPage) updateCatalog(ev pubsub.Event[catalog.Catalog]) {
	if ev.Type == pubsub.EventTypeFailed {
		return
	}
	for _, f := range p.fields {
		if f.conf.Catalog == ev.Payload.Name {
			f.box.SetOptions(ev.Payload.Options)
		}
	}
}

// focus moves focus to field i, wrapping around. The previous field is
// blurred, so its dropdown closes after its blur delay.
func (p *editorPage) focus(i int) tea.Cmd {
	n := len(p.fields)
	if n == 0 {
		return nil
	}
	i = ((i % n) + n) % n
	if i == p.focused && p.fields[i].box.Focused() {
		return nil
	}
	cmds := []tea.Cmd{p.fields[p.focused].box.Blur()}
	p.focused = i
	cmds = append(cmds, p.fields[i].box.Focus())
	return tea.Batch(cmds...)
}

// handleMouse routes pointer events. Open dropdowns sit on top of the
// form, the focused one above any that are still closing, so they get the
// first claim. Otherwise a press on a field focuses it.
func (p *editorPage) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if len(p.fields) == 0 {
		return nil
	}
	for _, i := range p.overlayOrder() {
		box := p.fields[i].box
		if place, ok := box.Placement(); ok && box.IsOpen() && place.Contains(msg.X, msg.Y) {
			return p.updateField(i, msg)
		}
	}

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		for i, f := range p.fields {
			bounds, ok := f.box.Bounds()
			if !ok || !bounds.Contains(msg.X, msg.Y) {
				continue
			}
			return tea.Batch(p.focus(i), p.updateField(i, msg))
		}
	}
	return p.updateField(p.focused, msg)
}

// overlayOrder lists the open fields topmost first.
func (p *editorPage) overlayOrder() []int {
	var order []int
	if p.fields[p.focused].box.IsOpen() {
		order = append(order, p.focused)
	}
	for i, f := range p.fields {
		if i != p.focused && f.box.IsOpen() {
			order = append(order, i)
		}
	}
	return order
}

func (p *editorPage) fieldWidth() int {
	if p.width <= 0 {
		return 40
	}
	return util.Clamp(p.width-4, 10, 60)
}

func (p *editorPage) View() string {
	var b strings.Builder
	b.WriteString(styles.Bold().Render(p.title))
	b.WriteString("\n\n")

	for i, f := range p.fields {
		label := f.conf.Label
		if label == "" {
			label = f.conf.Name
		}
		labelStyle := styles.Muted()
		marker := "  "
		if i == p.focused {
			labelStyle = styles.Bold()
			marker = styles.CaretIcon + " "
		}
		b.WriteString(marker + labelStyle.Render(label))
		b.WriteString("\n  ")
		b.WriteString(f.box.View())
		b.WriteString("\n\n")
	}

	b.WriteString(p.help.View(formHelp{}))

	view := b.String()
	if p.height > 0 {
		view = lipgloss.NewStyle().Height(p.height).MaxHeight(p.height).Render(view)
	}
	if len(p.fields) == 0 {
		return view
	}
	order := p.overlayOrder()
	for i := len(order) - 1; i >= 0; i-- {
		view = p.fields[order[i]].box.Overlay(view)
	}
	return view
}

func (p *editorPage) SetSize(width, height int) tea.Cmd {
	p.width = width
	p.height = height
	p.help.Width = width
	for _, f := range p.fields {
		f.box.SetWidth(p.fieldWidth())
	}
	return nil
}

func (p *editorPage) Values() []format.FieldValue {
	out := make([]format.FieldValue, 0, len(p.fields))
	for _, f := range p.fields {
		out = append(out, format.FieldValue{
			Field:  f.conf.Name,
			Multi:  f.box.Multi(),
			Values: f.box.Values(),
		})
	}
	return out
}

func (p *editorPage) Focused() int {
	return p.focused
}

func (p *editorPage) Field(name string) (combobox.Combobox, bool) {
	for _, f := range p.fields {
		if f.conf.Name == name {
			return f.box, true
		}
	}
	return nil, false
}

func (p *editorPage) BindingKeys() help.KeyMap {
	return formHelp{}
}

func (p *editorPage) Focus() tea.Cmd {
	if len(p.fields) == 0 {
		return nil
	}
	return p.fields[p.focused].box.Focus()
}

func (p *editorPage) Blur() tea.Cmd {
	if len(p.fields) == 0 {
		return nil
	}
	return p.fields[p.focused].box.Blur()
}

func (p *editorPage) Dispose() {
	for _, f := range p.fields {
		f.box.Dispose()
	}
}

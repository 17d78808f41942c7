// Package mouse maps terminal pointer events onto rectangular regions that
// components record while rendering.
package mouse

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Rect is a screen rectangle in terminal cells. W and H are exclusive.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Empty reports whether r covers no cells.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Region is a named rectangle with caller data attached.
type Region struct {
	ID   string
	Rect Rect
	Data any
}

// HitMap holds the regions recorded during the last render. Regions added
// later sit on top of earlier ones.
type HitMap struct {
	regions []Region
}

func NewHitMap() *HitMap {
	return &HitMap{}
}

// AddRect records a region.
func (h *HitMap) AddRect(id string, x, y, w, h2 int, data any) {
	r := Rect{X: x, Y: y, W: w, H: h2}
	if r.Empty() {
		return
	}
	h.regions = append(h.regions, Region{ID: id, Rect: r, Data: data})
}

// Test returns the topmost region containing (x, y), or nil.
func (h *HitMap) Test(x, y int) *Region {
	for i := len(h.regions) - 1; i >= 0; i-- {
		if h.regions[i].Rect.Contains(x, y) {
			return &h.regions[i]
		}
	}
	return nil
}

func (h *HitMap) Clear() {
	h.regions = h.regions[:0]
}

func (h *HitMap) Regions() []Region {
	return h.regions
}

type ActionType int

const (
	ActionNone ActionType = iota
	ActionClick
	ActionHover
	ActionScrollUp
	ActionScrollDown
)

// Action is the interpreted form of a tea.MouseMsg.
type Action struct {
	Type   ActionType
	Region *Region
	X, Y   int
}

// Handler interprets mouse messages against a HitMap.
type Handler struct {
	HitMap *HitMap
}

func NewHandler() *Handler {
	return &Handler{HitMap: NewHitMap()}
}

// HandleMouse classifies msg and resolves the region under the pointer.
func (h *Handler) HandleMouse(msg tea.MouseMsg) Action {
	action := Action{X: msg.X, Y: msg.Y}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		action.Type = ActionScrollUp
	case msg.Button == tea.MouseButtonWheelDown:
		action.Type = ActionScrollDown
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		action.Type = ActionClick
	case msg.Action == tea.MouseActionMotion:
		action.Type = ActionHover
	default:
		return action
	}

	action.Region = h.HitMap.Test(msg.X, msg.Y)
	return action
}

// Clear drops all recorded regions.
func (h *Handler) Clear() {
	h.HitMap.Clear()
}

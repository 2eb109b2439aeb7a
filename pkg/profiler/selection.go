package profiler

// Selection is reader-side focus state shared through the profiler so that
// every consumer sees the same highlighted regions.
type Selection struct {
	Focused []string `json:"focused,omitempty"`
	Hovered string   `json:"hovered,omitempty"`
}

// IsFocused reports whether name is focused.
func (s Selection) IsFocused(name string) bool {
	for _, f := range s.Focused {
		if f == name {
			return true
		}
	}
	return false
}

// ToggleFocus adds name to the focused set, or removes it if present.
func (p *Profiler) ToggleFocus(name string) {
	for i, f := range p.selection.Focused {
		if f == name {
			p.selection.Focused = append(p.selection.Focused[:i], p.selection.Focused[i+1:]...)
			return
		}
	}
	p.selection.Focused = append(p.selection.Focused, name)
}

// SetHovered records the hovered region; empty clears it.
func (p *Profiler) SetHovered(name string) {
	p.selection.Hovered = name
}

// ClearFocus empties the focused set.
func (p *Profiler) ClearFocus() {
	p.selection.Focused = nil
}

// Selection returns a copy of the selection state.
func (p *Profiler) Selection() Selection {
	return Selection{
		Focused: append([]string(nil), p.selection.Focused...),
		Hovered: p.selection.Hovered,
	}
}

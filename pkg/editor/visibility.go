package editor

import "sync/atomic"

// VisibilityManager shows or hides the suggestion list.
type VisibilityManager interface {
	SetSuggestionsVisible(visible bool)
	IsShowingSuggestions() bool
}

// Visibility is a VisibilityManager that only records the flag. Hosts with a
// real list view wrap or replace it.
type Visibility struct {
	visible  atomic.Bool
	onChange func(visible bool)
}

// NewVisibility returns a manager that calls onChange, if not nil, whenever
// the flag flips.
func NewVisibility(onChange func(visible bool)) *Visibility {
	return &Visibility{onChange: onChange}
}

// SetSuggestionsVisible implements VisibilityManager.
func (v *Visibility) SetSuggestionsVisible(visible bool) {
	if v.visible.Swap(visible) != visible && v.onChange != nil {
		v.onChange(visible)
	}
}

// IsShowingSuggestions implements VisibilityManager.
func (v *Visibility) IsShowingSuggestions() bool {
	return v.visible.Load()
}
